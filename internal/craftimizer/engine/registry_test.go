package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

func hiltItem() craftimizer.IntermediateItem {
	return craftimizer.IntermediateItem{
		Name:     "Hilt",
		Amount:   1,
		Cost:     decimal.NewFromInt(20),
		Level:    2,
		Category: "Part",
	}
}

func TestRegistryInsertKeepsFirstValues(t *testing.T) {
	r := NewRegistry()
	r.Insert(hiltItem())

	later := hiltItem()
	later.Cost = decimal.NewFromInt(99)
	later.Level = 5
	r.Insert(later)

	got := r.Get("Hilt")
	require.NotNil(t, got)
	assert.Equal(t, "20", got.Cost.String())
	assert.Equal(t, 2, got.Level)
}

func TestRegistrySnapshotSurvivesRemove(t *testing.T) {
	r := NewRegistry()
	r.Insert(hiltItem())
	r.Remove("Hilt")

	assert.False(t, r.Has("Hilt"))
	orig, ok := r.Original("Hilt")
	require.True(t, ok)
	assert.Equal(t, "20", orig.Cost.String())

	r.Restore(orig)
	assert.True(t, r.Has("Hilt"))
	assert.Equal(t, 2, r.Get("Hilt").Level)
}

func TestRegistryBeginPass(t *testing.T) {
	r := NewRegistry()
	r.Insert(hiltItem())

	prev := r.BeginPass()
	assert.False(t, r.Has("Hilt"))
	require.Contains(t, prev, "Hilt")
	assert.Equal(t, 2, prev["Hilt"].Level)

	// Snapshot outlives the pass boundary
	_, ok := r.Original("Hilt")
	assert.True(t, ok)
}

func TestRegistryEntriesSorted(t *testing.T) {
	r := NewRegistry()
	r.Insert(craftimizer.IntermediateItem{Name: "Pommel"})
	r.Insert(craftimizer.IntermediateItem{Name: "Blade"})

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Blade", entries[0].Name)
	assert.Equal(t, "Pommel", entries[1].Name)
}
