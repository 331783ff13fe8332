package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAccumulate(t *testing.T) {
	l := NewLedger()
	l.Accumulate("Wood", 3, decimal.Zero, "Resource")
	l.Accumulate("Wood", 2, decimal.Zero, "")

	entry := l.Get("Wood")
	require.NotNil(t, entry)
	assert.Equal(t, int64(5), entry.Amount)
	assert.Equal(t, "Resource", entry.Category)
	assert.True(t, entry.Cost.IsZero())
}

func TestLedgerZeroCostNeverErasesKnownPrice(t *testing.T) {
	l := NewLedger()
	l.Accumulate("Wood", 1, decimal.NewFromInt(10), "Resource")
	l.Accumulate("Wood", 1, decimal.Zero, "Resource")

	assert.Equal(t, "10", l.Cost("Wood").String())
}

func TestLedgerSetCostIgnoresUnknownNames(t *testing.T) {
	l := NewLedger()
	l.SetCost("Ghost", decimal.NewFromInt(5))
	assert.Nil(t, l.Get("Ghost"))
	assert.True(t, l.Cost("Ghost").IsZero())

	l.Accumulate("Wood", 1, decimal.Zero, "")
	l.SetCost("Wood", decimal.NewFromInt(5))
	assert.Equal(t, "5", l.Cost("Wood").String())
}

func TestLedgerResetAmountsKeepsCosts(t *testing.T) {
	l := NewLedger()
	l.Accumulate("Wood", 4, decimal.NewFromInt(10), "Resource")
	l.ResetAmounts()

	entry := l.Get("Wood")
	require.NotNil(t, entry)
	assert.Equal(t, int64(0), entry.Amount)
	assert.Equal(t, "10", entry.Cost.String())
}

func TestLedgerEntriesSorted(t *testing.T) {
	l := NewLedger()
	l.Accumulate("Iron", 1, decimal.Zero, "")
	l.Accumulate("Ash", 1, decimal.Zero, "")
	l.Accumulate("Wood", 1, decimal.Zero, "")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Ash", entries[0].Name)
	assert.Equal(t, "Iron", entries[1].Name)
	assert.Equal(t, "Wood", entries[2].Name)
}
