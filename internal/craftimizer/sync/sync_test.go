package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/craftimizer-server/internal/craftimizer/catalog"
)

func newTestDB(t *testing.T) *catalog.DB {
	t.Helper()

	db, err := catalog.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, catalog.InitSchema(context.Background(), db.DB))
	t.Cleanup(func() { _ = db.Close() })

	return db
}

const sampleExport = `{
	"items": [
		{
			"ankama_id": 1,
			"name": "Sword",
			"level": 20,
			"type": {"name": "Weapon", "id": 9},
			"recipe": [
				{"item_ankama_id": 2, "quantity": 3},
				{"item_ankama_id": 3, "quantity": 1, "item_subtype": "part"}
			]
		},
		{
			"ankama_id": 2,
			"name": "Ash Wood",
			"level": 1,
			"type": "Resource"
		}
	]
}`

func TestDecodeCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"Resource"`, "Resource"},
		{"object with name", `{"name": "Weapon", "id": 9}`, "Weapon"},
		{"empty", ``, ""},
		{"object without name", `{"id": 9}`, `{"id": 9}`},
		{"bare number", `42`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeCategory(json.RawMessage(tt.raw)))
		})
	}
}

func TestTransformItem(t *testing.T) {
	var imp ItemImport
	require.NoError(t, json.Unmarshal([]byte(`{
		"ankama_id": 1,
		"name": "Sword",
		"level": 20,
		"type": "Weapon",
		"recipe": [{"item_ankama_id": 2, "quantity": 3, "item_subtype": "plank"}]
	}`), &imp))

	item := transformItem(imp)
	assert.Equal(t, int64(1), item.AnkamaID)
	assert.Equal(t, "Weapon", item.Category)
	require.Len(t, item.Recipe, 1)
	require.NotNil(t, item.Recipe[0].SubItemAnkamaID)
	assert.Equal(t, int64(2), *item.Recipe[0].SubItemAnkamaID)
	assert.Equal(t, "plank", item.Recipe[0].Subtype)
}

func TestImportItemsFromFile(t *testing.T) {
	db := newTestDB(t)
	syncer := NewSyncer(db, nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "resources.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	require.NoError(t, syncer.ImportItemsFromFile(ctx, path, "resources"))

	store := catalog.NewItemStore(db)
	item, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Weapon", item.Category)
	assert.Len(t, item.Recipe, 2)

	count, err := db.GetSyncMetadata(ctx, "items_resources_count")
	require.NoError(t, err)
	assert.Equal(t, "2", count)
}

func TestImportItemsFromFileBadJSON(t *testing.T) {
	db := newTestDB(t)
	syncer := NewSyncer(db, nil)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items": [`), 0o644))

	err := syncer.ImportItemsFromFile(context.Background(), path, "resources")
	assert.Error(t, err)
}

func TestFetchAndImport(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleExport))
	}))
	defer ts.Close()

	db := newTestDB(t)
	syncer := NewSyncer(db, nil)
	syncer.SetBaseURL(ts.URL)
	ctx := context.Background()

	require.NoError(t, syncer.FetchAndImport(ctx, "resources"))
	assert.Equal(t, "/items/resources/all", gotPath)

	store := catalog.NewItemStore(db)
	count, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFetchAndImportBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	db := newTestDB(t)
	syncer := NewSyncer(db, nil)
	syncer.SetBaseURL(ts.URL)

	err := syncer.FetchAndImport(context.Background(), "resources")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestSyncAll(t *testing.T) {
	var requested []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer ts.Close()

	db := newTestDB(t)
	syncer := NewSyncer(db, nil)
	syncer.SetBaseURL(ts.URL)
	ctx := context.Background()

	require.NoError(t, syncer.SyncAll(ctx))
	assert.Equal(t, []string{
		"/items/resources/all",
		"/items/equipment/all",
		"/items/consumables/all",
	}, requested)

	last, err := db.GetSyncMetadata(ctx, "catalog_last_full_sync")
	require.NoError(t, err)
	assert.NotEmpty(t, last)
}
