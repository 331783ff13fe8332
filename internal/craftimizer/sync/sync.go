// Package sync handles catalog synchronization from the dofusdu.de exports.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rsned/craftimizer-server/internal/craftimizer/catalog"
	"github.com/rsned/craftimizer-server/internal/craftimizer/metrics"
	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// DefaultBaseURL is the public item API the catalog is fetched from.
const DefaultBaseURL = "https://api.dofusdu.de/dofus2/en"

// Sources are the item exports that make up the full catalog.
var Sources = []string{"resources", "equipment", "consumables"}

// Syncer imports catalog data from files or over HTTP.
type Syncer struct {
	db      *catalog.DB
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewSyncer creates a new Syncer.
func NewSyncer(db *catalog.DB, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		db:      db,
		client:  &http.Client{Timeout: 2 * time.Minute},
		baseURL: DefaultBaseURL,
		logger:  logger,
	}
}

// SetBaseURL overrides the API base URL (used in tests).
func (s *Syncer) SetBaseURL(url string) {
	s.baseURL = strings.TrimRight(url, "/")
}

// ItemImport is the wire shape of one catalog item. The type field is a
// plain string in some exports and an object in others; it is decoded once
// here into a canonical category string.
type ItemImport struct {
	AnkamaID int64           `json:"ankama_id"`
	Name     string          `json:"name"`
	Level    int             `json:"level,omitempty"`
	Type     json.RawMessage `json:"type,omitempty"`

	Recipe []struct {
		ItemAnkamaID *int64 `json:"item_ankama_id"`
		Quantity     int64  `json:"quantity"`
		ItemSubtype  string `json:"item_subtype,omitempty"`
	} `json:"recipe,omitempty"`
}

type itemFile struct {
	Items []ItemImport `json:"items"`
}

// decodeCategory resolves the string-or-object type field into a single
// canonical name.
func decodeCategory(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var structured struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Name != "" {
		return structured.Name
	}

	return strings.Trim(string(raw), `"`)
}

// transformItem converts import format to domain format.
func transformItem(imp ItemImport) craftimizer.ItemDefinition {
	item := craftimizer.ItemDefinition{
		AnkamaID: imp.AnkamaID,
		Name:     imp.Name,
		Level:    imp.Level,
		Category: decodeCategory(imp.Type),
	}

	for _, line := range imp.Recipe {
		item.Recipe = append(item.Recipe, craftimizer.RecipeLine{
			SubItemAnkamaID: line.ItemAnkamaID,
			Quantity:        line.Quantity,
			Subtype:         line.ItemSubtype,
		})
	}

	return item
}

// importItems stores a decoded export and updates sync metadata.
func (s *Syncer) importItems(ctx context.Context, file itemFile, source string) error {
	items := make([]craftimizer.ItemDefinition, 0, len(file.Items))
	for _, imp := range file.Items {
		items = append(items, transformItem(imp))
	}

	store := catalog.NewItemStore(s.db)
	if err := store.BulkInsertItems(ctx, items, source); err != nil {
		return fmt.Errorf("inserting items: %w", err)
	}

	if err := s.db.SetSyncMetadata(ctx, "items_"+source+"_last_sync", time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := s.db.SetSyncMetadata(ctx, "items_"+source+"_count", fmt.Sprintf("%d", len(items))); err != nil {
		return err
	}

	count, err := store.CountItems(ctx)
	if err != nil {
		return err
	}
	metrics.CatalogItems.Set(float64(count))

	s.logger.Info("catalog source imported", "source", source, "items", len(items))
	return nil
}

// ImportItemsFromFile imports one export from a JSON file on disk.
func (s *Syncer) ImportItemsFromFile(ctx context.Context, path, source string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var file itemFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	if err := s.importItems(ctx, file, source); err != nil {
		metrics.CatalogSyncs.WithLabelValues(source, "error").Inc()
		return err
	}
	metrics.CatalogSyncs.WithLabelValues(source, "ok").Inc()
	return nil
}

// FetchAndImport downloads one export over HTTP and imports it.
func (s *Syncer) FetchAndImport(ctx context.Context, source string) error {
	url := fmt.Sprintf("%s/items/%s/all?sort%%5Blevel%%5D=desc", s.baseURL, source)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.CatalogSyncs.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("fetching %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.CatalogSyncs.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("fetching %s: unexpected status %d", source, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.CatalogSyncs.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("reading response: %w", err)
	}

	var file itemFile
	if err := json.Unmarshal(body, &file); err != nil {
		metrics.CatalogSyncs.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("parsing %s response: %w", source, err)
	}

	if err := s.importItems(ctx, file, source); err != nil {
		metrics.CatalogSyncs.WithLabelValues(source, "error").Inc()
		return err
	}
	metrics.CatalogSyncs.WithLabelValues(source, "ok").Inc()
	return nil
}

// SyncAll fetches and imports every source. The first error aborts the
// run; already imported sources stay in place.
func (s *Syncer) SyncAll(ctx context.Context) error {
	for _, source := range Sources {
		if err := s.FetchAndImport(ctx, source); err != nil {
			return err
		}
	}
	return s.db.SetSyncMetadata(ctx, "catalog_last_full_sync", time.Now().Format(time.RFC3339))
}

// ClearAll removes all catalog data.
func (s *Syncer) ClearAll(ctx context.Context) error {
	store := catalog.NewItemStore(s.db)
	return store.ClearItems(ctx)
}
