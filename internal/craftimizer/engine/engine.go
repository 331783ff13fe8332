// Package engine contains the cost resolution business logic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// Catalog is the engine-facing view of the item catalog. Lookups are
// read-only for the duration of a resolution pass.
type Catalog interface {
	// FindByID returns the definition for an ankama id, or (nil, nil)
	// when the catalog has no such item.
	FindByID(ctx context.Context, ankamaID int64) (*craftimizer.ItemDefinition, error)
	// SearchByName returns definitions whose name contains the given
	// substring, case-insensitively.
	SearchByName(ctx context.Context, term string, limit int) ([]craftimizer.ItemDefinition, error)
}

// ErrInvalidCost is returned when a user-supplied cost is negative.
var ErrInvalidCost = errors.New("cost must be non-negative")

// ErrNotTracked is returned when a sell-price edit names an untracked item.
var ErrNotTracked = errors.New("item is not tracked")

// Calculator owns all mutable costing state: the tracked item list, the
// ingredient ledger, the intermediate registry, resource usage, and the
// user overrides. A single mutex guards everything; a full recompute pass
// is the atomic unit and partial passes are never observable.
type Calculator struct {
	mu      sync.Mutex
	catalog Catalog
	logger  *slog.Logger

	tracked   []craftimizer.TrackedItem
	ledger    *Ledger
	registry  *Registry
	overrides map[string]decimal.Decimal

	// Per-pass state, rebuilt by every recompute.
	usage  map[string]map[string]struct{}
	totals map[string]int64
	diag   craftimizer.PassDiagnostics

	lastPerItem []craftimizer.ItemCostRow
}

// New creates a Calculator over the given catalog.
func New(catalog Catalog, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Calculator{
		catalog:   catalog,
		logger:    logger,
		ledger:    NewLedger(),
		registry:  NewRegistry(),
		overrides: make(map[string]decimal.Decimal),
		usage:     make(map[string]map[string]struct{}),
		totals:    make(map[string]int64),
	}
}

// SetTrackedItems replaces the tracked item list and recomputes.
func (c *Calculator) SetTrackedItems(ctx context.Context, inputs []craftimizer.TrackedItemInput) (*craftimizer.RecomputeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tracked := make([]craftimizer.TrackedItem, 0, len(inputs))
	for _, in := range inputs {
		if in.SellPrice.IsNegative() {
			return nil, ErrInvalidCost
		}
		tracked = append(tracked, craftimizer.TrackedItem{
			AnkamaID:  in.AnkamaID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			SellPrice: in.SellPrice,
		})
	}
	c.tracked = tracked

	return c.recomputeLocked(ctx)
}

// SetSellPrice updates the sell price of a tracked item. Costs are not
// re-resolved; only the profit column changes.
func (c *Calculator) SetSellPrice(name string, price decimal.Decimal) ([]craftimizer.ItemCostRow, error) {
	if price.IsNegative() {
		return nil, ErrInvalidCost
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for i := range c.tracked {
		if strings.EqualFold(c.tracked[i].Name, name) {
			c.tracked[i].SellPrice = price
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotTracked, name)
	}

	for i := range c.lastPerItem {
		if strings.EqualFold(c.lastPerItem[i].Name, name) {
			c.lastPerItem[i].Profit = price.Sub(c.lastPerItem[i].UnitCost)
		}
	}

	rows := make([]craftimizer.ItemCostRow, len(c.lastPerItem))
	copy(rows, c.lastPerItem)
	return rows, nil
}

// SetOverride sets or clears the user cost override for an item name and
// recomputes. A zero cost clears: if the name was ever computed as an
// intermediate, its snapshot is restored into the registry and any ledger
// entry is dropped. A positive cost pins the name: it leaves the registry
// and all future resolution stops at it.
func (c *Calculator) SetOverride(ctx context.Context, name string, cost decimal.Decimal) (*craftimizer.RecomputeResult, error) {
	if cost.IsNegative() {
		return nil, ErrInvalidCost
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cost.IsZero() {
		delete(c.overrides, name)
		if orig, ok := c.registry.Original(name); ok {
			c.registry.Restore(orig)
			c.ledger.Remove(name)
		}
	} else {
		c.overrides[name] = cost
		c.registry.Remove(name)
	}

	return c.recomputeLocked(ctx)
}

// SetIngredientCost updates the unit cost of a raw ledger ingredient in
// place and recomputes. Names the ledger has never seen are ignored.
func (c *Calculator) SetIngredientCost(ctx context.Context, name string, cost decimal.Decimal) (*craftimizer.RecomputeResult, error) {
	if cost.IsNegative() {
		return nil, ErrInvalidCost
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.SetCost(name, cost)

	return c.recomputeLocked(ctx)
}

// Recompute runs a full recompute pass.
func (c *Calculator) Recompute(ctx context.Context) (*craftimizer.RecomputeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.recomputeLocked(ctx)
}

// findTracked resolves a tracked entry to its catalog definition, by id
// when one is set, otherwise by name.
func (c *Calculator) findTracked(ctx context.Context, t *craftimizer.TrackedItem) (*craftimizer.ItemDefinition, error) {
	if t.AnkamaID != 0 {
		item, err := c.catalog.FindByID(ctx, t.AnkamaID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			t.Name = item.Name
		}
		return item, nil
	}

	hits, err := c.catalog.SearchByName(ctx, t.Name, 25)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		if strings.EqualFold(hits[i].Name, t.Name) {
			t.Name = hits[i].Name
			return &hits[i], nil
		}
	}
	if len(hits) > 0 {
		t.Name = hits[0].Name
		return &hits[0], nil
	}
	return nil, nil
}
