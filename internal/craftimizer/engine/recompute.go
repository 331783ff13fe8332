package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rsned/craftimizer-server/internal/craftimizer/metrics"
	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// recomputeLocked runs a full recompute pass. The caller must hold c.mu.
//
// The pass clears and rebuilds resource usage, total amounts, and the
// intermediate registry, zeroes ledger amounts, resolves every tracked
// item, then reconciles intermediate levels against the previous pass so
// an item keeps the depth it was first discovered at.
func (c *Calculator) recomputeLocked(ctx context.Context) (*craftimizer.RecomputeResult, error) {
	start := time.Now()

	c.diag = craftimizer.PassDiagnostics{}
	c.usage = make(map[string]map[string]struct{})
	c.totals = make(map[string]int64)
	prev := c.registry.BeginPass()
	c.ledger.ResetAmounts()

	perItem := make([]craftimizer.ItemCostRow, 0, len(c.tracked))
	for i := range c.tracked {
		t := &c.tracked[i]

		item, err := c.findTracked(ctx, t)
		if err != nil {
			return nil, err
		}

		unitCost := decimal.Zero
		switch {
		case item == nil:
			c.diag.CatalogMisses++
			c.logger.Debug("tracked item not in catalog", "name", t.Name, "ankama_id", t.AnkamaID)
		case item.HasRecipe() && t.Quantity > 0:
			// Items without recipes are not cost-resolved
			path := make(map[int64]bool)
			total, err := c.resolve(ctx, item, t.Quantity, 1, item.Name, path)
			if err != nil {
				return nil, err
			}
			unitCost = total.Div(decimal.NewFromInt(t.Quantity))
		}

		perItem = append(perItem, craftimizer.ItemCostRow{
			Name:     t.Name,
			Quantity: t.Quantity,
			UnitCost: unitCost,
			Profit:   t.SellPrice.Sub(unitCost),
		})
	}

	// An intermediate keeps the level it was first discovered at, even if
	// this pass reached it by a shallower path.
	for name, prevItem := range prev {
		if cur := c.registry.Get(name); cur != nil {
			cur.Level = prevItem.Level
		}
	}

	result := &craftimizer.RecomputeResult{
		PerItem:       perItem,
		Ingredients:   c.ingredientRows(),
		Intermediates: c.intermediateRows(),
		Diagnostics:   c.diag,
	}
	c.lastPerItem = make([]craftimizer.ItemCostRow, len(perItem))
	copy(c.lastPerItem, perItem)

	metrics.RecomputePasses.Inc()
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	c.logger.Debug("recompute pass complete",
		"tracked", len(c.tracked),
		"ingredients", len(result.Ingredients),
		"intermediates", len(result.Intermediates),
		"catalog_misses", c.diag.CatalogMisses,
		"cyclic_cutoffs", c.diag.CyclicCutoffs,
	)

	return result, nil
}

// ingredientRows builds the ingredient result rows: every name demanded
// this pass that is either a raw leaf or an overridden (user-priced) item.
func (c *Calculator) ingredientRows() []craftimizer.IngredientRow {
	names := make([]string, 0, len(c.totals))
	for name := range c.totals {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]craftimizer.IngredientRow, 0, len(names))
	for _, name := range names {
		_, overridden := c.overrides[name]
		if !overridden && c.registry.Has(name) {
			continue
		}

		row := craftimizer.IngredientRow{
			Name:   name,
			Amount: c.totals[name],
			Cost:   decimal.Zero,
			Hidden: c.fullyExplained(name),
		}

		if entry := c.ledger.Get(name); entry != nil {
			row.Cost = entry.Cost
			row.Category = entry.Category
		} else if orig, ok := c.registry.Original(name); ok {
			// Overridden intermediate: not in the ledger, category
			// comes from its snapshot.
			row.Category = orig.Category
		}
		if overridden {
			row.Cost = c.overrides[name]
		}

		rows = append(rows, row)
	}

	return rows
}

// intermediateRows builds the intermediate result rows. Amounts come from
// the per-pass totals so shared sub-trees aggregate across tracked items.
func (c *Calculator) intermediateRows() []craftimizer.IntermediateRow {
	items := c.registry.Entries()

	rows := make([]craftimizer.IntermediateRow, 0, len(items))
	for _, item := range items {
		if _, overridden := c.overrides[item.Name]; overridden {
			continue
		}
		rows = append(rows, craftimizer.IntermediateRow{
			Name:     item.Name,
			Amount:   c.totals[item.Name],
			Cost:     item.Cost,
			Level:    item.Level,
			Category: item.Category,
		})
	}

	return rows
}
