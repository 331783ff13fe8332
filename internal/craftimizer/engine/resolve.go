package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rsned/craftimizer-server/internal/craftimizer/metrics"
	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// resolve returns the total cost of producing amount units of item.
//
// Sub-items with a user override are charged at the override cost and
// never expanded. Sub-items with recipes recurse and register as
// intermediates at depth+1; raw leaves charge their ledger cost and
// accumulate ledger demand. Total amounts and resource usage are recorded
// for every resolvable demand regardless of branch.
//
// Missing catalog entries and malformed recipe lines reduce the total by
// omission; they are counted in the pass diagnostics, never returned as
// errors. The only errors are catalog storage failures. path holds the
// ankama ids on the current recursion path: a repeat means the recipe
// graph has a cycle, and the branch is cut off at cost zero.
func (c *Calculator) resolve(ctx context.Context, item *craftimizer.ItemDefinition, amount int64, depth int, rootName string, path map[int64]bool) (decimal.Decimal, error) {
	if override, ok := c.overrides[item.Name]; ok {
		return override.Mul(decimal.NewFromInt(amount)), nil
	}

	if !item.HasRecipe() {
		// Leaves are charged by their parent; a direct call with a
		// recipe-less item costs nothing.
		return decimal.Zero, nil
	}

	if path[item.AnkamaID] {
		c.diag.CyclicCutoffs++
		metrics.CyclicRecipeCutoffs.Inc()
		c.logger.Warn("cyclic recipe cut off", "item", item.Name, "ankama_id", item.AnkamaID)
		return decimal.Zero, nil
	}
	path[item.AnkamaID] = true
	defer delete(path, item.AnkamaID)

	demands := Expand(item.Recipe, amount)
	c.diag.MalformedLines += len(item.Recipe) - len(demands)

	total := decimal.Zero
	for _, demand := range demands {
		sub, err := c.catalog.FindByID(ctx, demand.ItemID)
		if err != nil {
			return decimal.Zero, err
		}
		if sub == nil {
			c.diag.CatalogMisses++
			c.logger.Debug("catalog miss", "ankama_id", demand.ItemID, "parent", item.Name)
			continue
		}

		c.totals[sub.Name] += demand.Amount

		demandAmount := decimal.NewFromInt(demand.Amount)
		switch {
		case c.hasOverride(sub.Name):
			total = total.Add(c.overrides[sub.Name].Mul(demandAmount))

		case sub.HasRecipe():
			subCost, err := c.resolve(ctx, sub, demand.Amount, depth+1, rootName, path)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(subCost)

			if !c.registry.Has(sub.Name) {
				unitCost := decimal.Zero
				if demand.Amount > 0 {
					unitCost = subCost.Div(demandAmount)
				}
				c.registry.Insert(craftimizer.IntermediateItem{
					Name:     sub.Name,
					Amount:   demand.Amount,
					Cost:     unitCost,
					Level:    depth + 1,
					Category: sub.Category,
				})
			}

		default:
			cost := c.ledger.Cost(sub.Name)
			total = total.Add(cost.Mul(demandAmount))
			c.ledger.Accumulate(sub.Name, demand.Amount, cost, sub.Category)
		}

		if rootName != "" {
			c.recordUsage(sub.Name, rootName)
		}
	}

	return total, nil
}

func (c *Calculator) hasOverride(name string) bool {
	_, ok := c.overrides[name]
	return ok
}

// recordUsage notes that a top-level item transitively consumes a name.
func (c *Calculator) recordUsage(name, rootName string) {
	consumers, ok := c.usage[name]
	if !ok {
		consumers = make(map[string]struct{})
		c.usage[name] = consumers
	}
	consumers[rootName] = struct{}{}
}

// fullyExplained reports whether every top-level consumer of a name has a
// positive user override, i.e. the resource's cost is already fixed higher
// up the tree.
func (c *Calculator) fullyExplained(name string) bool {
	consumers := c.usage[name]
	if len(consumers) == 0 {
		return false
	}
	for consumer := range consumers {
		override, ok := c.overrides[consumer]
		if !ok || !override.IsPositive() {
			return false
		}
	}
	return true
}
