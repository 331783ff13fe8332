package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// Ledger accumulates raw-ingredient demand and unit costs across a
// recompute pass. Entries survive between passes so user-set costs stick;
// only the amounts are zeroed when a new pass starts. Entries left at
// amount 0 are stale for the current pass and are not reported.
type Ledger struct {
	entries map[string]*craftimizer.Ingredient
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*craftimizer.Ingredient)}
}

// Accumulate adds demand for an ingredient, creating the entry if needed.
// The cost is only written when non-zero so a zero-cost sighting never
// erases a previously known price.
func (l *Ledger) Accumulate(name string, amount int64, cost decimal.Decimal, category string) {
	if entry, ok := l.entries[name]; ok {
		entry.Amount += amount
		if !cost.IsZero() {
			entry.Cost = cost
		}
		if entry.Category == "" {
			entry.Category = category
		}
		return
	}
	l.entries[name] = &craftimizer.Ingredient{
		Name:     name,
		Amount:   amount,
		Cost:     cost,
		Category: category,
	}
}

// Cost returns the unit cost for an ingredient, or zero if unknown.
func (l *Ledger) Cost(name string) decimal.Decimal {
	if entry, ok := l.entries[name]; ok {
		return entry.Cost
	}
	return decimal.Zero
}

// SetCost updates the unit cost of an existing entry. Unknown names are a
// no-op: costs can only be set on ingredients the engine has seen.
func (l *Ledger) SetCost(name string, cost decimal.Decimal) {
	if entry, ok := l.entries[name]; ok {
		entry.Cost = cost
	}
}

// Get returns the entry for a name, or nil.
func (l *Ledger) Get(name string) *craftimizer.Ingredient {
	return l.entries[name]
}

// Remove deletes an entry. Used when an override clears and the name
// migrates back to the intermediate registry.
func (l *Ledger) Remove(name string) {
	delete(l.entries, name)
}

// ResetAmounts zeroes every entry's amount at the start of a pass while
// keeping the entries (and their costs) alive.
func (l *Ledger) ResetAmounts() {
	for _, entry := range l.entries {
		entry.Amount = 0
	}
}

// Entries returns all entries sorted by name.
func (l *Ledger) Entries() []craftimizer.Ingredient {
	out := make([]craftimizer.Ingredient, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
