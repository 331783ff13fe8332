// Package craftimizer contains the core types for the craft cost server.
package craftimizer

import (
	"github.com/shopspring/decimal"
)

// ============================================
// CATALOG TYPES
// ============================================

// ItemDefinition is the static catalog record for a game item.
// An empty Recipe marks the item as a raw material.
type ItemDefinition struct {
	AnkamaID int64        `json:"ankama_id"`
	Name     string       `json:"name"`
	Level    int          `json:"level,omitempty"`
	Category string       `json:"category,omitempty"`
	Recipe   []RecipeLine `json:"recipe,omitempty"`
}

// HasRecipe reports whether the item is craftable.
func (d *ItemDefinition) HasRecipe() bool {
	return len(d.Recipe) > 0
}

// RecipeLine is one input of a recipe. A nil SubItemAnkamaID marks a
// malformed or unresolvable line; such lines are skipped during expansion.
type RecipeLine struct {
	SubItemAnkamaID *int64 `json:"item_ankama_id"`
	Quantity        int64  `json:"quantity"`
	Subtype         string `json:"item_subtype,omitempty"`
}

// Demand is a normalized requirement produced by recipe expansion:
// quantity multiplied through by the parent demand. Demands for the same
// item are not pre-merged; aggregation happens in the ledger and registry.
type Demand struct {
	ItemID  int64  `json:"item_id"`
	Amount  int64  `json:"amount"`
	Subtype string `json:"subtype,omitempty"`
}

// ============================================
// COSTING TYPES
// ============================================

// Ingredient is a raw material accumulated during cost resolution.
// Amount reflects only the current recompute pass; it is reset to zero
// (not deleted) at the start of each pass.
type Ingredient struct {
	Name     string          `json:"name"`
	Amount   int64           `json:"amount"`
	Cost     decimal.Decimal `json:"cost"`
	Category string          `json:"category,omitempty"`
}

// IntermediateItem is a crafted sub-item discovered during resolution.
// Level is the recursion depth at which it was first seen this pass.
// An item stays here only while it has no user cost override.
type IntermediateItem struct {
	Name     string          `json:"name"`
	Amount   int64           `json:"amount"`
	Cost     decimal.Decimal `json:"cost"`
	Level    int             `json:"level"`
	Category string          `json:"category,omitempty"`
}

// TrackedItem is a top-level (item, quantity, sell price) entry whose
// production cost the engine derives.
type TrackedItem struct {
	AnkamaID  int64           `json:"ankama_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	SellPrice decimal.Decimal `json:"sell_price"`
}

// ============================================
// RESULT TYPES
// ============================================

// ItemCostRow is the per-tracked-item result of a recompute pass.
type ItemCostRow struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Profit   decimal.Decimal `json:"profit"`
}

// IngredientRow is an ingredient result row. Hidden is set when every
// top-level consumer of the ingredient carries a user cost override, i.e.
// the resource is already fully explained higher up the tree; callers may
// grey it out or drop it.
type IngredientRow struct {
	Name     string          `json:"name"`
	Amount   int64           `json:"amount"`
	Cost     decimal.Decimal `json:"cost"`
	Category string          `json:"category,omitempty"`
	Hidden   bool            `json:"hidden,omitempty"`
}

// IntermediateRow is an intermediate-item result row.
type IntermediateRow struct {
	Name     string          `json:"name"`
	Amount   int64           `json:"amount"`
	Cost     decimal.Decimal `json:"cost"`
	Level    int             `json:"level"`
	Category string          `json:"category,omitempty"`
}

// PassDiagnostics counts the non-fatal faults of one recompute pass.
type PassDiagnostics struct {
	CatalogMisses  int `json:"catalog_misses"`
	CyclicCutoffs  int `json:"cyclic_cutoffs"`
	MalformedLines int `json:"malformed_lines,omitempty"`
}

// RecomputeResult is the full output of one recompute pass.
type RecomputeResult struct {
	PerItem       []ItemCostRow     `json:"per_item"`
	Ingredients   []IngredientRow   `json:"ingredients"`
	Intermediates []IntermediateRow `json:"intermediates"`
	Diagnostics   PassDiagnostics   `json:"diagnostics"`
}

// ============================================
// API REQUEST TYPES
// ============================================

// TrackedItemInput references a catalog item by ankama id or by name.
type TrackedItemInput struct {
	AnkamaID  int64           `json:"ankama_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Quantity  int64           `json:"quantity" validate:"gte=0"`
	SellPrice decimal.Decimal `json:"sell_price"`
}

// SetTrackedRequest replaces the tracked item list.
type SetTrackedRequest struct {
	Items []TrackedItemInput `json:"items" validate:"dive"`
}

// OverrideRequest sets or clears a user cost override for an item name.
// A zero or absent cost clears the override.
type OverrideRequest struct {
	Cost decimal.Decimal `json:"cost"`
}

// IngredientCostRequest updates the unit cost of a ledger ingredient.
type IngredientCostRequest struct {
	Cost decimal.Decimal `json:"cost"`
}

// SellPriceRequest updates the sell price of a tracked item.
type SellPriceRequest struct {
	SellPrice decimal.Decimal `json:"sell_price"`
}
