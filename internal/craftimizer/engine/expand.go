package engine

import (
	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// Expand turns a recipe into the list of demands needed to produce
// multiplier units of its owner. Lines without a sub-item id are dropped
// silently. Input order is preserved and demands for the same item are not
// merged; aggregation is the ledger's and registry's job.
func Expand(recipe []craftimizer.RecipeLine, multiplier int64) []craftimizer.Demand {
	demands := make([]craftimizer.Demand, 0, len(recipe))
	for _, line := range recipe {
		if line.SubItemAnkamaID == nil {
			continue
		}
		demands = append(demands, craftimizer.Demand{
			ItemID:  *line.SubItemAnkamaID,
			Amount:  line.Quantity * multiplier,
			Subtype: line.Subtype,
		})
	}
	return demands
}
