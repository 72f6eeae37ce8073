package hierarchy

import (
	"slices"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// Stats holds the dashboard figures for a shop's categories.
type Stats struct {
	RootCount              int     `json:"root_count"`
	LeafCount              int     `json:"leaf_count"`
	AverageChildrenPerRoot float64 `json:"average_children_per_root"`
}

// ComputeStats returns the statistics of s. LeafCount counts categories
// referenced as someone's child; RootCount counts Roots(s).
func ComputeStats(s []models.Category) Stats {
	st := Stats{
		RootCount: len(Roots(s)),
		LeafCount: len(childSet(s)),
	}
	if st.RootCount > 0 {
		st.AverageChildrenPerRoot = float64(st.LeafCount) / float64(st.RootCount)
	}
	return st
}

// Changes returns the ids of categories in after whose Name or Children
// differ from before, plus new categories. Callers use it to persist only
// what a mutation touched.
func Changes(before, after []models.Category) []uuid.UUID {
	var ids []uuid.UUID
	for _, a := range after {
		b := Find(before, a.ID)
		if b == nil || b.Name != a.Name || !slices.Equal(b.Children, a.Children) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
