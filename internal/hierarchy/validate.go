package hierarchy

import (
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// Violation describes one place where a stored snapshot breaks the
// two-level rules. Mutations in this package never produce one; they come
// from data written by other tools or by concurrent last-write-wins edits.
type Violation struct {
	CategoryID uuid.UUID `json:"category_id"`
	Problem    string    `json:"problem"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.CategoryID, v.Problem)
}

// Validate checks every invariant of s and returns the violations found,
// in snapshot order. An empty result means s is a valid forest.
func Validate(s []models.Category) []Violation {
	var out []Violation
	parents := make(map[uuid.UUID][]uuid.UUID)
	known := make(map[uuid.UUID]bool, len(s))
	for _, c := range s {
		known[c.ID] = true
	}

	for _, c := range s {
		seen := make(map[uuid.UUID]bool, len(c.Children))
		for _, id := range c.Children {
			switch {
			case id == c.ID:
				out = append(out, Violation{c.ID, "lists itself as a child"})
				continue
			case !known[id]:
				out = append(out, Violation{c.ID, fmt.Sprintf("child %s does not exist", id)})
				continue
			case seen[id]:
				out = append(out, Violation{c.ID, fmt.Sprintf("child %s listed twice", id)})
				continue
			}
			seen[id] = true
			parents[id] = append(parents[id], c.ID)
		}
	}

	for _, c := range s {
		ps := parents[c.ID]
		if len(ps) > 1 {
			out = append(out, Violation{c.ID, fmt.Sprintf("has %d parents", len(ps))})
		}
		if len(ps) > 0 && c.HasChildren() {
			out = append(out, Violation{c.ID, "is a child but has children of its own"})
		}
	}
	return out
}
