// Package hierarchy maintains a shop's category forest, which is limited
// to two levels: root categories and the leaves attached under them.
//
// Every function works on a snapshot, the full []models.Category of a shop
// as read from storage. Views are pure. Mutations validate first and then
// return a new snapshot; the input is never modified, so a rejected
// mutation leaves nothing to roll back. The caller persists the result.
package hierarchy

import (
	"slices"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// Find returns the category with the given id, or nil.
func Find(s []models.Category, id uuid.UUID) *models.Category {
	i := indexOf(s, id)
	if i < 0 {
		return nil
	}
	return &s[i]
}

// IsChild reports whether some category lists id among its children.
func IsChild(s []models.Category, id uuid.UUID) bool {
	return ParentOf(s, id) != nil
}

// ParentOf returns the category whose Children contains id, or nil.
func ParentOf(s []models.Category, id uuid.UUID) *models.Category {
	for i := range s {
		if s[i].ID != id && slices.Contains(s[i].Children, id) {
			return &s[i]
		}
	}
	return nil
}

// Roots returns the categories not referenced in any other category's
// Children. A category with no children and no parent is both a root and
// an unattached leaf.
func Roots(s []models.Category) []models.Category {
	children := childSet(s)
	var out []models.Category
	for _, c := range s {
		if !children[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// Leaves returns the categories whose own Children is empty.
func Leaves(s []models.Category) []models.Category {
	var out []models.Category
	for _, c := range s {
		if !c.HasChildren() {
			out = append(out, c)
		}
	}
	return out
}

// UnattachedLeaves returns the leaves that no root references. These are
// the categories a merchant can still drag under a root.
func UnattachedLeaves(s []models.Category) []models.Category {
	children := childSet(s)
	var out []models.Category
	for _, c := range s {
		if !c.HasChildren() && !children[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// ChildCategoriesOf resolves a root's children to full records, keeping
// their order. Ids that no longer resolve are skipped since the snapshot
// may be stale.
func ChildCategoriesOf(s []models.Category, rootID uuid.UUID) []models.Category {
	root := Find(s, rootID)
	if root == nil {
		return nil
	}
	out := make([]models.Category, 0, len(root.Children))
	for _, id := range root.Children {
		if c := Find(s, id); c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Node is a root with its resolved children, the shape used to render
// the category tree.
type Node struct {
	models.Category
	ChildCategories []models.Category `json:"child_categories"`
}

// Tree returns the roots of s, each with its resolved children.
func Tree(s []models.Category) []Node {
	roots := Roots(s)
	out := make([]Node, 0, len(roots))
	for _, r := range roots {
		out = append(out, Node{Category: r, ChildCategories: ChildCategoriesOf(s, r.ID)})
	}
	return out
}

func indexOf(s []models.Category, id uuid.UUID) int {
	return slices.IndexFunc(s, func(c models.Category) bool { return c.ID == id })
}

// childSet returns the ids referenced from other categories' Children.
func childSet(s []models.Category) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool)
	for _, c := range s {
		for _, id := range c.Children {
			if id != c.ID {
				set[id] = true
			}
		}
	}
	return set
}
