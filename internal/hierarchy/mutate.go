package hierarchy

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// Attach appends childID to parentID's children.
//
// Checks run in a fixed order so the same request always reports the same
// reason: SelfReference, NotFound (parent, then child), AlreadyChild,
// ChildHasChildren, ParentIsChild.
func Attach(s []models.Category, parentID, childID uuid.UUID) ([]models.Category, error) {
	if parentID == childID {
		return s, reject(ReasonSelfReference, childID)
	}
	pi := indexOf(s, parentID)
	if pi < 0 {
		return s, reject(ReasonNotFound, parentID)
	}
	ci := indexOf(s, childID)
	if ci < 0 {
		return s, reject(ReasonNotFound, childID)
	}
	if IsChild(s, childID) {
		return s, reject(ReasonAlreadyChild, childID)
	}
	// A category that already has leaves would push them to depth 3.
	if s[ci].HasChildren() {
		return s, reject(ReasonChildHasChildren, childID)
	}
	if IsChild(s, parentID) {
		return s, reject(ReasonParentIsChild, parentID)
	}

	out := clone(s)
	out[pi].Children = append(out[pi].Children, childID)
	return out, nil
}

// Detach removes childID from its parent's children and returns the id of
// the former parent. The detached category becomes an unattached leaf.
func Detach(s []models.Category, childID uuid.UUID) ([]models.Category, uuid.UUID, error) {
	if indexOf(s, childID) < 0 {
		return s, uuid.Nil, reject(ReasonNotFound, childID)
	}
	parent := ParentOf(s, childID)
	if parent == nil {
		return s, uuid.Nil, reject(ReasonNotAChild, childID)
	}
	parentID := parent.ID

	out := clone(s)
	pi := indexOf(out, parentID)
	out[pi].Children = slices.DeleteFunc(out[pi].Children, func(id uuid.UUID) bool { return id == childID })
	return out, parentID, nil
}

// Reparent moves childID under newParentID. A category that is not
// attached anywhere is simply attached, so Reparent doubles as a first
// attach. Nothing changes if the attach step is rejected.
func Reparent(s []models.Category, newParentID, childID uuid.UUID) ([]models.Category, error) {
	if newParentID == childID {
		return s, reject(ReasonSelfReference, childID)
	}
	detached, _, err := Detach(s, childID)
	if err != nil && !IsNotAChild(err) {
		return s, err
	}
	out, err := Attach(detached, newParentID, childID)
	if err != nil {
		return s, err
	}
	return out, nil
}

// Rename sets the name of id to the trimmed newName.
func Rename(s []models.Category, id uuid.UUID, newName string) ([]models.Category, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return s, reject(ReasonEmptyName, id)
	}
	i := indexOf(s, id)
	if i < 0 {
		return s, reject(ReasonNotFound, id)
	}
	out := clone(s)
	out[i].Name = name
	return out, nil
}

// CanDelete reports whether id may be deleted without first detaching its
// leaves. Whether to block or detach first is the caller's decision.
func CanDelete(s []models.Category, id uuid.UUID) bool {
	c := Find(s, id)
	return c != nil && !c.HasChildren()
}

// Remove deletes a childless category. When it is attached, its id is
// also removed from the parent's children so no dangling reference stays.
func Remove(s []models.Category, id uuid.UUID) ([]models.Category, error) {
	i := indexOf(s, id)
	if i < 0 {
		return s, reject(ReasonNotFound, id)
	}
	if s[i].HasChildren() {
		return s, reject(ReasonHasChildren, id)
	}
	out := clone(s)
	if p := ParentOf(out, id); p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(c uuid.UUID) bool { return c == id })
	}
	return slices.Delete(out, i, i+1), nil
}

// DetachAll detaches every leaf of rootID and returns their ids. It is the
// first half of a "detach, then delete" cascade.
func DetachAll(s []models.Category, rootID uuid.UUID) ([]models.Category, []uuid.UUID, error) {
	i := indexOf(s, rootID)
	if i < 0 {
		return s, nil, reject(ReasonNotFound, rootID)
	}
	out := clone(s)
	freed := out[i].Children
	out[i].Children = []uuid.UUID{}
	return out, freed, nil
}

// IsNotAChild reports whether err is a NotAChild rejection.
func IsNotAChild(err error) bool {
	r, ok := ReasonOf(err)
	return ok && r == ReasonNotAChild
}

func clone(s []models.Category) []models.Category {
	out := make([]models.Category, len(s))
	for i, c := range s {
		out[i] = c.Clone()
	}
	return out
}
