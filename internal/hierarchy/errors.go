package hierarchy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Reason identifies why a mutation was rejected. The string values are
// part of the HTTP API and must stay stable.
type Reason string

const (
	ReasonNotFound         Reason = "not_found"
	ReasonAlreadyChild     Reason = "already_child"
	ReasonChildHasChildren Reason = "child_has_children"
	ReasonSelfReference    Reason = "self_reference"
	ReasonNotAChild        Reason = "not_a_child"
	ReasonEmptyName        Reason = "empty_name"
	ReasonParentIsChild    Reason = "parent_is_child"
	ReasonHasChildren      Reason = "has_children"
)

// Rejection is returned by every mutation that fails validation. The
// snapshot passed to the mutation is never modified when a Rejection
// is returned.
type Rejection struct {
	Reason Reason
	ID     uuid.UUID // category the rejection is about, if any
}

func (r *Rejection) Error() string {
	if r.ID == uuid.Nil {
		return "hierarchy: " + string(r.Reason)
	}
	return fmt.Sprintf("hierarchy: %s (%s)", r.Reason, r.ID)
}

// Is makes errors.Is match any Rejection with the same Reason, so callers
// can compare against the Err* sentinels regardless of the ID.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

// Sentinels for errors.Is.
var (
	ErrNotFound         = &Rejection{Reason: ReasonNotFound}
	ErrAlreadyChild     = &Rejection{Reason: ReasonAlreadyChild}
	ErrChildHasChildren = &Rejection{Reason: ReasonChildHasChildren}
	ErrSelfReference    = &Rejection{Reason: ReasonSelfReference}
	ErrNotAChild        = &Rejection{Reason: ReasonNotAChild}
	ErrEmptyName        = &Rejection{Reason: ReasonEmptyName}
	ErrParentIsChild    = &Rejection{Reason: ReasonParentIsChild}
	ErrHasChildren      = &Rejection{Reason: ReasonHasChildren}
)

func reject(reason Reason, id uuid.UUID) error {
	return &Rejection{Reason: reason, ID: id}
}

// ReasonOf extracts the rejection reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
