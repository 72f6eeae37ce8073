package hierarchy

import (
	"github.com/google/uuid"

	"storefront/internal/models"
)

// UnattachedZone is the drop target that stands for "no parent".
var UnattachedZone = uuid.Nil

// DropIntent is the single event a drag gesture produces once it ends on
// a drop zone. Aborted drags never produce one.
type DropIntent struct {
	DraggedID    uuid.UUID `json:"dragged_id"`
	TargetZoneID uuid.UUID `json:"target_zone_id"`
}

// DropKind tells the caller which mutation a drop resolved to.
type DropKind string

const (
	DropNone     DropKind = "none"
	DropDetach   DropKind = "detach"
	DropAttach   DropKind = "attach"
	DropReparent DropKind = "reparent"
)

// DropResult is the accepted outcome of a drop.
type DropResult struct {
	Snapshot     []models.Category
	Kind         DropKind
	FormerParent uuid.UUID // uuid.Nil when the category was unattached
}

// Drop decides whether a drop is accepted and what it changes. Dropping on
// the unattached zone detaches; dropping on the current parent, or an
// unattached category on the unattached zone, changes nothing; any other
// target reparents.
func Drop(s []models.Category, in DropIntent) (DropResult, error) {
	if Find(s, in.DraggedID) == nil {
		return DropResult{Snapshot: s}, reject(ReasonNotFound, in.DraggedID)
	}

	var former uuid.UUID
	if p := ParentOf(s, in.DraggedID); p != nil {
		former = p.ID
	}

	if in.TargetZoneID == UnattachedZone {
		if former == uuid.Nil {
			return DropResult{Snapshot: s, Kind: DropNone}, nil
		}
		out, _, err := Detach(s, in.DraggedID)
		if err != nil {
			return DropResult{Snapshot: s}, err
		}
		return DropResult{Snapshot: out, Kind: DropDetach, FormerParent: former}, nil
	}

	if in.TargetZoneID == former {
		return DropResult{Snapshot: s, Kind: DropNone, FormerParent: former}, nil
	}

	out, err := Reparent(s, in.TargetZoneID, in.DraggedID)
	if err != nil {
		return DropResult{Snapshot: s}, err
	}
	kind := DropReparent
	if former == uuid.Nil {
		kind = DropAttach
	}
	return DropResult{Snapshot: out, Kind: kind, FormerParent: former}, nil
}
