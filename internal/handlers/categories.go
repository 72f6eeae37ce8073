package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"storefront/internal/catalog"
	"storefront/internal/hierarchy"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// Limits for the audit log listing.
const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// EventLister reads the category audit log.
type EventLister interface {
	RecentEvents(ctx context.Context, shopID uuid.UUID, limit int) ([]models.CategoryEvent, error)
}

// Categories groups the category handlers. Every handler works on the
// shop of the current session.
type Categories struct {
	catalog *catalog.Service
	events  EventLister
}

// NewCategories creates a new Categories handler group. events may be nil,
// in which case the audit log is always empty.
func NewCategories(svc *catalog.Service, events EventLister) *Categories {
	return &Categories{catalog: svc, events: events}
}

// shopID returns the shop of the current session. It writes a 401 and
// returns false when there is none.
func shopID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.ShopID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return sess.ShopID, true
}

type snapshotResponse struct {
	Categories []models.Category `json:"categories"`
}

// List returns the flat snapshot of the shop.
func (c *Categories) List(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	snap, err := c.catalog.Snapshot(r.Context(), shop)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Categories: nonNil(snap)})
}

// Tree returns the roots with their resolved children and the leaves that
// are not attached yet.
func (c *Categories) Tree(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	view, err := c.catalog.Tree(r.Context(), shop)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Stats returns the dashboard statistics.
func (c *Categories) Stats(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	st, err := c.catalog.Stats(r.Context(), shop)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type checkResponse struct {
	Valid      bool                  `json:"valid"`
	Violations []hierarchy.Violation `json:"violations"`
}

// Check reports invariant violations in the stored categories.
func (c *Categories) Check(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	vs, err := c.catalog.Check(r.Context(), shop)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if vs == nil {
		vs = []hierarchy.Violation{}
	}
	writeJSON(w, http.StatusOK, checkResponse{Valid: len(vs) == 0, Violations: vs})
}

// Events returns the newest audit log entries. The limit query parameter
// defaults to 50 and is capped at 200.
func (c *Categories) Events(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}

	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit.")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events := []models.CategoryEvent{}
	if c.events != nil {
		list, err := c.events.RecentEvents(r.Context(), shop, limit)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if list != nil {
			events = list
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create adds a new unattached category.
func (c *Categories) Create(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if msg := validateCategory(req.Name, req.Description); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := c.catalog.Create(r.Context(), shop, req.Name, req.Description)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type dropResponse struct {
	Kind           hierarchy.DropKind `json:"kind"`
	FormerParentID *uuid.UUID         `json:"former_parent_id"`
	Categories     []models.Category  `json:"categories"`
}

// Drop applies a drag-and-drop gesture. Dropping on the unattached zone
// is expressed with the nil UUID as target_zone_id.
func (c *Categories) Drop(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	var in hierarchy.DropIntent
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	res, err := c.catalog.Drop(r.Context(), shop, in)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dropResponse{
		Kind:           res.Kind,
		FormerParentID: optionalID(res.FormerParent),
		Categories:     nonNil(res.Snapshot),
	})
}

// Get returns a category with its parent, children and whether it can be
// deleted right now.
func (c *Categories) Get(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	d, err := c.catalog.Get(r.Context(), shop, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if d.Children == nil {
		d.Children = []models.Category{}
	}
	writeJSON(w, http.StatusOK, d)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename changes the category name and regenerates its slug.
func (c *Categories) Rename(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if msg := validateCategory(req.Name, ""); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	renamed, err := c.catalog.Rename(r.Context(), shop, id, req.Name)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

// Delete removes a category. The policy query parameter decides what
// happens to the leaves of a root: "block" (default) or "detach".
func (c *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	policy, err := catalog.ParseDeletePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delete policy.")
		return
	}

	if err := c.catalog.Delete(r.Context(), shop, id, policy); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attachRequest struct {
	ChildID uuid.UUID `json:"child_id"`
}

// Attach puts child_id under the category in the path.
func (c *Categories) Attach(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	parent, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req attachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	snap, err := c.catalog.Attach(r.Context(), shop, parent, req.ChildID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Categories: nonNil(snap)})
}

type detachResponse struct {
	FormerParentID uuid.UUID         `json:"former_parent_id"`
	Categories     []models.Category `json:"categories"`
}

// Detach removes the category in the path from its parent.
func (c *Categories) Detach(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	child, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	snap, former, err := c.catalog.Detach(r.Context(), shop, child)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detachResponse{FormerParentID: former, Categories: nonNil(snap)})
}

type reparentRequest struct {
	ParentID uuid.UUID `json:"parent_id"`
}

// Reparent moves the category in the path under parent_id.
func (c *Categories) Reparent(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopID(w, r)
	if !ok {
		return
	}
	child, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req reparentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	snap, err := c.catalog.Reparent(r.Context(), shop, req.ParentID, child)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Categories: nonNil(snap)})
}

func nonNil(s []models.Category) []models.Category {
	if s == nil {
		return []models.Category{}
	}
	return s
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
