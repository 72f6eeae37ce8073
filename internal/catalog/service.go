// Package catalog runs category operations for a shop: it loads the shop's
// snapshot, lets the hierarchy package accept or reject the change, and
// persists only what changed. The service holds no state of its own;
// concurrent edits resolve last-write-wins in the repository.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/hierarchy"
	"storefront/internal/models"
	"storefront/internal/slug"
)

// DeletePolicy decides what Delete does with a root that still has leaves.
type DeletePolicy string

const (
	// DeleteBlock rejects the delete with hierarchy.ErrHasChildren.
	DeleteBlock DeletePolicy = "block"
	// DeleteDetach detaches every leaf first, then deletes the root.
	DeleteDetach DeletePolicy = "detach"
)

// ParseDeletePolicy maps a query value to a policy. Empty means block.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(s) {
	case "", DeleteBlock:
		return DeleteBlock, nil
	case DeleteDetach:
		return DeleteDetach, nil
	}
	return "", fmt.Errorf("unknown delete policy %q", s)
}

// Service exposes the category operations of the admin panel.
type Service struct {
	repo     Repository
	cache    SnapshotCache
	recorder Recorder
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches snapshots between requests.
func WithCache(c SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRecorder writes an audit event for every accepted mutation.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithObserver reports mutation outcomes and cache hits, typically to
// Prometheus.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// New returns a Service backed by repo.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the shop's categories, from the cache when possible.
func (s *Service) Snapshot(ctx context.Context, shopID uuid.UUID) ([]models.Category, error) {
	if s.cache != nil {
		snap, ok := s.cache.Get(ctx, shopID)
		s.observeCache(ok)
		if ok {
			return snap, nil
		}
	}

	snap, err := s.repo.Snapshot(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, shopID, snap)
	}
	return snap, nil
}

// stored reads the shop's categories from the repository. Mutations
// validate against it, never against the cache: a reader that filled the
// cache just before a concurrent write can leave a stale entry behind.
func (s *Service) stored(ctx context.Context, shopID uuid.UUID) ([]models.Category, error) {
	snap, err := s.repo.Snapshot(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// TreeView is the category screen: roots with their leaves, and the
// leaves that are not attached anywhere yet.
type TreeView struct {
	Roots      []hierarchy.Node  `json:"roots"`
	Unattached []models.Category `json:"unattached"`
}

// Tree returns the tree view of the shop.
func (s *Service) Tree(ctx context.Context, shopID uuid.UUID) (*TreeView, error) {
	snap, err := s.Snapshot(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return NewTreeView(snap), nil
}

// NewTreeView builds the tree view of a snapshot.
func NewTreeView(snap []models.Category) *TreeView {
	v := &TreeView{
		Roots:      hierarchy.Tree(snap),
		Unattached: hierarchy.UnattachedLeaves(snap),
	}
	if v.Unattached == nil {
		v.Unattached = []models.Category{}
	}
	return v
}

// Detail is a single category with its neighbourhood.
type Detail struct {
	Category  models.Category   `json:"category"`
	Parent    *models.Category  `json:"parent"`
	Children  []models.Category `json:"children"`
	CanDelete bool              `json:"can_delete"`
}

// Get returns the detail view of one category.
func (s *Service) Get(ctx context.Context, shopID, id uuid.UUID) (*Detail, error) {
	snap, err := s.Snapshot(ctx, shopID)
	if err != nil {
		return nil, err
	}
	c := hierarchy.Find(snap, id)
	if c == nil {
		return nil, &hierarchy.Rejection{Reason: hierarchy.ReasonNotFound, ID: id}
	}
	return &Detail{
		Category:  *c,
		Parent:    hierarchy.ParentOf(snap, id),
		Children:  hierarchy.ChildCategoriesOf(snap, id),
		CanDelete: hierarchy.CanDelete(snap, id),
	}, nil
}

// Stats returns the dashboard statistics of the shop.
func (s *Service) Stats(ctx context.Context, shopID uuid.UUID) (hierarchy.Stats, error) {
	snap, err := s.Snapshot(ctx, shopID)
	if err != nil {
		return hierarchy.Stats{}, err
	}
	return hierarchy.ComputeStats(snap), nil
}

// Check validates the stored categories, bypassing the cache.
func (s *Service) Check(ctx context.Context, shopID uuid.UUID) ([]hierarchy.Violation, error) {
	snap, err := s.stored(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return hierarchy.Validate(snap), nil
}

// Create adds a new, unattached category with a slug unique in the shop.
func (s *Service) Create(ctx context.Context, shopID uuid.UUID, name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := &hierarchy.Rejection{Reason: hierarchy.ReasonEmptyName}
		s.observe("create", err)
		return nil, err
	}

	snap, err := s.stored(ctx, shopID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &models.Category{
		ShopID:      shopID,
		Name:        name,
		Slug:        uniqueSlug(snap, name, uuid.Nil),
		Description: strings.TrimSpace(description),
		Children:    []uuid.UUID{},
	})
	if err != nil {
		s.observe("create", err)
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.accepted(ctx, "create", shopID, created.ID, created.Name)
	return created, nil
}

// Rename changes a category's name and regenerates its slug.
func (s *Service) Rename(ctx context.Context, shopID, id uuid.UUID, name string) (*models.Category, error) {
	snap, err := s.stored(ctx, shopID)
	if err != nil {
		return nil, err
	}
	after, err := hierarchy.Rename(snap, id, name)
	if err != nil {
		s.observe("rename", err)
		return nil, err
	}

	c := hierarchy.Find(after, id)
	c.Slug = uniqueSlug(after, c.Name, id)
	if err := s.repo.Rename(ctx, shopID, id, c.Name, c.Slug); err != nil {
		s.observe("rename", err)
		return nil, fmt.Errorf("rename category: %w", err)
	}

	s.accepted(ctx, "rename", shopID, id, c.Name)
	return c, nil
}

// Attach puts childID under parentID and returns the new snapshot.
func (s *Service) Attach(ctx context.Context, shopID, parentID, childID uuid.UUID) ([]models.Category, error) {
	return s.mutate(ctx, "attach", shopID, childID, "parent="+parentID.String(),
		func(snap []models.Category) ([]models.Category, error) {
			return hierarchy.Attach(snap, parentID, childID)
		})
}

// Detach removes childID from its parent. It returns the new snapshot and
// the former parent's id.
func (s *Service) Detach(ctx context.Context, shopID, childID uuid.UUID) ([]models.Category, uuid.UUID, error) {
	var former uuid.UUID
	after, err := s.mutate(ctx, "detach", shopID, childID, "",
		func(snap []models.Category) ([]models.Category, error) {
			out, parentID, err := hierarchy.Detach(snap, childID)
			former = parentID
			return out, err
		})
	return after, former, err
}

// Reparent moves childID under newParentID, attaching it if it had no
// parent yet.
func (s *Service) Reparent(ctx context.Context, shopID, newParentID, childID uuid.UUID) ([]models.Category, error) {
	return s.mutate(ctx, "reparent", shopID, childID, "parent="+newParentID.String(),
		func(snap []models.Category) ([]models.Category, error) {
			return hierarchy.Reparent(snap, newParentID, childID)
		})
}

// Drop resolves a drag-and-drop gesture into at most one mutation.
func (s *Service) Drop(ctx context.Context, shopID uuid.UUID, in hierarchy.DropIntent) (hierarchy.DropResult, error) {
	var res hierarchy.DropResult
	_, err := s.mutate(ctx, "drop", shopID, in.DraggedID, "target="+in.TargetZoneID.String(),
		func(snap []models.Category) ([]models.Category, error) {
			var err error
			res, err = hierarchy.Drop(snap, in)
			return res.Snapshot, err
		})
	return res, err
}

// Delete removes a category. Roots with leaves are handled by policy.
func (s *Service) Delete(ctx context.Context, shopID, id uuid.UUID, policy DeletePolicy) error {
	before, err := s.stored(ctx, shopID)
	if err != nil {
		return err
	}

	snap := before
	if policy == DeleteDetach {
		snap, _, err = hierarchy.DetachAll(snap, id)
		if err != nil {
			s.observe("delete", err)
			return err
		}
	}
	after, err := hierarchy.Remove(snap, id)
	if err != nil {
		s.observe("delete", err)
		return err
	}

	if changes := childChanges(before, after); len(changes) > 0 {
		if err := s.repo.SaveChildren(ctx, shopID, changes); err != nil {
			s.observe("delete", err)
			return fmt.Errorf("save children: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		s.observe("delete", err)
		return fmt.Errorf("delete category: %w", err)
	}

	s.accepted(ctx, "delete", shopID, id, "policy="+string(policy))
	return nil
}

// mutate runs one structural mutation and persists the parents whose
// children changed. Nothing is written when apply rejects the change.
func (s *Service) mutate(ctx context.Context, op string, shopID, subject uuid.UUID, detail string,
	apply func([]models.Category) ([]models.Category, error)) ([]models.Category, error) {

	before, err := s.stored(ctx, shopID)
	if err != nil {
		return nil, err
	}
	after, err := apply(before)
	if err != nil {
		s.observe(op, err)
		return nil, err
	}

	changes := childChanges(before, after)
	if len(changes) == 0 {
		s.observe(op, nil)
		return after, nil
	}
	if err := s.repo.SaveChildren(ctx, shopID, changes); err != nil {
		s.observe(op, err)
		return nil, fmt.Errorf("save children: %w", err)
	}

	s.accepted(ctx, op, shopID, subject, detail)
	return after, nil
}

// accepted runs the side effects shared by every successful mutation.
func (s *Service) accepted(ctx context.Context, op string, shopID, id uuid.UUID, detail string) {
	s.observe(op, nil)
	if s.cache != nil {
		s.cache.Invalidate(ctx, shopID)
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, models.CategoryEvent{
			ShopID:     shopID,
			CategoryID: id,
			Action:     op,
			Detail:     detail,
		})
	}
	slog.Debug("category mutation applied", "op", op, "shop_id", shopID, "category_id", id)
}

func (s *Service) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveMutation(op, err)
	}
	var rej *hierarchy.Rejection
	if err != nil && !errors.As(err, &rej) {
		slog.Error("category mutation failed", "op", op, "error", err)
	}
}

func (s *Service) observeCache(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(hit)
	}
}

// childChanges returns the new Children of every category whose children
// differ between before and after. Deleted categories are not included.
func childChanges(before, after []models.Category) map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, id := range hierarchy.Changes(before, after) {
		a := hierarchy.Find(after, id)
		if b := hierarchy.Find(before, id); b != nil && slices.Equal(a.Children, b.Children) {
			continue
		}
		out[id] = a.Children
	}
	return out
}

// uniqueSlug builds a slug for name that no other category of the shop
// uses. self is excluded so renaming to the same name keeps the slug.
func uniqueSlug(snap []models.Category, name string, self uuid.UUID) string {
	taken := make(map[string]bool, len(snap))
	for _, c := range snap {
		if c.ID != self {
			taken[c.Slug] = true
		}
	}
	base := slug.Truncate(slug.Generate(name))
	if base == "" {
		base = "category"
	}
	return slug.Unique(base, func(s string) bool { return taken[s] })
}
