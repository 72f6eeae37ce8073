package catalog

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// Repository is the persistence boundary for categories. The Postgres,
// Mongo and memory backends all implement it. Every method is scoped to a
// shop; ids from another shop behave as if they did not exist.
type Repository interface {
	// Snapshot returns every category of the shop with Children resolved
	// in display order.
	Snapshot(ctx context.Context, shopID uuid.UUID) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	// Rename is a no-op for an unknown id; callers check existence on a
	// snapshot first.
	Rename(ctx context.Context, shopID, id uuid.UUID, name, slug string) error
	// SaveChildren replaces the Children of each listed category. A leaf
	// listed here is moved: it is removed from every other parent, so the
	// last write wins without leaving a leaf under two roots.
	SaveChildren(ctx context.Context, shopID uuid.UUID, children map[uuid.UUID][]uuid.UUID) error
	Delete(ctx context.Context, shopID, id uuid.UUID) error
}

// SnapshotCache keeps the last snapshot of each shop. Implementations are
// best-effort: a failed Get is a miss, failed writes are only logged.
type SnapshotCache interface {
	Get(ctx context.Context, shopID uuid.UUID) ([]models.Category, bool)
	Set(ctx context.Context, shopID uuid.UUID, s []models.Category)
	Invalidate(ctx context.Context, shopID uuid.UUID)
}

// Recorder writes the category audit log. Recording is best-effort.
type Recorder interface {
	Record(ctx context.Context, e models.CategoryEvent)
}

// Observer receives the outcome of every mutation and cache lookup.
type Observer interface {
	ObserveMutation(op string, err error)
	ObserveCache(hit bool)
}
