package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// ShopStore manages tenants.
type ShopStore struct {
	db *sql.DB
}

// NewShopStore returns a new ShopStore.
func NewShopStore(db *sql.DB) *ShopStore {
	return &ShopStore{db: db}
}

// CreateShop inserts a shop and returns it.
func (s *ShopStore) CreateShop(ctx context.Context, name, slug string) (*models.Shop, error) {
	var sh models.Shop
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO shops (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug, created_at
	`, name, slug).Scan(&sh.ID, &sh.Name, &sh.Slug, &sh.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create shop: %w", err)
	}
	return &sh, nil
}

// FindShop retrieves a shop by id. Returns nil if not found.
func (s *ShopStore) FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var sh models.Shop
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM shops WHERE id = $1`, id,
	).Scan(&sh.ID, &sh.Name, &sh.Slug, &sh.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shop: %w", err)
	}
	return &sh, nil
}

// Delete removes a shop with all its users and categories.
func (s *ShopStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shops WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete shop: %w", err)
	}
	return nil
}

// Accounts combines the shop and user stores for first-run seeding.
type Accounts struct {
	Shops *ShopStore
	Users *UserStore
}

// CountUsers delegates to the user store.
func (a Accounts) CountUsers(ctx context.Context) (int, error) {
	return a.Users.CountUsers(ctx)
}

// CreateShop delegates to the shop store.
func (a Accounts) CreateShop(ctx context.Context, name, slug string) (*models.Shop, error) {
	return a.Shops.CreateShop(ctx, name, slug)
}

// CreateUser delegates to the user store.
func (a Accounts) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	return a.Users.CreateUser(ctx, u)
}
