package database

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/models"
)

// Default credentials of the first account. The owner is prompted to set
// up 2FA on first login.
const (
	DefaultShopName  = "Demo Shop"
	DefaultShopSlug  = "demo"
	DefaultUserEmail = "admin@storefront.local"
	DefaultPassword  = "admin"
)

// AccountSeeder is implemented by every persistence backend.
type AccountSeeder interface {
	CountUsers(ctx context.Context) (int, error)
	CreateShop(ctx context.Context, name, slug string) (*models.Shop, error)
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
}

// Seed creates a default shop with an owner account if no user exists
// yet. It returns the new shop, or nil when nothing was seeded.
func Seed(ctx context.Context, accounts AccountSeeder) (*models.Shop, error) {
	count, err := accounts.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil, nil
	}

	shop, err := accounts.CreateShop(ctx, DefaultShopName, DefaultShopSlug)
	if err != nil {
		return nil, fmt.Errorf("seed insert shop: %w", err)
	}

	hash, err := models.HashPassword(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	// 2FA is not enabled; the owner must set it up on first login.
	_, err = accounts.CreateUser(ctx, &models.User{
		ShopID:       shop.ID,
		Email:        DefaultUserEmail,
		PasswordHash: hash,
		DisplayName:  "Admin",
		Role:         models.RoleOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default owner",
		"shop_id", shop.ID,
		"email", DefaultUserEmail,
		"password", DefaultPassword,
	)
	return shop, nil
}
