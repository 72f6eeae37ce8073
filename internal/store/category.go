// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// CategoryStore manages categories in the database. Child lists live in
// category_children, one row per attached leaf, ordered by position.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, shop_id, name, slug, description, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.ShopID, &c.Name, &c.Slug, &c.Description,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Children = []uuid.UUID{}
	return &c, nil
}

// Snapshot returns every category of a shop in creation order, with
// Children resolved in display order.
func (s *CategoryStore) Snapshot(ctx context.Context, shopID uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE shop_id = $1
		ORDER BY created_at, id
	`, shopID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		index[c.ID] = len(items)
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := s.db.QueryContext(ctx, `
		SELECT cc.parent_id, cc.child_id
		FROM category_children cc
		JOIN categories p ON p.id = cc.parent_id
		WHERE p.shop_id = $1
		ORDER BY cc.parent_id, cc.position
	`, shopID)
	if err != nil {
		return nil, fmt.Errorf("list category children: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var parentID, childID uuid.UUID
		if err := links.Scan(&parentID, &childID); err != nil {
			return nil, fmt.Errorf("scan category child: %w", err)
		}
		if i, ok := index[parentID]; ok {
			items[i].Children = append(items[i].Children, childID)
		}
	}
	return items, links.Err()
}

// FindByID retrieves a category of a shop, without its children. Returns
// nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND shop_id = $2`, id, shopID)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new, unattached category and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, shop_id, name, slug, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		id, c.ShopID, c.Name, c.Slug, c.Description,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Rename updates a category's name and slug.
func (s *CategoryStore) Rename(ctx context.Context, shopID, id uuid.UUID, name, slug string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3 AND shop_id = $4
	`, name, slug, id, shopID)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

// SaveChildren replaces the child lists of the given parents in a single
// transaction. A leaf still recorded under a parent outside the map is
// moved, so the last writer wins.
func (s *CategoryStore) SaveChildren(ctx context.Context, shopID uuid.UUID, children map[uuid.UUID][]uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for parentID := range children {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM category_children cc USING categories p
			WHERE cc.parent_id = p.id AND p.id = $1 AND p.shop_id = $2
		`, parentID, shopID); err != nil {
			return fmt.Errorf("clear children of %s: %w", parentID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO category_children (parent_id, child_id, position)
		SELECT p.id, c.id, $3
		FROM categories p, categories c
		WHERE p.id = $1 AND c.id = $2 AND p.shop_id = $4 AND c.shop_id = $4
		ON CONFLICT (child_id) DO UPDATE
		SET parent_id = EXCLUDED.parent_id, position = EXCLUDED.position`)
	if err != nil {
		return fmt.Errorf("prepare save children: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for parentID, kids := range children {
		for pos, childID := range kids {
			if _, err := stmt.ExecContext(ctx, parentID, childID, pos, shopID); err != nil {
				return fmt.Errorf("attach %s under %s: %w", childID, parentID, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET updated_at = $1 WHERE id = $2 AND shop_id = $3`,
			now, parentID, shopID); err != nil {
			return fmt.Errorf("touch category %s: %w", parentID, err)
		}
	}

	return tx.Commit()
}

// Delete removes a category. Its child rows go with it (ON DELETE CASCADE).
func (s *CategoryStore) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND shop_id = $2`, id, shopID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
