// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Category is a storefront category inside a shop's two-level forest.
// Children holds the ordered ids of the leaves attached under it; a
// category listed in another category's Children is a leaf and must
// keep its own Children empty.
type Category struct {
	ID          uuid.UUID   `json:"id"`
	ShopID      uuid.UUID   `json:"shop_id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Children    []uuid.UUID `json:"children"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasChildren reports whether any leaf is attached under c.
func (c *Category) HasChildren() bool {
	return len(c.Children) > 0
}

// Clone returns a copy of c that shares no memory with it.
func (c Category) Clone() Category {
	c.Children = slices.Clone(c.Children)
	if c.Children == nil {
		c.Children = []uuid.UUID{}
	}
	return c
}

// CategoryEvent is one entry of the category audit log.
type CategoryEvent struct {
	ID         int64     `json:"id"`
	ShopID     uuid.UUID `json:"shop_id"`
	CategoryID uuid.UUID `json:"category_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
