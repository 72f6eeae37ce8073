package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a tenant of the admin panel. Categories and users are always
// scoped to a single shop.
type Shop struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
