// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// event.go records accepted category mutations in the database for audit
// and debugging purposes. Each entry captures which category changed, the
// operation and a short detail such as the new parent.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// EventStore handles the category audit log.
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// Record writes an audit event. Failures are logged, never returned.
func (s *EventStore) Record(ctx context.Context, e models.CategoryEvent) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_events (shop_id, category_id, action, detail)
		VALUES ($1, $2, $3, $4)
	`, e.ShopID, e.CategoryID, e.Action, e.Detail)
	if err != nil {
		slog.Warn("failed to record category event",
			"shop_id", e.ShopID,
			"category_id", e.CategoryID,
			"action", e.Action,
			"error", err,
		)
		return
	}
	slog.Debug("category event recorded",
		"shop_id", e.ShopID,
		"category_id", e.CategoryID,
		"action", e.Action,
	)
}

// RecentEvents returns the most recent events of a shop, newest first.
func (s *EventStore) RecentEvents(ctx context.Context, shopID uuid.UUID, limit int) ([]models.CategoryEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shop_id, category_id, action, detail, created_at
		FROM category_events
		WHERE shop_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, shopID, limit)
	if err != nil {
		return nil, fmt.Errorf("query category events: %w", err)
	}
	defer rows.Close()

	var events []models.CategoryEvent
	for rows.Next() {
		var e models.CategoryEvent
		if err := rows.Scan(&e.ID, &e.ShopID, &e.CategoryID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
