// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/models"
)

func TestEventStoreRecord(t *testing.T) {
	db := testDB(t)
	shopID := testShop(t, db)
	s := NewEventStore(db)

	// Record should not error (best-effort).
	categoryID := uuid.New()
	s.Record(context.Background(), models.CategoryEvent{
		ShopID: shopID, CategoryID: categoryID, Action: "attach", Detail: "parent=x",
	})

	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM category_events WHERE category_id = $1", categoryID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestEventStoreRecentEvents(t *testing.T) {
	db := testDB(t)
	shopID := testShop(t, db)
	s := NewEventStore(db)
	ctx := context.Background()

	s.Record(ctx, models.CategoryEvent{ShopID: shopID, CategoryID: uuid.New(), Action: "create"})
	s.Record(ctx, models.CategoryEvent{ShopID: shopID, CategoryID: uuid.New(), Action: "delete"})
	otherShop := uuid.New()
	s.Record(ctx, models.CategoryEvent{ShopID: otherShop, CategoryID: uuid.New(), Action: "create"})
	t.Cleanup(func() { db.Exec("DELETE FROM category_events WHERE shop_id = $1", otherShop) })

	events, err := s.RecentEvents(ctx, shopID, 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for the shop, got %d", len(events))
	}

	// Most recent should be first.
	if events[0].Action != "delete" {
		t.Errorf("expected newest first, got %q", events[0].Action)
	}
	if events[0].CreatedAt.Before(events[1].CreatedAt) {
		t.Error("expected events ordered by created_at DESC")
	}
}
