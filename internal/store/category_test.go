// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/hierarchy"
	"storefront/internal/models"
)

func createTestCategory(t *testing.T, s *CategoryStore, shopID uuid.UUID, name, slug string) *models.Category {
	t.Helper()
	c, err := s.Create(context.Background(), &models.Category{ShopID: shopID, Name: name, Slug: slug})
	if err != nil {
		t.Fatalf("Create %q: %v", name, err)
	}
	return c
}

func TestCategoryStoreCreateAndSnapshot(t *testing.T) {
	db := testDB(t)
	shopID := testShop(t, db)
	s := NewCategoryStore(db)
	ctx := context.Background()

	shoes := createTestCategory(t, s, shopID, "Shoes", "shoes")
	if shoes.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if shoes.Children == nil || len(shoes.Children) != 0 {
		t.Errorf("expected empty children, got %v", shoes.Children)
	}

	// Duplicate slug in the same shop is rejected by the unique index.
	if _, err := s.Create(ctx, &models.Category{ShopID: shopID, Name: "Shoes", Slug: "shoes"}); err == nil {
		t.Error("expected error for duplicate slug")
	}

	// Other shops do not see it.
	other := testShop(t, db)
	snap, err := s.Snapshot(ctx, other)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot for other shop, got %d", len(snap))
	}

	found, err := s.FindByID(ctx, shopID, shoes.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID: %v, %v", found, err)
	}
	if found, _ := s.FindByID(ctx, other, shoes.ID); found != nil {
		t.Error("FindByID crossed shops")
	}
}

func TestCategoryStoreSaveChildren(t *testing.T) {
	db := testDB(t)
	shopID := testShop(t, db)
	s := NewCategoryStore(db)
	ctx := context.Background()

	shoes := createTestCategory(t, s, shopID, "Shoes", "shoes")
	boots := createTestCategory(t, s, shopID, "Boots", "boots")
	sneakers := createTestCategory(t, s, shopID, "Sneakers", "sneakers")
	sandals := createTestCategory(t, s, shopID, "Sandals", "sandals")

	err := s.SaveChildren(ctx, shopID, map[uuid.UUID][]uuid.UUID{
		shoes.ID: {sneakers.ID, sandals.ID},
	})
	if err != nil {
		t.Fatalf("SaveChildren: %v", err)
	}

	snap, err := s.Snapshot(ctx, shopID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	got := hierarchy.Find(snap, shoes.ID).Children
	if !slices.Equal(got, []uuid.UUID{sneakers.ID, sandals.ID}) {
		t.Errorf("children order: got %v", got)
	}

	// Reparent sandals: both parents are rewritten in one call.
	err = s.SaveChildren(ctx, shopID, map[uuid.UUID][]uuid.UUID{
		shoes.ID: {sneakers.ID},
		boots.ID: {sandals.ID},
	})
	if err != nil {
		t.Fatalf("SaveChildren reparent: %v", err)
	}
	snap, _ = s.Snapshot(ctx, shopID)
	if v := hierarchy.Validate(snap); len(v) != 0 {
		t.Errorf("stored snapshot invalid: %v", v)
	}
	if p := hierarchy.ParentOf(snap, sandals.ID); p == nil || p.ID != boots.ID {
		t.Errorf("sandals parent: got %v", p)
	}

	// A leaf listed under a parent outside the map moves (last write wins).
	err = s.SaveChildren(ctx, shopID, map[uuid.UUID][]uuid.UUID{boots.ID: {sandals.ID, sneakers.ID}})
	if err != nil {
		t.Fatalf("SaveChildren move: %v", err)
	}
	snap, _ = s.Snapshot(ctx, shopID)
	if p := hierarchy.ParentOf(snap, sneakers.ID); p == nil || p.ID != boots.ID {
		t.Errorf("sneakers parent: got %v", p)
	}
	if len(hierarchy.Find(snap, shoes.ID).Children) != 0 {
		t.Error("expected shoes to lose sneakers")
	}
}

func TestCategoryStoreSaveChildrenIgnoresOtherShops(t *testing.T) {
	db := testDB(t)
	shopID := testShop(t, db)
	other := testShop(t, db)
	s := NewCategoryStore(db)
	ctx := context.Background()

	shoes := createTestCategory(t, s, shopID, "Shoes", "shoes")
	foreign := createTestCategory(t, s, other, "Foreign", "foreign")

	if err := s.SaveChildren(ctx, shopID, map[uuid.UUID][]uuid.UUID{shoes.ID: {foreign.ID}}); err != nil {
		t.Fatalf("SaveChildren: %v", err)
	}
	snap, _ := s.Snapshot(ctx, shopID)
	if len(hierarchy.Find(snap, shoes.ID).Children) != 0 {
		t.Error("attached a category from another shop")
	}
}

func TestCategoryStoreRenameAndDelete(t *testing.T) {
	db := testDB(t)
	shopID := testShop(t, db)
	s := NewCategoryStore(db)
	ctx := context.Background()

	shoes := createTestCategory(t, s, shopID, "Shoes", "shoes")
	sneakers := createTestCategory(t, s, shopID, "Sneakers", "sneakers")
	if err := s.SaveChildren(ctx, shopID, map[uuid.UUID][]uuid.UUID{shoes.ID: {sneakers.ID}}); err != nil {
		t.Fatalf("SaveChildren: %v", err)
	}

	if err := s.Rename(ctx, shopID, sneakers.ID, "Trainers", "trainers"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := s.FindByID(ctx, shopID, sneakers.ID)
	if got.Name != "Trainers" || got.Slug != "trainers" {
		t.Errorf("rename: got %q/%q", got.Name, got.Slug)
	}

	// Deleting a leaf removes its child row too.
	if err := s.Delete(ctx, shopID, sneakers.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap, _ := s.Snapshot(ctx, shopID)
	if len(snap) != 1 || len(snap[0].Children) != 0 {
		t.Errorf("after delete: %+v", snap)
	}
}
