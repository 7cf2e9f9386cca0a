//go:build integration

package data

import (
	"context"
	"errors"
	"testing"
)

func TestCategoryRepository_List(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.category("zeta", 1)
	f.category("alpha", 2)
	f.category("beta", 1)

	categories, err := NewCategoryRepository(db).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, c := range categories {
		got = append(got, c.Slug)
	}
	// Explicit order first, then name.
	want := []string{"beta", "zeta", "alpha"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestCategoryRepository_ListEmpty(t *testing.T) {
	db := setupStore(t)
	categories, err := NewCategoryRepository(db).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if categories == nil || len(categories) != 0 {
		t.Errorf("expected an empty, non-nil slice, got %v", categories)
	}
}

func TestCategoryRepository_GetBySlug(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	parent := f.category("databases", 1)
	child := &Category{Slug: "vector-stores", Name: "Vector Stores", ParentID: &parent.ID}
	if err := f.seeder.InsertCategory(context.Background(), child); err != nil {
		t.Fatal(err)
	}

	repo := NewCategoryRepository(db)
	found, err := repo.GetBySlug(context.Background(), "vector-stores")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Name != "Vector Stores" {
		t.Errorf("expected name 'Vector Stores', got '%s'", found.Name)
	}
	if found.ParentID == nil || *found.ParentID != parent.ID {
		t.Errorf("expected parent %s, got %v", parent.ID, found.ParentID)
	}

	// Test not found
	_, err = repo.GetBySlug(context.Background(), "basketball")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTagRepository_ListAndGet(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.tag("rare", 1)
	f.tag("common", 99)
	f.tag("also-rare", 1)

	repo := NewTagRepository(db)
	tags, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"common", "also-rare", "rare"}
	for i, tag := range tags {
		if tag.Slug != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], tag.Slug)
		}
	}

	found, err := repo.GetBySlug(context.Background(), "common")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.UsageCount != 99 {
		t.Errorf("expected usage count 99, got %d", found.UsageCount)
	}

	_, err = repo.GetBySlug(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
