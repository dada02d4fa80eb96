package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

func makeTestTheme(id, name string) *domain.Theme {
	now := time.Now()
	return &domain.Theme{
		Record: domain.Record{ID: id, CreatedAt: now, UpdatedAt: now},
		Name:   name,
		CSS:    "body { color: #222; }",
	}
}

func TestCreateAndGetTheme(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	th := makeTestTheme("theme-1", "Midnight")
	if err := s.CreateTheme(ctx, th); err != nil {
		t.Fatalf("CreateTheme: %v", err)
	}

	got, err := s.GetTheme(ctx, "theme-1")
	if err != nil {
		t.Fatalf("GetTheme: %v", err)
	}
	if got.Name != "Midnight" || got.Active {
		t.Errorf("got %q active=%v", got.Name, got.Active)
	}
}

func TestCreateThemeDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTheme(ctx, makeTestTheme("theme-1", "Midnight")); err != nil {
		t.Fatalf("CreateTheme: %v", err)
	}

	err := s.CreateTheme(ctx, makeTestTheme("theme-2", "Midnight"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestActivateTheme(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, th := range []*domain.Theme{
		makeTestTheme("theme-1", "Midnight"),
		makeTestTheme("theme-2", "Daybreak"),
	} {
		if err := s.CreateTheme(ctx, th); err != nil {
			t.Fatalf("CreateTheme: %v", err)
		}
	}

	// No theme active initially.
	_, err := s.ActiveTheme(ctx)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.ActivateTheme(ctx, "theme-1"); err != nil {
		t.Fatalf("ActivateTheme: %v", err)
	}
	active, err := s.ActiveTheme(ctx)
	if err != nil {
		t.Fatalf("ActiveTheme: %v", err)
	}
	if active.ID != "theme-1" {
		t.Errorf("active: %q", active.ID)
	}

	// Switching flips exactly one on, one off.
	if err := s.ActivateTheme(ctx, "theme-2"); err != nil {
		t.Fatalf("ActivateTheme switch: %v", err)
	}
	active, err = s.ActiveTheme(ctx)
	if err != nil {
		t.Fatalf("ActiveTheme after switch: %v", err)
	}
	if active.ID != "theme-2" {
		t.Errorf("active: %q", active.ID)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM themes WHERE active = 1`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("active count: %d", count)
	}

	// Unknown theme leaves state untouched.
	if err := s.ActivateTheme(ctx, "theme-nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	active, err = s.ActiveTheme(ctx)
	if err != nil || active.ID != "theme-2" {
		t.Errorf("state changed by failed activation: %v, %v", active, err)
	}
}

func TestUpdateThemeKeepsActiveFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	th := makeTestTheme("theme-1", "Midnight")
	if err := s.CreateTheme(ctx, th); err != nil {
		t.Fatalf("CreateTheme: %v", err)
	}
	if err := s.ActivateTheme(ctx, "theme-1"); err != nil {
		t.Fatalf("ActivateTheme: %v", err)
	}

	th.CSS = "body { color: #eee; }"
	th.Touch()
	if err := s.UpdateTheme(ctx, th); err != nil {
		t.Fatalf("UpdateTheme: %v", err)
	}

	got, err := s.GetTheme(ctx, "theme-1")
	if err != nil {
		t.Fatalf("GetTheme: %v", err)
	}
	if !got.Active {
		t.Error("update cleared the active flag")
	}
	if got.CSS != "body { color: #eee; }" {
		t.Errorf("CSS: %q", got.CSS)
	}
}
