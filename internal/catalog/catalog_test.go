package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/barterhub/timebank/internal/catalog"
	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
	"github.com/barterhub/timebank/pkg/repository/mock"
)

func TestCreateValidation(t *testing.T) {
	c := catalog.New(mock.NewStore())
	ctx := context.Background()

	tests := []struct {
		name string
		in   catalog.CreateInput
	}{
		{"missing title", catalog.CreateInput{Category: models.CategoryTech}},
		{"whitespace title", catalog.CreateInput{Title: "  ", Category: models.CategoryTech}},
		{"unknown category", catalog.CreateInput{Title: "x", Category: "plumbing"}},
		{"unknown skill level", catalog.CreateInput{Title: "x", Category: models.CategoryTech, SkillLevel: "guru"}},
		{"negative rate", catalog.CreateInput{Title: "x", Category: models.CategoryTech, HourlyRate: -5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Create(ctx, "owner", tc.in); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	c := catalog.New(mock.NewStore())
	s, err := c.Create(context.Background(), "owner", catalog.CreateInput{
		Title:      "  piano lessons ",
		Category:   models.CategoryCreative,
		HourlyRate: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("service must get an id")
	}
	if s.Title != "piano lessons" {
		t.Fatalf("title not trimmed: %q", s.Title)
	}
	if !s.Available {
		t.Fatalf("new services start available")
	}
	if s.SkillLevel != models.SkillBeginner {
		t.Fatalf("skill level should default to beginner, got %s", s.SkillLevel)
	}
}

func TestGetNotFound(t *testing.T) {
	c := catalog.New(mock.NewStore())
	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestListWithFilter(t *testing.T) {
	store := mock.NewStore()
	c := catalog.New(store)
	ctx := context.Background()

	for _, in := range []catalog.CreateInput{
		{Title: "contract review", Category: models.CategoryLegal, HourlyRate: 80},
		{Title: "tax help", Category: models.CategoryLegal, HourlyRate: 60},
		{Title: "meal prep", Category: models.CategoryFood, HourlyRate: 15},
	} {
		if _, err := c.Create(ctx, "owner", in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, total, err := c.List(ctx, repository.ServiceFilter{Category: models.CategoryLegal})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 legal services got total=%d len=%d", total, len(items))
	}

	items, total, err = c.List(ctx, repository.ServiceFilter{Category: models.CategoryFashion})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected empty result got %d", total)
	}
	if items == nil {
		t.Fatalf("empty result must be a slice, not nil")
	}
}

func TestSetAvailabilityOwnerOnly(t *testing.T) {
	store := mock.NewStore()
	c := catalog.New(store)
	ctx := context.Background()

	s, err := c.Create(ctx, "owner", catalog.CreateInput{Title: "x", Category: models.CategoryTech})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := c.SetAvailability(ctx, s.ID, "stranger", false); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}
	got, _ := store.GetService(ctx, s.ID)
	if !got.Available {
		t.Fatalf("unauthorized call must not mutate")
	}

	if err := c.SetAvailability(ctx, s.ID, "owner", false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	got, _ = store.GetService(ctx, s.ID)
	if got.Available {
		t.Fatalf("availability not updated")
	}

	if err := c.SetAvailability(ctx, "missing", "owner", true); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
