package match_test

import (
	"context"
	"testing"

	"github.com/barterhub/timebank/internal/match"
	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository/mock"
)

func addUser(t *testing.T, store *mock.Store, id string, category models.Category, location string, trust int) *models.User {
	t.Helper()
	u := &models.User{
		ID:         id,
		Email:      id + "@example.com",
		Category:   category,
		Location:   location,
		TrustScore: trust,
		Onboarded:  true,
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func addService(t *testing.T, store *mock.Store, id, owner string, category models.Category, rate float64) *models.Service {
	t.Helper()
	s := &models.Service{
		ID:         id,
		UserID:     owner,
		Title:      id,
		Category:   category,
		HourlyRate: rate,
		Available:  true,
	}
	if err := store.CreateService(context.Background(), s); err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	return s
}

func TestFindCandidatesEmptyCatalog(t *testing.T) {
	store := mock.NewStore()
	me := addUser(t, store, "me", models.CategoryTech, "Lisbon, PT", 80)
	mine := addService(t, store, "mine", "me", models.CategoryTech, 20)

	finder := match.NewFinder(store, store, match.Weights{})
	got, err := finder.FindCandidates(context.Background(), me, mine)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if got == nil {
		t.Fatalf("empty catalog must yield an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates got %d", len(got))
	}
}

func TestFindCandidatesExclusions(t *testing.T) {
	store := mock.NewStore()
	ctx := context.Background()

	me := addUser(t, store, "me", models.CategoryTech, "Lisbon, PT", 80)
	mine := addService(t, store, "mine", "me", models.CategoryTech, 20)
	addService(t, store, "mine2", "me", models.CategoryFood, 10)

	addUser(t, store, "ok", models.CategoryCreative, "Lisbon, PT", 60)
	addService(t, store, "svc-ok", "ok", models.CategoryCreative, 20)

	blocked := addUser(t, store, "blocked", models.CategoryTech, "Lisbon, PT", 90)
	blocked.Blocked = true
	if err := store.UpdateUser(ctx, blocked); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	addService(t, store, "svc-blocked", "blocked", models.CategoryTech, 20)

	fresh := addUser(t, store, "fresh", models.CategoryTech, "Lisbon, PT", 90)
	fresh.Onboarded = false
	if err := store.UpdateUser(ctx, fresh); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	addService(t, store, "svc-fresh", "fresh", models.CategoryTech, 20)

	addUser(t, store, "off", models.CategoryTech, "Lisbon, PT", 90)
	svcOff := addService(t, store, "svc-off", "off", models.CategoryTech, 20)
	if err := store.SetServiceAvailability(ctx, svcOff.ID, false); err != nil {
		t.Fatalf("SetServiceAvailability: %v", err)
	}

	// an open trade hides the counter-party entirely
	addUser(t, store, "busy", models.CategoryTech, "Lisbon, PT", 90)
	addService(t, store, "svc-busy", "busy", models.CategoryTech, 20)
	tr := &models.Trade{
		ID: "t1", ProposerID: "me", ProviderID: "busy",
		ServiceOfferedID: "mine2", ServiceRequestedID: "svc-busy",
		HoursOffered: 1, HoursRequested: 1, Status: models.TradePending,
	}
	store.Trades[tr.ID] = tr

	finder := match.NewFinder(store, store, match.Weights{})
	got, err := finder.FindCandidates(ctx, me, mine)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 || got[0].Service.ID != "svc-ok" {
		ids := make([]string, 0, len(got))
		for _, c := range got {
			ids = append(ids, c.Service.ID)
		}
		t.Fatalf("expected only svc-ok, got %v", ids)
	}
	if got[0].Score <= 0 {
		t.Fatalf("candidate score must be positive")
	}
}

func TestFindCandidatesRanking(t *testing.T) {
	store := mock.NewStore()
	ctx := context.Background()

	me := addUser(t, store, "me", models.CategoryTech, "Lisbon, PT", 80)
	mine := addService(t, store, "mine", "me", models.CategoryTech, 20)

	// exact category + exact location + equal rate beats everything
	addUser(t, store, "best", models.CategoryTech, "Lisbon, PT", 70)
	addService(t, store, "svc-best", "best", models.CategoryTech, 20)

	// paired category (tech↔creative), same region only
	addUser(t, store, "mid", models.CategoryCreative, "Porto, PT", 70)
	addService(t, store, "svc-mid", "mid", models.CategoryCreative, 20)

	// unrelated category, far away, rate gap
	addUser(t, store, "worst", models.CategoryFood, "Berlin, DE", 70)
	addService(t, store, "svc-worst", "worst", models.CategoryFood, 60)

	finder := match.NewFinder(store, store, match.Weights{})
	got, err := finder.FindCandidates(ctx, me, mine)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates got %d", len(got))
	}
	if got[0].Service.ID != "svc-best" || got[1].Service.ID != "svc-mid" || got[2].Service.ID != "svc-worst" {
		t.Fatalf("ranking wrong: %s %s %s", got[0].Service.ID, got[1].Service.ID, got[2].Service.ID)
	}
	if !(got[0].Score > got[1].Score && got[1].Score > got[2].Score) {
		t.Fatalf("scores not strictly decreasing: %v %v %v", got[0].Score, got[1].Score, got[2].Score)
	}
}

func TestFindCandidatesTrustTieBreak(t *testing.T) {
	store := mock.NewStore()
	ctx := context.Background()

	me := addUser(t, store, "me", models.CategoryTech, "Lisbon, PT", 80)
	mine := addService(t, store, "mine", "me", models.CategoryTech, 20)

	// identical offers except owner trust; trust contributes to the score, so
	// zero its weight and break the tie on the owner's raw trust score
	addUser(t, store, "low", models.CategoryTech, "Lisbon, PT", 40)
	addService(t, store, "svc-low", "low", models.CategoryTech, 20)
	addUser(t, store, "high", models.CategoryTech, "Lisbon, PT", 95)
	addService(t, store, "svc-high", "high", models.CategoryTech, 20)

	finder := match.NewFinder(store, store, match.Weights{Category: 0.5, Location: 0.3, Rate: 0.2})
	got, err := finder.FindCandidates(ctx, me, mine)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates got %d", len(got))
	}
	if got[0].User.ID != "high" {
		t.Fatalf("trust tie-break wrong, got %s first", got[0].User.ID)
	}
}

func TestDefaultWeightsWhenZeroed(t *testing.T) {
	store := mock.NewStore()
	me := addUser(t, store, "me", models.CategoryTech, "Lisbon, PT", 80)
	mine := addService(t, store, "mine", "me", models.CategoryTech, 20)
	addUser(t, store, "other", models.CategoryTech, "Lisbon, PT", 100)
	addService(t, store, "svc-other", "other", models.CategoryTech, 20)

	finder := match.NewFinder(store, store, match.Weights{})
	got, err := finder.FindCandidates(context.Background(), me, mine)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	// with default weights a perfect match scores 1.0
	if len(got) != 1 || got[0].Score != 1.0 {
		t.Fatalf("expected perfect score 1.0, got %#v", got)
	}
}
