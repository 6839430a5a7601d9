// Package match ranks counter-party services for a user's service. Queries
// are stateless and side-effect free: every call recomputes from the current
// catalog, so results never outlive one query cycle.
package match

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

// Weights tune the compatibility score terms. They should sum to roughly 1
// but the ranking only depends on relative magnitude.
type Weights struct {
	Category float64 `yaml:"category"`
	Location float64 `yaml:"location"`
	Rate     float64 `yaml:"rate"`
	Trust    float64 `yaml:"trust"`
}

// DefaultWeights are used when config leaves the weights zeroed.
func DefaultWeights() Weights {
	return Weights{Category: 0.35, Location: 0.25, Rate: 0.2, Trust: 0.2}
}

func (w Weights) zero() bool {
	return w.Category == 0 && w.Location == 0 && w.Rate == 0 && w.Trust == 0
}

// pairedCategories marks category pairs that barter well together even when
// not identical.
var pairedCategories = map[models.Category]models.Category{
	models.CategoryLegal:        models.CategoryProfessional,
	models.CategoryProfessional: models.CategoryLegal,
	models.CategoryTech:         models.CategoryCreative,
	models.CategoryCreative:     models.CategoryTech,
	models.CategoryFashion:      models.CategoryCreative,
	models.CategoryFood:         models.CategoryProfessional,
}

// Candidate is one ranked counter-party offer.
type Candidate struct {
	User    models.User    `json:"user"`
	Service models.Service `json:"service"`
	Score   float64        `json:"score"`
}

type Finder struct {
	services repository.ServiceRepo
	trades   repository.TradeRepo
	weights  Weights
}

func NewFinder(services repository.ServiceRepo, trades repository.TradeRepo, w Weights) *Finder {
	if w.zero() {
		w = DefaultWeights()
	}
	return &Finder{services: services, trades: trades, weights: w}
}

// FindCandidates returns every eligible counter-party service ranked by
// score. An empty catalog yields an empty slice, not an error.
func (f *Finder) FindCandidates(ctx context.Context, forUser *models.User, forService *models.Service) ([]Candidate, error) {
	services, owners, err := f.services.ListCandidateServices(ctx, forUser.ID)
	if err != nil {
		return nil, err
	}

	// one open-trade lookup per counter-party, not per service
	openPair := make(map[string]bool)

	out := make([]Candidate, 0, len(services))
	for i := range services {
		svc := services[i]
		owner := owners[i]

		open, seen := openPair[owner.ID]
		if !seen {
			open, err = f.trades.HasOpenTradeBetween(ctx, forUser.ID, owner.ID)
			if err != nil {
				return nil, err
			}
			openPair[owner.ID] = open
		}
		if open {
			continue
		}

		out = append(out, Candidate{
			User:    owner,
			Service: svc,
			Score:   f.score(forUser, forService, &owner, &svc),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].User.TrustScore != out[j].User.TrustScore {
			return out[i].User.TrustScore > out[j].User.TrustScore
		}
		return out[i].Service.Created > out[j].Service.Created
	})

	return out, nil
}

func (f *Finder) score(user *models.User, svc *models.Service, owner *models.User, offer *models.Service) float64 {
	return f.weights.Category*categoryScore(svc.Category, offer.Category) +
		f.weights.Location*locationScore(user.Location, owner.Location) +
		f.weights.Rate*rateScore(svc.HourlyRate, offer.HourlyRate) +
		f.weights.Trust*float64(owner.TrustScore)/100
}

func categoryScore(a, b models.Category) float64 {
	switch {
	case a == b:
		return 1.0
	case pairedCategories[a] == b:
		return 0.75
	default:
		return 0.25
	}
}

// locationScore compares locations of the form "City, Region". Exact match
// scores highest, matching region half, anything else zero.
func locationScore(a, b string) float64 {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if region(a) != "" && region(a) == region(b) {
		return 0.5
	}
	return 0
}

func region(loc string) string {
	idx := strings.LastIndex(loc, ",")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(loc[idx+1:])
}

func rateScore(a, b float64) float64 {
	return 1 / (1 + math.Abs(a-b))
}
