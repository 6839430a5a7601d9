// Package catalog holds the set of offerable services and enforces
// owner-only mutation. Reads always hit the repository so availability is
// never served stale past one query cycle.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

type Catalog struct {
	services repository.ServiceRepo
}

func New(services repository.ServiceRepo) *Catalog {
	return &Catalog{services: services}
}

// CreateInput carries the owner-supplied service fields.
type CreateInput struct {
	Title       string
	Description string
	Category    models.Category
	HourlyRate  float64
	SkillLevel  models.SkillLevel
}

func (c *Catalog) Create(ctx context.Context, ownerID string, in CreateInput) (*models.Service, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !models.ValidCategory(in.Category) {
		return nil, fmt.Errorf("unknown category %q", in.Category)
	}
	if in.SkillLevel == "" {
		in.SkillLevel = models.SkillBeginner
	}
	if !models.ValidSkillLevel(in.SkillLevel) {
		return nil, fmt.Errorf("unknown skill level %q", in.SkillLevel)
	}
	if in.HourlyRate < 0 {
		return nil, fmt.Errorf("hourly rate cannot be negative")
	}

	s := &models.Service{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		HourlyRate:  in.HourlyRate,
		Available:   true,
		SkillLevel:  in.SkillLevel,
	}
	if err := c.services.CreateService(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.Service, error) {
	s, err := c.services.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, models.ErrNotFound
	}
	return s, nil
}

// List returns the filtered services and the total matching count.
func (c *Catalog) List(ctx context.Context, f repository.ServiceFilter) ([]models.Service, int64, error) {
	items, err := c.services.ListServices(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := c.services.CountServices(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []models.Service{}
	}
	return items, total, nil
}

// SetAvailability toggles a service's availability. Only the owning user may
// mutate; anyone else gets models.ErrUnauthorized.
func (c *Catalog) SetAvailability(ctx context.Context, id, callerID string, available bool) error {
	s, err := c.services.GetService(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return models.ErrNotFound
	}
	if s.UserID != callerID {
		return models.ErrUnauthorized
	}
	return c.services.SetServiceAvailability(ctx, id, available)
}
