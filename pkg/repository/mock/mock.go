// Package mock provides an in-memory repository implementation for tests.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

// Store implements every repository interface in memory. Error fields let a
// test inject failures per operation.
type Store struct {
	mu       sync.Mutex
	Users    map[string]*models.User
	Services map[string]*models.Service
	Trades   map[string]*models.Trade
	Messages map[string][]models.Message
	Outbox   []*repository.OutboxEvent

	CreateTradeErr error
	UpdateTradeErr error
	FetchEventErr  error
	DeliverDead    []*repository.OutboxEvent
}

var _ repository.UserRepo = (*Store)(nil)
var _ repository.ServiceRepo = (*Store)(nil)
var _ repository.TradeRepo = (*Store)(nil)
var _ repository.MessageRepo = (*Store)(nil)
var _ repository.OutboxRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Users:    make(map[string]*models.User),
		Services: make(map[string]*models.Service),
		Trades:   make(map[string]*models.Trade),
		Messages: make(map[string][]models.Message),
	}
}

func now() int64 { return time.Now().UTC().UnixMilli() }

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.Users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.Users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.Users[u.ID] = &cp
	return nil
}

func (s *Store) CreateService(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.Created == 0 {
		svc.Created = now()
	}
	cp := *svc
	s.Services[svc.ID] = &cp
	return nil
}

func (s *Store) GetService(_ context.Context, id string) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.Services[id]; ok {
		cp := *svc
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ListServices(_ context.Context, f repository.ServiceFilter) ([]models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Service
	for _, svc := range s.Services {
		if f.Category != "" && svc.Category != f.Category {
			continue
		}
		if f.AvailableOnly && !svc.Available {
			continue
		}
		out = append(out, *svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	return out, nil
}

func (s *Store) CountServices(ctx context.Context, f repository.ServiceFilter) (int64, error) {
	items, err := s.ListServices(ctx, f)
	return int64(len(items)), err
}

func (s *Store) ListCandidateServices(_ context.Context, excludeUser string) ([]models.Service, []models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var services []models.Service
	var owners []models.User
	for _, svc := range s.Services {
		if !svc.Available || svc.UserID == excludeUser {
			continue
		}
		owner, ok := s.Users[svc.UserID]
		if !ok || owner.Blocked || !owner.Onboarded {
			continue
		}
		services = append(services, *svc)
		owners = append(owners, *owner)
	}
	// newest first, mirroring the sqlite query
	idx := make([]int, len(services))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return services[idx[a]].Created > services[idx[b]].Created })
	outS := make([]models.Service, len(idx))
	outU := make([]models.User, len(idx))
	for i, j := range idx {
		outS[i], outU[i] = services[j], owners[j]
	}
	return outS, outU, nil
}

func (s *Store) SetServiceAvailability(_ context.Context, id string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.Services[id]
	if !ok {
		return models.ErrNotFound
	}
	if available {
		for _, t := range s.Trades {
			if t.Status.Terminal() {
				continue
			}
			if t.ServiceOfferedID == id || t.ServiceRequestedID == id {
				return models.ErrServiceInTrade
			}
		}
	}
	svc.Available = available
	return nil
}

func (s *Store) GetTrade(_ context.Context, id string) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.Trades[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ListTradesForUser(_ context.Context, userID string) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Trade
	for _, t := range s.Trades {
		if t.ProposerID == userID || t.ProviderID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	return out, nil
}

func (s *Store) HasOpenTradeBetween(_ context.Context, userA, userB string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Trades {
		if t.Status.Terminal() {
			continue
		}
		if (t.ProposerID == userA && t.ProviderID == userB) || (t.ProposerID == userB && t.ProviderID == userA) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateTradePending(_ context.Context, t *models.Trade) error {
	if s.CreateTradeErr != nil {
		return s.CreateTradeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	offered, ok := s.Services[t.ServiceOfferedID]
	if !ok {
		return models.ErrNotFound
	}
	requested, ok := s.Services[t.ServiceRequestedID]
	if !ok {
		return models.ErrNotFound
	}
	if !offered.Available || !requested.Available {
		return models.ErrServiceUnavailable
	}
	offered.Available = false
	requested.Available = false

	t.Status = models.TradePending
	t.Created = now()
	cp := *t
	s.Trades[t.ID] = &cp
	return nil
}

func (s *Store) UpdateTradeStatus(_ context.Context, id string, from, to models.TradeStatus, disputeReason string, completedAt *int64) error {
	if s.UpdateTradeErr != nil {
		return s.UpdateTradeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Trades[id]
	if !ok {
		return models.ErrNotFound
	}
	if t.Status != from {
		return models.ErrInvalidTransition
	}
	t.Status = to
	t.DisputeReason = disputeReason
	t.Completed = completedAt
	if to == models.TradeCompleted {
		if svc, ok := s.Services[t.ServiceOfferedID]; ok {
			svc.Available = true
		}
		if svc, ok := s.Services[t.ServiceRequestedID]; ok {
			svc.Available = true
		}
	}
	return nil
}

func (s *Store) AppendMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Created = now()
	s.Messages[m.TradeID] = append(s.Messages[m.TradeID], *m)
	return nil
}

func (s *Store) ListMessages(_ context.Context, tradeID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.Messages[tradeID]))
	copy(out, s.Messages[tradeID])
	return out, nil
}

func (s *Store) EnqueueEvent(_ context.Context, id, typ string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outbox = append(s.Outbox, &repository.OutboxEvent{
		ID:          id,
		Type:        typ,
		Payload:     payload,
		Status:      "queued",
		MaxAttempts: 5,
		Created:     now(),
	})
	return nil
}

func (s *Store) FetchNextEvent(_ context.Context) (*repository.OutboxEvent, error) {
	if s.FetchEventErr != nil {
		return nil, s.FetchEventErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ts := now()
	for _, e := range s.Outbox {
		if e.Status != "queued" && e.Status != "retry" {
			continue
		}
		if e.NextTryAt != nil && *e.NextTryAt > ts {
			continue
		}
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) UpdateEvent(_ context.Context, e *repository.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.Outbox {
		if row.ID == e.ID {
			cp := *e
			s.Outbox[i] = &cp
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *Store) MoveEventToDeadLetter(_ context.Context, e *repository.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.Outbox {
		if row.ID == e.ID {
			s.Outbox = append(s.Outbox[:i], s.Outbox[i+1:]...)
			break
		}
	}
	cp := *e
	s.DeliverDead = append(s.DeliverDead, &cp)
	return nil
}

// SeedEvent plants an outbox row directly, bypassing EnqueueEvent defaults.
func (s *Store) SeedEvent(e *repository.OutboxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.Outbox = append(s.Outbox, &cp)
}

// DeadLetters returns a snapshot of the dead-letter queue.
func (s *Store) DeadLetters() []*repository.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*repository.OutboxEvent, len(s.DeliverDead))
	copy(out, s.DeliverDead)
	return out
}
