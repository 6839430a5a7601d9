// Package swipe tracks a single browsing session over ranked match
// candidates. Sessions are process-local and ephemeral: they live in memory
// only and are gone after a restart.
package swipe

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/barterhub/timebank/internal/events"
	"github.com/barterhub/timebank/internal/match"
	"github.com/barterhub/timebank/internal/trade"
	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

// State of a session. Ended is terminal.
type State string

const (
	StateBrowsing State = "browsing"
	StateEnded    State = "ended"
)

// Action is the decision taken on a candidate.
type Action string

const (
	ActionPass    Action = "pass"
	ActionPropose Action = "propose"
)

// Result reports the outcome of a pass/propose call.
type Result struct {
	Candidate      match.Candidate `json:"candidate"`
	Action         Action          `json:"action"`
	Trade          *models.Trade   `json:"trade,omitempty"`
	ProposalFailed bool            `json:"proposal_failed,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	Remaining      int             `json:"remaining"`
	State          State           `json:"state"`
}

// Manager owns the live sessions.
type Manager struct {
	finder  *match.Finder
	engine  *trade.Engine
	users   repository.UserRepo
	catalog repository.ServiceRepo
	emitter events.Emitter
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(finder *match.Finder, engine *trade.Engine, users repository.UserRepo, catalog repository.ServiceRepo, emitter events.Emitter, logger *slog.Logger) *Manager {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		finder:   finder,
		engine:   engine,
		users:    users,
		catalog:  catalog,
		emitter:  emitter,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start seeds a session for the user's own service with the finder's current
// ranking. A session over zero candidates begins already Ended.
func (m *Manager) Start(ctx context.Context, userID, serviceID string) (*Session, error) {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrNotFound
	}
	svc, err := m.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, models.ErrNotFound
	}
	if svc.UserID != userID {
		return nil, models.ErrUnauthorized
	}

	candidates, err := m.finder.FindCandidates(ctx, user, svc)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ServiceID: serviceID,
		mgr:       m,
		queue:     candidates,
		state:     StateBrowsing,
	}
	if len(candidates) == 0 {
		s.state = StateEnded
	} else {
		m.emitMatchFound(ctx, userID, candidates[0])
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) emitMatchFound(ctx context.Context, userID string, c match.Candidate) {
	m.emitter.Emit(ctx, events.Event{
		Type:      events.TypeMatchFound,
		UserID:    userID,
		ServiceID: c.Service.ID,
		Score:     c.Score,
	})
}

// Session is the per-browse state machine. All methods are safe for
// concurrent use; state is confined to this session.
type Session struct {
	ID        string
	UserID    string
	ServiceID string

	mgr *Manager

	mu    sync.Mutex
	queue []match.Candidate
	state State
	// single-slot undo: only the most recent decision can be taken back
	lastDecision *match.Candidate
}

// Current returns the candidate at the head of the queue.
func (s *Session) Current() (match.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return match.Candidate{}, models.ErrSessionEnded
	}
	return s.queue[0], nil
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pass rejects the current candidate and advances the cursor.
func (s *Session) Pass(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return Result{}, models.ErrSessionEnded
	}

	cand := s.advance(ctx)
	return Result{
		Candidate: cand,
		Action:    ActionPass,
		Remaining: len(s.queue),
		State:     s.state,
	}, nil
}

// Propose consumes the current candidate and asks the trade engine to open a
// trade with it. A create failure (for example the service went unavailable
// between query and proposal) does not end the session and does not restore
// the candidate: the cursor has already advanced and the result carries the
// failure.
func (s *Session) Propose(ctx context.Context, hoursOffered, hoursRequested int64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return Result{}, models.ErrSessionEnded
	}
	if hoursOffered <= 0 {
		hoursOffered = 1
	}
	if hoursRequested <= 0 {
		hoursRequested = 1
	}

	cand := s.advance(ctx)
	res := Result{
		Candidate: cand,
		Action:    ActionPropose,
		Remaining: len(s.queue),
		State:     s.state,
	}

	t, err := s.mgr.engine.Create(ctx, s.UserID, cand.User.ID, s.ServiceID, cand.Service.ID, hoursOffered, hoursRequested)
	if err != nil {
		// storage being down is the one failure the caller must see as such
		if errors.Is(err, models.ErrUnavailable) {
			return Result{}, err
		}
		s.mgr.logger.Info("proposal failed",
			slog.String("session", s.ID),
			slog.String("service", cand.Service.ID),
			slog.String("reason", err.Error()),
		)
		res.ProposalFailed = true
		res.FailureReason = err.Error()
		return res, nil
	}

	res.Trade = t
	return res, nil
}

// Undo restores the most recently decided candidate to the head of the
// queue. Only one level of undo exists: calling it again without an
// intervening decision reports ErrNothingToUndo.
func (s *Session) Undo() (match.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return match.Candidate{}, models.ErrSessionEnded
	}
	if s.lastDecision == nil {
		return match.Candidate{}, models.ErrNothingToUndo
	}

	cand := *s.lastDecision
	s.queue = append([]match.Candidate{cand}, s.queue...)
	s.lastDecision = nil
	return cand, nil
}

// advance pops the head candidate, records it in the undo slot, and ends the
// session when the queue is exhausted. Caller holds s.mu.
func (s *Session) advance(ctx context.Context) match.Candidate {
	cand := s.queue[0]
	s.queue = s.queue[1:]
	s.lastDecision = &cand
	if len(s.queue) == 0 {
		s.state = StateEnded
	} else {
		s.mgr.emitMatchFound(ctx, s.UserID, s.queue[0])
	}
	return cand
}
