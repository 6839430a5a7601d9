// Package trade implements the negotiation state machine:
// pending → active → completed, with pending|active → disputed. Terminal
// trades never transition again. Mutations are serialized per trade and the
// service-availability side effects commit atomically with the status change.
package trade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barterhub/timebank/internal/events"
	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

type Engine struct {
	services repository.ServiceRepo
	trades   repository.TradeRepo
	messages repository.MessageRepo
	emitter  events.Emitter
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(services repository.ServiceRepo, trades repository.TradeRepo, messages repository.MessageRepo, emitter events.Emitter, logger *slog.Logger) *Engine {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		services: services,
		trades:   trades,
		messages: messages,
		emitter:  emitter,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock returns the mutex serializing mutations for one trade. Entries are
// never released, so the map holds one mutex per trade id mutated during the
// process lifetime; trades are terminal-bounded and a mutex is tiny, so the
// map stays proportional to the trades table itself.
func (e *Engine) lock(tradeID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[tradeID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[tradeID] = l
	}
	return l
}

// Create validates and opens a pending trade, marking both services
// unavailable in the same transaction that inserts the trade. On any
// validation failure nothing is changed.
func (e *Engine) Create(ctx context.Context, proposerID, providerID, serviceOfferedID, serviceRequestedID string, hoursOffered, hoursRequested int64) (*models.Trade, error) {
	if hoursOffered <= 0 || hoursRequested <= 0 {
		return nil, models.ErrInvalidHours
	}
	if proposerID == providerID {
		return nil, models.ErrSelfTrade
	}

	offered, err := e.services.GetService(ctx, serviceOfferedID)
	if err != nil {
		return nil, err
	}
	requested, err := e.services.GetService(ctx, serviceRequestedID)
	if err != nil {
		return nil, err
	}
	if offered == nil || requested == nil {
		return nil, models.ErrNotFound
	}
	if offered.UserID != proposerID || requested.UserID != providerID {
		return nil, models.ErrUnauthorized
	}
	if !offered.Available || !requested.Available {
		return nil, models.ErrServiceUnavailable
	}

	t := &models.Trade{
		ID:                 uuid.New().String(),
		ProposerID:         proposerID,
		ProviderID:         providerID,
		ServiceOfferedID:   serviceOfferedID,
		ServiceRequestedID: serviceRequestedID,
		HoursOffered:       hoursOffered,
		HoursRequested:     hoursRequested,
	}
	// availability is re-checked inside the transaction; a concurrent create
	// racing on the same service loses here
	if err := e.trades.CreateTradePending(ctx, t); err != nil {
		return nil, err
	}

	e.emitter.Emit(ctx, events.Event{
		Type:    events.TypeTradeCreated,
		TradeID: t.ID,
		UserID:  proposerID,
	})
	return t, nil
}

// Accept moves a pending trade to active. Only the provider may accept.
func (e *Engine) Accept(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	l := e.lock(tradeID)
	l.Lock()
	defer l.Unlock()

	t, err := e.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if callerID != t.ProviderID {
		return nil, models.ErrUnauthorized
	}
	if t.Status != models.TradePending {
		return nil, models.ErrInvalidTransition
	}

	if err := e.trades.UpdateTradeStatus(ctx, tradeID, models.TradePending, models.TradeActive, "", nil); err != nil {
		return nil, err
	}

	t.Status = models.TradeActive
	e.emitStatusChanged(ctx, t, models.TradePending, models.TradeActive, callerID)
	return t, nil
}

// Complete moves an active trade to completed, stamps the completion time,
// and restores both services to available atomically. Either party may
// complete.
func (e *Engine) Complete(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	l := e.lock(tradeID)
	l.Lock()
	defer l.Unlock()

	t, err := e.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.Participant(callerID) {
		return nil, models.ErrUnauthorized
	}
	if t.Status != models.TradeActive {
		return nil, models.ErrInvalidTransition
	}

	completedAt := time.Now().UTC().UnixMilli()
	if err := e.trades.UpdateTradeStatus(ctx, tradeID, models.TradeActive, models.TradeCompleted, "", &completedAt); err != nil {
		return nil, err
	}

	t.Status = models.TradeCompleted
	t.Completed = &completedAt
	e.emitStatusChanged(ctx, t, models.TradeActive, models.TradeCompleted, callerID)
	return t, nil
}

// Dispute moves a pending or active trade to disputed and records the
// reason. Either party may dispute.
func (e *Engine) Dispute(ctx context.Context, tradeID, callerID, reason string) (*models.Trade, error) {
	l := e.lock(tradeID)
	l.Lock()
	defer l.Unlock()

	t, err := e.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.Participant(callerID) {
		return nil, models.ErrUnauthorized
	}
	if t.Status != models.TradePending && t.Status != models.TradeActive {
		return nil, models.ErrInvalidTransition
	}

	from := t.Status
	if err := e.trades.UpdateTradeStatus(ctx, tradeID, from, models.TradeDisputed, reason, nil); err != nil {
		return nil, err
	}

	t.Status = models.TradeDisputed
	t.DisputeReason = reason
	e.emitStatusChanged(ctx, t, from, models.TradeDisputed, callerID)
	return t, nil
}

// AddMessage appends to the trade's message sequence with a server-observed
// timestamp. Only participants may write; terminal trades are closed.
func (e *Engine) AddMessage(ctx context.Context, tradeID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}

	l := e.lock(tradeID)
	l.Lock()
	defer l.Unlock()

	t, err := e.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.Participant(senderID) {
		return nil, models.ErrUnauthorized
	}
	if t.Status.Terminal() {
		return nil, models.ErrTradeClosed
	}

	m := &models.Message{
		ID:       uuid.New().String(),
		TradeID:  tradeID,
		SenderID: senderID,
		Text:     text,
	}
	if err := e.messages.AppendMessage(ctx, m); err != nil {
		return nil, err
	}

	e.emitter.Emit(ctx, events.Event{
		Type:      events.TypeMessageAdded,
		TradeID:   tradeID,
		UserID:    senderID,
		MessageID: m.ID,
	})
	return m, nil
}

// Get returns the latest committed trade snapshot. Lock-free.
func (e *Engine) Get(ctx context.Context, tradeID string) (*models.Trade, error) {
	return e.loadTrade(ctx, tradeID)
}

// ListForUser returns every trade the user participates in, newest first.
func (e *Engine) ListForUser(ctx context.Context, userID string) ([]models.Trade, error) {
	ts, err := e.trades.ListTradesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = []models.Trade{}
	}
	return ts, nil
}

// Messages returns the trade's append-only message sequence in order.
func (e *Engine) Messages(ctx context.Context, tradeID, callerID string) ([]models.Message, error) {
	t, err := e.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.Participant(callerID) {
		return nil, models.ErrUnauthorized
	}
	ms, err := e.messages.ListMessages(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		ms = []models.Message{}
	}
	return ms, nil
}

func (e *Engine) loadTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	t, err := e.trades.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, models.ErrNotFound
	}
	return t, nil
}

func (e *Engine) emitStatusChanged(ctx context.Context, t *models.Trade, from, to models.TradeStatus, byUser string) {
	e.emitter.Emit(ctx, events.Event{
		Type:    events.TypeTradeStatusChanged,
		TradeID: t.ID,
		UserID:  byUser,
		From:    from,
		To:      to,
	})
}

// Progress reports percent complete for display. Completed trades are 100;
// anything else uses the half-of-requested-hours placeholder until real
// milestone tracking exists.
func Progress(t *models.Trade) int {
	if t.Status == models.TradeCompleted {
		return 100
	}
	if t.HoursRequested <= 0 {
		return 0
	}
	done := t.HoursRequested / 2
	return int(done * 100 / t.HoursRequested)
}
