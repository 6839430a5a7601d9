package repository

import (
	"context"

	"github.com/barterhub/timebank/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// ServiceFilter narrows catalog listings. Zero values mean "any".
type ServiceFilter struct {
	Category      models.Category
	Location      string
	AvailableOnly bool
	Limit         int
	Offset        int
}

type ServiceRepo interface {
	CreateService(ctx context.Context, s *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context, f ServiceFilter) ([]models.Service, error)
	CountServices(ctx context.Context, f ServiceFilter) (int64, error)
	// ListCandidateServices returns available services owned by onboarded,
	// unblocked users other than excludeUser, newest first, with the owner
	// joined in.
	ListCandidateServices(ctx context.Context, excludeUser string) ([]models.Service, []models.User, error)
	SetServiceAvailability(ctx context.Context, id string, available bool) error
}

type TradeRepo interface {
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	ListTradesForUser(ctx context.Context, userID string) ([]models.Trade, error)
	// HasOpenTradeBetween reports whether a non-terminal trade already exists
	// between the two users.
	HasOpenTradeBetween(ctx context.Context, userA, userB string) (bool, error)

	// CreateTradePending inserts the trade and flips both services to
	// unavailable in a single transaction. Returns
	// models.ErrServiceUnavailable if either service is not available at
	// commit time; nothing is changed in that case.
	CreateTradePending(ctx context.Context, t *models.Trade) error
	// UpdateTradeStatus transitions status from expected current value;
	// returns models.ErrInvalidTransition if the stored status differs.
	// When the new status is "completed" it also sets the completed
	// timestamp and restores both services to available, atomically.
	UpdateTradeStatus(ctx context.Context, id string, from, to models.TradeStatus, disputeReason string, completedAt *int64) error
}

type MessageRepo interface {
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, tradeID string) ([]models.Message, error)
}

// OutboxRepo persists domain events for at-least-once delivery.
type OutboxRepo interface {
	EnqueueEvent(ctx context.Context, id, typ string, payload []byte) error
	FetchNextEvent(ctx context.Context) (*OutboxEvent, error)
	UpdateEvent(ctx context.Context, e *OutboxEvent) error
	MoveEventToDeadLetter(ctx context.Context, e *OutboxEvent) error
}

// OutboxEvent is one undelivered domain event row.
type OutboxEvent struct {
	ID          string
	Type        string
	Payload     []byte
	Status      string
	Attempts    int
	MaxAttempts int
	NextTryAt   *int64
	LastError   string
	Created     int64
	Updated     int64
}
