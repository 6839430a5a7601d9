package sqlite

import (
	"log/slog"
	"time"

	"github.com/barterhub/timebank/internal/db"
	"github.com/barterhub/timebank/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.ServiceRepo = (*SQLiteRepo)(nil)
var _ repository.TradeRepo = (*SQLiteRepo)(nil)
var _ repository.MessageRepo = (*SQLiteRepo)(nil)
var _ repository.OutboxRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}
