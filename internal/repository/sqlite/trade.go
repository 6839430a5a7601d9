package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/barterhub/timebank/pkg/models"
)

const tradeColumns = `id, proposer_id, provider_id, service_offered_id, service_requested_id, hours_offered, hours_requested, status, dispute_reason, created, completed`

func scanTrade(row interface{ Scan(...any) error }) (*models.Trade, error) {
	var t models.Trade
	var status string
	var completed sql.NullInt64
	if err := row.Scan(&t.ID, &t.ProposerID, &t.ProviderID, &t.ServiceOfferedID,
		&t.ServiceRequestedID, &t.HoursOffered, &t.HoursRequested, &status,
		&t.DisputeReason, &t.Created, &completed); err != nil {
		return nil, err
	}
	t.Status = models.TradeStatus(status)
	if completed.Valid {
		t.Completed = &completed.Int64
	}
	return &t, nil
}

func (r *SQLiteRepo) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	t, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	return t, nil
}

func (r *SQLiteRepo) ListTradesForUser(ctx context.Context, userID string) ([]models.Trade, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE proposer_id = ? OR provider_id = ? ORDER BY created DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) HasOpenTradeBetween(ctx context.Context, userA, userB string) (bool, error) {
	var count int
	row := r.conn.QueryRow(ctx,
		`SELECT COUNT(1) FROM trades
		 WHERE status IN ('pending', 'active')
		   AND ((proposer_id = ? AND provider_id = ?) OR (proposer_id = ? AND provider_id = ?))`,
		userA, userB, userB, userA)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateTradePending inserts the pending trade and marks both services
// unavailable in one transaction. Either everything commits or the
// availability flags stay untouched.
func (r *SQLiteRepo) CreateTradePending(ctx context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}

	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	defer tx.Rollback()

	for _, svcID := range []string{t.ServiceOfferedID, t.ServiceRequestedID} {
		var available bool
		if err := tx.QueryRowContext(ctx, `SELECT available FROM services WHERE id = ?`, svcID).Scan(&available); err != nil {
			if err == sql.ErrNoRows {
				return models.ErrNotFound
			}

			return err
		}
		if !available {
			return models.ErrServiceUnavailable
		}
		if _, err := tx.ExecContext(ctx, `UPDATE services SET available = 0, updated = ? WHERE id = ?`, now(), svcID); err != nil {
			return err
		}
	}

	t.Status = models.TradePending
	t.Created = now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trades (id, proposer_id, provider_id, service_offered_id, service_requested_id, hours_offered, hours_requested, status, dispute_reason, created, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?, NULL)`,
		t.ID, t.ProposerID, t.ProviderID, t.ServiceOfferedID, t.ServiceRequestedID,
		t.HoursOffered, t.HoursRequested, string(t.Status), t.Created); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateTradeStatus performs a guarded status transition. The stored status
// must equal `from` or models.ErrInvalidTransition is returned. Completing a
// trade restores both services to available in the same transaction.
func (r *SQLiteRepo) UpdateTradeStatus(ctx context.Context, id string, from, to models.TradeStatus, disputeReason string, completedAt *int64) error {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	defer tx.Rollback()

	var status, svcOffered, svcRequested string
	row := tx.QueryRowContext(ctx, `SELECT status, service_offered_id, service_requested_id FROM trades WHERE id = ?`, id)
	if err := row.Scan(&status, &svcOffered, &svcRequested); err != nil {
		if err == sql.ErrNoRows {
			return models.ErrNotFound
		}

		return err
	}
	if models.TradeStatus(status) != from {
		return models.ErrInvalidTransition
	}

	var completed any
	if completedAt != nil {
		completed = *completedAt
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE trades SET status = ?, dispute_reason = ?, completed = ? WHERE id = ?`,
		string(to), disputeReason, completed, id); err != nil {
		return err
	}

	if to == models.TradeCompleted {
		for _, svcID := range []string{svcOffered, svcRequested} {
			if _, err := tx.ExecContext(ctx, `UPDATE services SET available = 1, updated = ? WHERE id = ?`, now(), svcID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
