package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/barterhub/timebank/pkg/repository"
)

func (r *SQLiteRepo) EnqueueEvent(ctx context.Context, id, typ string, payload []byte) error {
	ts := now()
	_, err := r.conn.Exec(ctx,
		`INSERT INTO outbox (id, type, payload, status, attempts, max_attempts, created, updated)
		 VALUES (?, ?, ?, 'queued', 0, 5, ?, ?)`,
		id, typ, string(payload), ts, ts)
	if err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

// FetchNextEvent returns the oldest deliverable event, or nil when the outbox
// is drained. Delivery order follows insertion order so consumers observe
// transitions in commit order.
func (r *SQLiteRepo) FetchNextEvent(ctx context.Context) (*repository.OutboxEvent, error) {
	q := `SELECT id, type, payload, status, attempts, max_attempts, next_try_at, last_error, created, updated
	      FROM outbox
	      WHERE (status = 'queued' OR status = 'retry') AND (next_try_at IS NULL OR next_try_at <= ?)
	      ORDER BY created ASC, id ASC LIMIT 1`
	row := r.conn.QueryRow(ctx, q, now())

	var e repository.OutboxEvent
	var payload string
	var nextTry sql.NullInt64
	var lastErr sql.NullString
	if err := row.Scan(&e.ID, &e.Type, &payload, &e.Status, &e.Attempts, &e.MaxAttempts, &nextTry, &lastErr, &e.Created, &e.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("fetch next event: %w", err)
	}
	e.Payload = []byte(payload)
	if nextTry.Valid {
		e.NextTryAt = &nextTry.Int64
	}
	if lastErr.Valid {
		e.LastError = lastErr.String
	}
	return &e, nil
}

func (r *SQLiteRepo) UpdateEvent(ctx context.Context, e *repository.OutboxEvent) error {
	var nextTry any
	if e.NextTryAt != nil {
		nextTry = *e.NextTryAt
	}
	_, err := r.conn.Exec(ctx,
		`UPDATE outbox SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`,
		e.Status, e.Attempts, nextTry, e.LastError, now(), e.ID)
	return err
}

// MoveEventToDeadLetter copies the event into outbox_dead and removes the
// original, in one transaction.
func (r *SQLiteRepo) MoveEventToDeadLetter(ctx context.Context, e *repository.OutboxEvent) error {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_dead (id, type, payload, attempts, last_error, created, failed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, string(e.Payload), e.Attempts, e.LastError, e.Created, now()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, e.ID); err != nil {
		return err
	}

	return tx.Commit()
}
