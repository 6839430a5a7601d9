package sqlite

import (
	"context"
	"fmt"

	"github.com/barterhub/timebank/pkg/models"
)

func (r *SQLiteRepo) AppendMessage(ctx context.Context, m *models.Message) error {
	if m == nil {
		return fmt.Errorf("message is nil")
	}

	m.Created = now()
	_, err := r.conn.Exec(ctx,
		`INSERT INTO messages (id, trade_id, sender_id, text, created) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.TradeID, m.SenderID, m.Text, m.Created)
	return err
}

// ListMessages returns the trade's messages in append order. The created
// timestamp has millisecond resolution and ids are random, so ordering rides
// on rowid: messages are never deleted, which keeps rowid monotonic.
func (r *SQLiteRepo) ListMessages(ctx context.Context, tradeID string) ([]models.Message, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, trade_id, sender_id, text, created FROM messages WHERE trade_id = ? ORDER BY rowid ASC`,
		tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.TradeID, &m.SenderID, &m.Text, &m.Created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
