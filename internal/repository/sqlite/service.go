package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

const serviceColumns = `id, user_id, title, description, category, hourly_rate, available, skill_level, created, updated`

func scanService(row interface{ Scan(...any) error }) (*models.Service, error) {
	var s models.Service
	var category, skill string
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &category,
		&s.HourlyRate, &s.Available, &skill, &s.Created, &s.Updated); err != nil {
		return nil, err
	}
	s.Category = models.Category(category)
	s.SkillLevel = models.SkillLevel(skill)
	return &s, nil
}

func (r *SQLiteRepo) CreateService(ctx context.Context, s *models.Service) error {
	if s == nil {
		return fmt.Errorf("service is nil")
	}

	ts := now()
	s.Created = ts
	s.Updated = ts
	_, err := r.conn.Exec(ctx,
		`INSERT INTO services (id, user_id, title, description, category, hourly_rate, available, skill_level, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Title, s.Description, string(s.Category), s.HourlyRate,
		s.Available, string(s.SkillLevel), s.Created, s.Updated)
	return err
}

func (r *SQLiteRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	s, err := scanService(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	return s, nil
}

func serviceFilterClause(f repository.ServiceFilter) (string, []any) {
	where := ` WHERE 1=1`
	var args []any
	if f.Category != "" {
		where += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	if f.Location != "" {
		where += ` AND user_id IN (SELECT id FROM users WHERE location = ?)`
		args = append(args, f.Location)
	}
	if f.AvailableOnly {
		where += ` AND available = 1`
	}
	return where, args
}

func (r *SQLiteRepo) ListServices(ctx context.Context, f repository.ServiceFilter) ([]models.Service, error) {
	where, args := serviceFilterClause(f)
	q := `SELECT ` + serviceColumns + ` FROM services` + where + ` ORDER BY created DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountServices(ctx context.Context, f repository.ServiceFilter) (int64, error) {
	where, args := serviceFilterClause(f)
	var total int64
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM services`+where, args...)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *SQLiteRepo) ListCandidateServices(ctx context.Context, excludeUser string) ([]models.Service, []models.User, error) {
	q := `SELECT s.id, s.user_id, s.title, s.description, s.category, s.hourly_rate, s.available, s.skill_level, s.created, s.updated,
	             u.id, u.name, u.email, u.password_hash, u.category, u.location, u.trust_score, u.phone_verified, u.email_verified, u.registered, u.onboarded, u.blocked, u.created, u.updated
	      FROM services s
	      JOIN users u ON u.id = s.user_id
	      WHERE s.available = 1 AND s.user_id != ? AND u.blocked = 0 AND u.onboarded = 1
	      ORDER BY s.created DESC`

	rows, err := r.conn.QueryRows(ctx, q, excludeUser)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var services []models.Service
	var owners []models.User
	for rows.Next() {
		var s models.Service
		var u models.User
		var sCat, skill, uCat string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &sCat,
			&s.HourlyRate, &s.Available, &skill, &s.Created, &s.Updated,
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &uCat, &u.Location,
			&u.TrustScore, &u.PhoneVerified, &u.EmailVerified, &u.Registered,
			&u.Onboarded, &u.Blocked, &u.Created, &u.Updated); err != nil {
			return nil, nil, err
		}
		s.Category = models.Category(sCat)
		s.SkillLevel = models.SkillLevel(skill)
		u.Category = models.Category(uCat)
		services = append(services, s)
		owners = append(owners, u)
	}
	return services, owners, rows.Err()
}

// SetServiceAvailability flips the availability flag. Re-enabling is refused
// while a non-terminal trade references the service: the open trade owns the
// flag until it reaches a terminal state, so a service can never anchor two
// live trades. Check and flip share one transaction.
func (r *SQLiteRepo) SetServiceAvailability(ctx context.Context, id string, available bool) error {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	defer tx.Rollback()

	if available {
		var held int
		row := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM trades
			 WHERE status IN ('pending', 'active')
			   AND (service_offered_id = ? OR service_requested_id = ?)`,
			id, id)
		if err := row.Scan(&held); err != nil {
			return err
		}
		if held > 0 {
			return models.ErrServiceInTrade
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE services SET available = ?, updated = ? WHERE id = ?`, available, now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}

	return tx.Commit()
}
