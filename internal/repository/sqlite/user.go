package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/barterhub/timebank/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	ts := now()
	u.Created = ts
	u.Updated = ts
	_, err := r.conn.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, category, location, trust_score, phone_verified, email_verified, registered, onboarded, blocked, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Category), u.Location, u.TrustScore,
		u.PhoneVerified, u.EmailVerified, u.Registered, u.Onboarded, u.Blocked, u.Created, u.Updated)
	return err
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var category string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &category, &u.Location,
		&u.TrustScore, &u.PhoneVerified, &u.EmailVerified, &u.Registered, &u.Onboarded,
		&u.Blocked, &u.Created, &u.Updated); err != nil {
		return nil, err
	}
	u.Category = models.Category(category)
	return &u, nil
}

const userColumns = `id, name, email, password_hash, category, location, trust_score, phone_verified, email_verified, registered, onboarded, blocked, created, updated`

func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	return u, nil
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	return u, nil
}

func (r *SQLiteRepo) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	_, err := r.conn.Exec(ctx,
		`UPDATE users SET name = ?, location = ?, category = ?, trust_score = ?, phone_verified = ?, email_verified = ?, registered = ?, onboarded = ?, blocked = ?, updated = ? WHERE id = ?`,
		u.Name, u.Location, string(u.Category), u.TrustScore, u.PhoneVerified, u.EmailVerified,
		u.Registered, u.Onboarded, u.Blocked, now(), u.ID)
	return err
}
