// store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"

	"learning-platform/models"

	"github.com/lib/pq"
)

// Postgres implements Store on database/sql with the pq driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ Store = (*Postgres)(nil)

// mapErr folds driver errors into the store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, display_name, is_teacher)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, last_login
	`, u.Username, u.Email, u.PasswordHash, u.DisplayName, u.IsTeacher).
		Scan(&u.ID, &u.CreatedAt, &u.LastLogin)
	return mapErr(err)
}

func (p *Postgres) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return p.getUser(ctx, `WHERE id = $1`, id)
}

// GetUserByUsername also matches on email, so either works at login.
func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return p.getUser(ctx, `WHERE username = $1 OR email = $1`, username)
}

func (p *Postgres) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, display_name, is_teacher, created_at, last_login
		FROM users
	`+where, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.DisplayName, &u.IsTeacher, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (p *Postgres) TouchLastLogin(ctx context.Context, id int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	return err
}
