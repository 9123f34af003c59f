package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage implements the users and ledger stores on PostgreSQL
type Storage struct {
	db *sql.DB
}

// New wraps an open database handle
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

var (
	_ storage.Users  = (*Storage)(nil)
	_ storage.Ledger = (*Storage)(nil)
)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	query :=
		`INSERT INTO users (id, username, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 `

	res, err := s.db.ExecContext(ctx, query, string(user.ID), user.Username, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}

	existing, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	if existing.ID != user.ID {
		return fmt.Errorf("save user %q: %w", user.Username, model.ErrUsernameTaken)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	query :=
		`SELECT id, username, created_at FROM users
		 WHERE id = $1
		 `
	return s.scanUser(s.db.QueryRowContext(ctx, query, string(id)))
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query :=
		`SELECT id, username, created_at FROM users
		 WHERE username = $1
		 `
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *Storage) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	var id string
	if err := row.Scan(&id, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.ID = model.UserID(id)
	return &user, nil
}
