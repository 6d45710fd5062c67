package database

import (
	"context"
	"database/sql"
	stderrors "errors"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

// GetUserByUsername looks up a dashboard account.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	query := s.q(`SELECT id, username, password, name, role, created_at FROM users WHERE username = ?`)
	if err := s.db.GetContext(ctx, &user, query, username); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrNotFound)
		}
		return nil, classify(err)
	}
	return &user, nil
}

// InsertUser stores an account whose password is already hashed.
func (s *Store) InsertUser(ctx context.Context, user models.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.q(`INSERT INTO users (id, username, password, name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.Password, user.Name, user.Role, user.CreatedAt)
	return classify(err)
}
