package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/apperror"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

// UserRepository stores credentials. Save fails with apperror.ErrUserExists
// for a taken username; Find fails with apperror.ErrUserNotFound.
type UserRepository interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, username string) (*entity.User, error)
}

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

func (that *userRepository) Save(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (username, password) VALUES (?, ?)`

	_, err := that.conn.ExecContext(ctx, query, user.Username, user.Password)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return apperror.ErrUserExists
	}

	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

func (that *userRepository) Find(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT username, password FROM users WHERE username = ?`

	var user entity.User

	err := that.conn.QueryRowContext(ctx, query, username).Scan(&user.Username, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return &user, nil
}
