package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/apperror"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

// jsonUserRepository keeps the whole credential file in memory and rewrites
// it atomically on every registration.
type jsonUserRepository struct {
	path string

	mu    sync.RWMutex
	users []entity.User
	index map[string]int
}

// NewJSONUserRepository - loads and validates a JSON array of
// {"username", "password"} records. A missing file, a non-array document or
// a record without both keys is an error.
func NewJSONUserRepository(path string) (UserRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user database: %w", err)
	}

	var raw []map[string]json.RawMessage
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("user database %s is not a JSON array of objects: %w", path, err)
	}

	repo := &jsonUserRepository{
		path:  path,
		users: make([]entity.User, 0, len(raw)),
		index: make(map[string]int, len(raw)),
	}

	for i, record := range raw {
		user, err := decodeUser(record)
		if err != nil {
			return nil, fmt.Errorf("user database %s, record %d: %w", path, i, err)
		}

		repo.index[user.Username] = len(repo.users)
		repo.users = append(repo.users, user)
	}

	return repo, nil
}

func decodeUser(record map[string]json.RawMessage) (entity.User, error) {
	var user entity.User

	for key, target := range map[string]*string{"username": &user.Username, "password": &user.Password} {
		value, ok := record[key]
		if !ok {
			return user, fmt.Errorf("%w: missing %q", apperror.ErrInvalidUser, key)
		}

		if err := json.Unmarshal(value, target); err != nil {
			return user, fmt.Errorf("%w: %q is not a string", apperror.ErrInvalidUser, key)
		}
	}

	return user, nil
}

func (that *jsonUserRepository) Find(_ context.Context, username string) (*entity.User, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	i, ok := that.index[username]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}

	user := that.users[i]

	return &user, nil
}

// Save - appends the user and persists the file before returning.
func (that *jsonUserRepository) Save(_ context.Context, user *entity.User) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.index[user.Username]; ok {
		return apperror.ErrUserExists
	}

	users := append(that.users[:len(that.users):len(that.users)], *user)

	data, err := json.MarshalIndent(users, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	if err = atomic.WriteFile(that.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write user database: %w", err)
	}

	that.index[user.Username] = len(that.users)
	that.users = users

	return nil
}
