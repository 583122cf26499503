package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/apperror"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

// MaxPasswordLength - bcrypt only reads this many bytes of a password.
const MaxPasswordLength = 72

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, username string) (*entity.User, error)
}

type AuthOption func(*Authenticator)

// WithCost - bcrypt cost used for new registrations.
func WithCost(cost int) AuthOption {
	return func(that *Authenticator) {
		that.cost = cost
	}
}

// Authenticator checks credentials against bcrypt hashes held by the user
// repository.
type Authenticator struct {
	userRepo userRepo
	cost     int
}

func NewAuthenticator(userRepo userRepo, opts ...AuthOption) *Authenticator {
	auth := &Authenticator{
		userRepo: userRepo,
		cost:     bcrypt.DefaultCost,
	}

	for _, opt := range opts {
		opt(auth)
	}

	return auth
}

// Login - returns apperror.ErrUserNotFound or apperror.ErrWrongPassword on a
// failed check. A stored password that is not a bcrypt hash never matches.
func (that *Authenticator) Login(ctx context.Context, username, password string) error {
	if len(password) > MaxPasswordLength {
		return apperror.ErrPasswordTooLong
	}

	user, err := that.userRepo.Find(ctx, username)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return apperror.ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("could not get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return apperror.ErrWrongPassword
	}

	return nil
}

// Register - hashes the password and stores the user. The user is durable
// once Register returns nil.
func (that *Authenticator) Register(ctx context.Context, username, password string) error {
	if len(password) > MaxPasswordLength {
		return apperror.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), that.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = that.userRepo.Save(ctx, &entity.User{Username: username, Password: string(hash)})
	if errors.Is(err, apperror.ErrUserExists) {
		return apperror.ErrUserExists
	}

	if err != nil {
		return fmt.Errorf("could not save user: %w", err)
	}

	return nil
}
