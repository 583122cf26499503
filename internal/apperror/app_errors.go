package apperror

import "errors"

var (
	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrNotInGame    = errors.New("player is not part of this game")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidCell  = errors.New("invalid cell index")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrWrongPassword   = errors.New("password does not match")
	ErrPasswordTooLong = errors.New("password is too long")
	ErrInvalidUser     = errors.New("invalid user record")
)
