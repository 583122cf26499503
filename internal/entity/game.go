package entity

import (
	"fmt"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/apperror"
)

const (
	StatusOngoing   = "ongoing"
	StatusWon       = "won"
	StatusDrawn     = "drawn"
	StatusForfeited = "forfeited"
)

// Game is the state machine of one match. Players are referenced by id;
// Players[0] plays MarkX and moves first.
type Game struct {
	Board   Board
	Players [2]string
	Turn    string
	Winner  string
	IsDraw  bool
	Status  string
}

func NewGame(first, second string) *Game {
	return &Game{
		Players: [2]string{first, second},
		Turn:    first,
		Status:  StatusOngoing,
	}
}

// MarkOf - returns the mark assigned to the player, MarkEmpty for strangers.
func (that *Game) MarkOf(playerID string) Mark {
	switch playerID {
	case that.Players[0]:
		return MarkX
	case that.Players[1]:
		return MarkO
	default:
		return MarkEmpty
	}
}

// Other - returns the opponent of playerID.
func (that *Game) Other(playerID string) string {
	if playerID == that.Players[0] {
		return that.Players[1]
	}

	return that.Players[0]
}

func (that *Game) IsFinished() bool {
	return that.Status != StatusOngoing
}

func (that *Game) BoardState() string {
	return that.Board.String()
}

// Place - writes the player's mark at (col, row). The win check runs before
// the draw check because a winning last move also fills the board.
func (that *Game) Place(playerID string, col, row int) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	mark := that.MarkOf(playerID)
	if mark == MarkEmpty {
		return apperror.ErrNotInGame
	}

	if that.Turn != playerID {
		return apperror.ErrNotYourTurn
	}

	cell, ok := Index(col, row)
	if !ok {
		return fmt.Errorf("%w: col %d row %d", apperror.ErrInvalidCell, col, row)
	}

	if that.Board[cell] != MarkEmpty {
		return apperror.ErrCellOccupied
	}

	that.Board[cell] = mark

	switch {
	case that.Board.HasLine(mark):
		that.Winner = playerID
		that.Status = StatusWon
		that.Turn = ""
	case that.Board.IsFull():
		that.IsDraw = true
		that.Status = StatusDrawn
		that.Turn = ""
	default:
		that.Turn = that.Other(playerID)
	}

	return nil
}

// Forfeit - ends the game in favour of the opponent, whoever's turn it is.
func (that *Game) Forfeit(playerID string) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.MarkOf(playerID) == MarkEmpty {
		return apperror.ErrNotInGame
	}

	that.Winner = that.Other(playerID)
	that.Status = StatusForfeited
	that.Turn = ""

	return nil
}
