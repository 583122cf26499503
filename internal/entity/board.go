package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Mark is the content of a single board cell.
type Mark int

const (
	MarkEmpty Mark = iota
	MarkX
	MarkO
)

const (
	BoardSize  = 3
	boardCells = BoardSize * BoardSize
)

var (
	ErrInvalidBoard = errors.New("invalid board state")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Char - returns the wire character of the mark.
func (that Mark) Char() byte {
	return byte('0' + that)
}

func (that Mark) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return " "
	}
}

// Board is a 3x3 grid stored in row-major order.
type Board [boardCells]Mark

// Index - converts a column/row pair into a cell index.
func Index(col, row int) (int, bool) {
	if col < 0 || col >= BoardSize || row < 0 || row >= BoardSize {
		return 0, false
	}

	return row*BoardSize + col, true
}

// String - encodes the board as nine characters from {0,1,2}, row by row.
func (that Board) String() string {
	var sb strings.Builder
	sb.Grow(boardCells)

	for _, cell := range that {
		sb.WriteByte(cell.Char())
	}

	return sb.String()
}

// ParseBoard - decodes the wire representation produced by Board.String.
func ParseBoard(state string) (Board, error) {
	var board Board

	if len(state) != boardCells {
		return board, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidBoard, boardCells, len(state))
	}

	for i := range len(state) {
		switch state[i] {
		case '0':
			board[i] = MarkEmpty
		case '1':
			board[i] = MarkX
		case '2':
			board[i] = MarkO
		default:
			return Board{}, fmt.Errorf("%w: unexpected symbol %q at %d", ErrInvalidBoard, state[i], i)
		}
	}

	return board, nil
}

func (that Board) Filled() int {
	count := 0
	for _, cell := range that {
		if cell != MarkEmpty {
			count++
		}
	}

	return count
}

func (that Board) IsFull() bool {
	return that.Filled() == boardCells
}

// HasLine - reports whether mark occupies a full row, column or diagonal.
func (that Board) HasLine(mark Mark) bool {
	if mark == MarkEmpty {
		return false
	}

	for _, combo := range WinCombos {
		if that[combo[0]] == mark && that[combo[1]] == mark && that[combo[2]] == mark {
			return true
		}
	}

	return false
}
