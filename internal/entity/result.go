package entity

import "time"

const (
	OutcomeWin     = "win"
	OutcomeDraw    = "draw"
	OutcomeForfeit = "forfeit"
)

// GameResult is the archived summary of a finished game.
type GameResult struct {
	ID         string    `json:"id"`
	Room       string    `json:"room"`
	Players    [2]string `json:"players"`
	Winner     string    `json:"winner,omitempty"`
	Outcome    string    `json:"outcome"`
	Board      string    `json:"board"`
	FinishedAt time.Time `json:"finished_at"`
}

// Loser - returns the username of the losing player, empty for a draw.
func (that *GameResult) Loser() string {
	if that.Winner == "" {
		return ""
	}

	if that.Players[0] == that.Winner {
		return that.Players[1]
	}

	return that.Players[0]
}

// Stats is a per-user tally of recorded results.
type Stats struct {
	Username string `json:"username"`
	Wins     int64  `json:"wins" redis:"wins"`
	Losses   int64  `json:"losses" redis:"losses"`
	Draws    int64  `json:"draws" redis:"draws"`
}
