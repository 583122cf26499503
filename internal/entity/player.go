package entity

import "fmt"

// QueuePolicy decides what happens when a player queues a move while
// another move is already pending.
type QueuePolicy string

const (
	QueueAppend  QueuePolicy = "append"
	QueueReplace QueuePolicy = "replace"
)

func ParseQueuePolicy(value string) (QueuePolicy, error) {
	switch QueuePolicy(value) {
	case QueueAppend, QueueReplace:
		return QueuePolicy(value), nil
	default:
		return "", fmt.Errorf("unknown queue policy %q", value)
	}
}

// Move is a placement deferred because it arrived out of turn.
type Move struct {
	Col int
	Row int
}

// Player is the server-side identity bound to one authenticated connection.
type Player struct {
	ID       string
	Username string
	Mark     Mark
	Room     string

	queue []Move
}

func NewPlayer(id, username string) *Player {
	return &Player{
		ID:       id,
		Username: username,
	}
}

func (that *Player) InRoom() bool {
	return that.Room != ""
}

// Enqueue - stores a move for later replay.
func (that *Player) Enqueue(move Move, policy QueuePolicy) {
	if policy == QueueReplace {
		that.queue = that.queue[:0]
	}

	that.queue = append(that.queue, move)
}

// Dequeue - pops the oldest pending move.
func (that *Player) Dequeue() (Move, bool) {
	if len(that.queue) == 0 {
		return Move{}, false
	}

	move := that.queue[0]
	that.queue = that.queue[1:]

	return move, true
}

func (that *Player) Pending() []Move {
	return append([]Move(nil), that.queue...)
}

// ResetAfterGame - detaches the player from its room once the game is over.
func (that *Player) ResetAfterGame() {
	that.Mark = MarkEmpty
	that.Room = ""
	that.queue = nil
}
