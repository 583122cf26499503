package lobby

import (
	"slices"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

const maxPlayers = 2

// Room binds up to two players and any number of viewers to one game.
// Participants are referenced by player id; the registry's Directory
// resolves them.
type Room struct {
	Name string

	players []string
	viewers []string
	game    *entity.Game
	begun   bool
}

func newRoom(name string) *Room {
	return &Room{Name: name}
}

func (that *Room) CanAddPlayer() bool {
	return len(that.players) < maxPlayers
}

func (that *Room) IsReadyToStart() bool {
	return len(that.players) == maxPlayers && !that.begun
}

func (that *Room) Begun() bool {
	return that.begun
}

func (that *Room) Game() *entity.Game {
	return that.game
}

func (that *Room) Players() []string {
	return slices.Clone(that.players)
}

func (that *Room) Viewers() []string {
	return slices.Clone(that.viewers)
}

func (that *Room) HasPlayer(id string) bool {
	return slices.Contains(that.players, id)
}

func (that *Room) HasViewer(id string) bool {
	return slices.Contains(that.viewers, id)
}

// participants - players first, then viewers, in join order.
func (that *Room) participants() []string {
	return append(slices.Clone(that.players), that.viewers...)
}

func (that *Room) addPlayer(id string) {
	that.players = append(that.players, id)
}

func (that *Room) addViewer(id string) {
	that.viewers = append(that.viewers, id)
}

func (that *Room) removeViewer(id string) {
	that.viewers = slices.DeleteFunc(that.viewers, func(viewer string) bool { return viewer == id })
}

func (that *Room) start() *entity.Game {
	that.game = entity.NewGame(that.players[0], that.players[1])
	that.begun = true

	return that.game
}

// reset - empties the room so nothing is reachable through it once removed.
func (that *Room) reset() {
	that.players = nil
	that.viewers = nil
	that.game = nil
	that.begun = false
}
