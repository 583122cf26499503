package lobby

import (
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/apperror"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/protocol"
)

const (
	DefaultCapacity = 256
	maxNameLength   = 20
)

var roomNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// Directory resolves player ids to live players.
type Directory interface {
	Player(id string) (*entity.Player, bool)
}

// Notifier delivers a frame to a player's connection.
type Notifier interface {
	Notify(playerID, frame string)
}

// Recorder archives finished games. Record must not block.
type Recorder interface {
	Record(result entity.GameResult)
}

type Option func(*Registry)

func WithCapacity(capacity int) Option {
	return func(that *Registry) {
		if capacity > 0 {
			that.capacity = capacity
		}
	}
}

func WithQueuePolicy(policy entity.QueuePolicy) Option {
	return func(that *Registry) {
		that.policy = policy
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(that *Registry) {
		that.recorder = recorder
	}
}

// Registry owns every room by name. It is not safe for concurrent use:
// the reactor goroutine is its only caller.
type Registry struct {
	logger    *slog.Logger
	directory Directory
	notifier  Notifier
	recorder  Recorder

	rooms    map[string]*Room
	capacity int
	policy   entity.QueuePolicy
}

func New(logger *slog.Logger, directory Directory, notifier Notifier, opts ...Option) *Registry {
	registry := &Registry{
		logger:    logger.With("component", "lobby"),
		directory: directory,
		notifier:  notifier,
		rooms:     make(map[string]*Room),
		capacity:  DefaultCapacity,
		policy:    entity.QueueAppend,
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

func ValidRoomName(name string) bool {
	return len(name) > 0 && len(name) <= maxNameLength && roomNamePattern.MatchString(name)
}

func (that *Registry) Get(name string) (*Room, bool) {
	room, ok := that.rooms[name]
	return room, ok
}

func (that *Registry) Len() int {
	return len(that.rooms)
}

// List - returns sorted room names; players only see rooms with a free seat.
func (that *Registry) List(mode protocol.Mode) []string {
	names := make([]string, 0, len(that.rooms))

	for name, room := range that.rooms {
		if mode == protocol.ModePlayer && !room.CanAddPlayer() {
			continue
		}
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Create - opens a room with player as its first occupant and acknowledges it.
func (that *Registry) Create(player *entity.Player, name string) protocol.Status {
	status := that.create(player, name)
	that.notifier.Notify(player.ID, protocol.Ack(protocol.ActionCreate, status))

	return status
}

func (that *Registry) create(player *entity.Player, name string) protocol.Status {
	log := that.logger.With("method", "Create", "room", name, "player", player.Username)

	switch {
	case player.InRoom():
		return protocol.CreateAlreadyInRoom
	case !ValidRoomName(name):
		return protocol.CreateInvalidName
	case that.rooms[name] != nil:
		return protocol.CreateRoomExists
	case len(that.rooms) >= that.capacity:
		log.Warn("room capacity reached", "capacity", that.capacity)
		return protocol.CreateMaxRooms
	}

	room := newRoom(name)
	room.addPlayer(player.ID)
	player.Room = name
	that.rooms[name] = room

	log.Info("room created")

	return protocol.StatusSuccess
}

// Join - seats player or adds it as a viewer. The acknowledgement always
// precedes BEGIN or INPROGRESS.
func (that *Registry) Join(player *entity.Player, name string, mode protocol.Mode) protocol.Status {
	log := that.logger.With("method", "Join", "room", name, "player", player.Username, "mode", mode)

	if player.InRoom() {
		return that.ackJoin(player, protocol.JoinAlreadyInRoom)
	}

	room, ok := that.rooms[name]
	if !ok {
		return that.ackJoin(player, protocol.JoinRoomNotFound)
	}

	switch mode {
	case protocol.ModePlayer:
		if !room.CanAddPlayer() {
			return that.ackJoin(player, protocol.JoinRoomFull)
		}

		room.addPlayer(player.ID)
		player.Room = name
		that.ackJoin(player, protocol.StatusSuccess)
		log.Info("player joined")

		if room.IsReadyToStart() {
			that.start(room)
		}
	case protocol.ModeViewer:
		room.addViewer(player.ID)
		player.Room = name
		that.ackJoin(player, protocol.StatusSuccess)
		log.Info("viewer joined")

		if room.Begun() {
			game := room.Game()
			that.notifier.Notify(player.ID, protocol.InProgress(that.username(game.Turn), that.username(game.Other(game.Turn))))
		}
	default:
		return that.ackJoin(player, protocol.JoinInvalidFormat)
	}

	return protocol.StatusSuccess
}

func (that *Registry) ackJoin(player *entity.Player, status protocol.Status) protocol.Status {
	that.notifier.Notify(player.ID, protocol.Ack(protocol.ActionJoin, status))
	return status
}

// start - creates the game in join order, announces it and replays moves
// queued before the game began.
func (that *Registry) start(room *Room) {
	game := room.start()

	first, second := game.Players[0], game.Players[1]
	for _, id := range game.Players {
		if player, ok := that.directory.Player(id); ok {
			player.Mark = game.MarkOf(id)
		}
	}

	that.broadcast(room, protocol.Begin(that.username(first), that.username(second)))
	that.logger.Info("game started", "room", room.Name, "x", that.username(first), "o", that.username(second))

	that.drain(room)
}

// Place - applies the move when it is the player's turn, otherwise queues it.
func (that *Registry) Place(player *entity.Player, col, row int) {
	room, ok := that.roomOf(player)
	if !ok || !room.HasPlayer(player.ID) {
		return
	}

	move := entity.Move{Col: col, Row: row}

	if !room.Begun() || room.Game().Turn != player.ID {
		player.Enqueue(move, that.policy)
		that.logger.Debug("move queued", "room", room.Name, "player", player.Username, "pending", len(player.Pending()))
		return
	}

	that.apply(room, player, move)
	that.drain(room)
}

// drain - replays queued moves of whoever holds the turn until a queue runs
// dry or the game ends. Each iteration consumes one queued move.
func (that *Registry) drain(room *Room) {
	for room.Begun() && !room.Game().IsFinished() {
		current, ok := that.directory.Player(room.Game().Turn)
		if !ok {
			return
		}

		move, ok := current.Dequeue()
		if !ok {
			return
		}

		that.apply(room, current, move)
	}
}

func (that *Registry) apply(room *Room, player *entity.Player, move entity.Move) {
	log := that.logger.With("method", "apply", "room", room.Name, "player", player.Username)
	game := room.Game()

	err := game.Place(player.ID, move.Col, move.Row)
	if errors.Is(err, apperror.ErrInvalidCell) || errors.Is(err, apperror.ErrCellOccupied) {
		log.Warn("move ignored", "col", move.Col, "row", move.Row, "error", err)
		return
	}

	if err != nil {
		log.Error("failed to place", "error", err)
		return
	}

	board := game.BoardState()

	switch game.Status {
	case entity.StatusWon:
		that.broadcast(room, protocol.GameEnd(board, protocol.GameEndWinner, that.username(game.Winner)))
		that.finish(room, entity.OutcomeWin)
	case entity.StatusDrawn:
		that.broadcast(room, protocol.GameEnd(board, protocol.GameEndDraw, ""))
		that.finish(room, entity.OutcomeDraw)
	default:
		that.broadcast(room, protocol.BoardStatus(board))
	}
}

// Forfeit - ends the player's game immediately in favour of the opponent.
// Forfeiting a room that has not started yet closes the room.
func (that *Registry) Forfeit(player *entity.Player) {
	room, ok := that.roomOf(player)
	if !ok || !room.HasPlayer(player.ID) {
		return
	}

	that.abandon(room, player)
}

// Leave - detaches a disconnecting player. A seated player forfeits and the
// room is removed; a viewer simply stops watching.
func (that *Registry) Leave(player *entity.Player) {
	room, ok := that.roomOf(player)
	if !ok {
		return
	}

	if room.HasViewer(player.ID) {
		room.removeViewer(player.ID)
		player.Room = ""
		return
	}

	that.abandon(room, player)
}

func (that *Registry) abandon(room *Room, player *entity.Player) {
	if !room.Begun() {
		that.logger.Info("room abandoned before start", "room", room.Name, "player", player.Username)
		that.finish(room, "")
		return
	}

	game := room.Game()
	if err := game.Forfeit(player.ID); err != nil {
		that.logger.Error("failed to forfeit", "room", room.Name, "error", err)
		return
	}

	that.broadcast(room, protocol.GameEnd(game.BoardState(), protocol.GameEndForfeit, that.username(game.Winner)))
	that.finish(room, entity.OutcomeForfeit)
}

// finish - records the result, detaches every participant and drops the room.
func (that *Registry) finish(room *Room, outcome string) {
	if game := room.Game(); game != nil && outcome != "" {
		that.record(room, game, outcome)
	}

	for _, id := range room.Players() {
		if player, ok := that.directory.Player(id); ok {
			player.ResetAfterGame()
		}
	}

	for _, id := range room.Viewers() {
		if viewer, ok := that.directory.Player(id); ok {
			viewer.Room = ""
		}
	}

	room.reset()
	delete(that.rooms, room.Name)

	that.logger.Info("room removed", "room", room.Name, "outcome", outcome)
}

func (that *Registry) record(room *Room, game *entity.Game, outcome string) {
	if that.recorder == nil {
		return
	}

	result := entity.GameResult{
		ID:         uuid.NewString(),
		Room:       room.Name,
		Players:    [2]string{that.username(game.Players[0]), that.username(game.Players[1])},
		Outcome:    outcome,
		Board:      game.BoardState(),
		FinishedAt: time.Now().UTC(),
	}
	if game.Winner != "" {
		result.Winner = that.username(game.Winner)
	}

	that.recorder.Record(result)
}

func (that *Registry) broadcast(room *Room, frame string) {
	for _, id := range room.participants() {
		that.notifier.Notify(id, frame)
	}
}

func (that *Registry) roomOf(player *entity.Player) (*Room, bool) {
	if !player.InRoom() {
		return nil, false
	}

	room, ok := that.rooms[player.Room]

	return room, ok
}

func (that *Registry) username(id string) string {
	if player, ok := that.directory.Player(id); ok {
		return player.Username
	}

	return id
}

// RoomInfo is a read-only view of a room for status reporting.
type RoomInfo struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Viewers int      `json:"viewers"`
	Begun   bool     `json:"begun"`
	Board   string   `json:"board,omitempty"`
	Turn    string   `json:"turn,omitempty"`
}

func (that *Registry) Snapshot() []RoomInfo {
	infos := make([]RoomInfo, 0, len(that.rooms))

	for _, name := range that.List(protocol.ModeViewer) {
		room := that.rooms[name]
		info := RoomInfo{
			Name:    name,
			Players: make([]string, 0, maxPlayers),
			Viewers: len(room.viewers),
			Begun:   room.Begun(),
		}

		for _, id := range room.players {
			info.Players = append(info.Players, that.username(id))
		}

		if game := room.Game(); game != nil {
			info.Board = game.BoardState()
			info.Turn = that.username(game.Turn)
		}

		infos = append(infos, info)
	}

	return infos
}
