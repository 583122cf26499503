package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/apperror"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/lobby"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/protocol"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/reactor"
)

// Authenticator answers credential checks. Login fails with
// apperror.ErrUserNotFound or apperror.ErrWrongPassword, Register with
// apperror.ErrUserExists; any other error is a storage failure.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password string) error
}

// Dispatcher routes frames from the reactor to authentication and the lobby.
// It owns the connection table and, like the lobby, is only touched from
// the hub goroutine.
type Dispatcher struct {
	logger *slog.Logger
	auth   Authenticator
	lobby  *lobby.Registry

	peers   map[string]reactor.Peer
	players map[string]*entity.Player
	online  map[string]string
}

func New(logger *slog.Logger, auth Authenticator, opts ...lobby.Option) *Dispatcher {
	dispatcher := &Dispatcher{
		logger:  logger.With("component", "session"),
		auth:    auth,
		peers:   make(map[string]reactor.Peer),
		players: make(map[string]*entity.Player),
		online:  make(map[string]string),
	}

	dispatcher.lobby = lobby.New(logger, dispatcher, dispatcher, opts...)

	return dispatcher
}

func (that *Dispatcher) Lobby() *lobby.Registry {
	return that.lobby
}

// Player - implements lobby.Directory. Player ids are peer ids.
func (that *Dispatcher) Player(id string) (*entity.Player, bool) {
	player, ok := that.players[id]
	return player, ok
}

// Notify - implements lobby.Notifier.
func (that *Dispatcher) Notify(playerID, frame string) {
	if peer, ok := that.peers[playerID]; ok {
		peer.Send(frame)
	}
}

// Online - number of authenticated connections.
func (that *Dispatcher) Online() int {
	return len(that.online)
}

func (that *Dispatcher) OnConnect(_ context.Context, peer reactor.Peer) {
	that.peers[peer.ID()] = peer
}

// OnDisconnect - forfeits or detaches the player, then forgets the connection.
func (that *Dispatcher) OnDisconnect(_ context.Context, peer reactor.Peer) {
	id := peer.ID()
	delete(that.peers, id)

	if player, ok := that.players[id]; ok {
		that.lobby.Leave(player)
		delete(that.online, player.Username)
		delete(that.players, id)
		that.logger.Info("player left", "username", player.Username, "client_id", id)
	}
}

func (that *Dispatcher) OnFrame(ctx context.Context, peer reactor.Peer, frame string) error {
	cmd := protocol.ParseCommand(frame)

	player, ok := that.players[peer.ID()]
	if !ok {
		return that.handleUnauthenticated(ctx, peer, cmd)
	}

	return that.handleAuthenticated(peer, player, cmd)
}

func (that *Dispatcher) handleUnauthenticated(ctx context.Context, peer reactor.Peer, cmd protocol.Command) error {
	switch cmd.Kind {
	case protocol.KindLogin:
		return that.handleLogin(ctx, peer, cmd)
	case protocol.KindRegister:
		return that.handleRegister(ctx, peer, cmd)
	default:
		peer.Send(protocol.BadAuth())
		return nil
	}
}

func (that *Dispatcher) handleLogin(ctx context.Context, peer reactor.Peer, cmd protocol.Command) error {
	log := that.logger.With("method", "handleLogin", "client_id", peer.ID(), "remote_addr", peer.RemoteAddr())

	username, password, ok := cmd.Credentials()
	if !ok {
		peer.Send(protocol.Ack(protocol.ActionLogin, protocol.LoginInvalidFormat))
		return nil
	}

	if _, active := that.online[username]; active {
		log.Info("login rejected, user already active", "username", username)
		peer.Send(protocol.Ack(protocol.ActionLogin, protocol.LoginAlreadyActive))
		return nil
	}

	err := that.auth.Login(ctx, username, password)
	switch {
	case errors.Is(err, apperror.ErrUserNotFound):
		peer.Send(protocol.Ack(protocol.ActionLogin, protocol.LoginUserNotFound))
		return nil
	case errors.Is(err, apperror.ErrWrongPassword):
		log.Info("wrong password", "username", username)
		peer.Send(protocol.Ack(protocol.ActionLogin, protocol.LoginPasswordMismatch))
		return nil
	case errors.Is(err, apperror.ErrPasswordTooLong):
		peer.Send(protocol.Ack(protocol.ActionLogin, protocol.LoginInvalidFormat))
		return nil
	case err != nil:
		return fmt.Errorf("failed to authenticate %q: %w", username, err)
	}

	player := entity.NewPlayer(peer.ID(), username)
	that.players[player.ID] = player
	that.online[username] = player.ID

	log.Info("player logged in", "username", username)
	peer.Send(protocol.Ack(protocol.ActionLogin, protocol.StatusSuccess))

	return nil
}

func (that *Dispatcher) handleRegister(ctx context.Context, peer reactor.Peer, cmd protocol.Command) error {
	username, password, ok := cmd.Credentials()
	if !ok {
		peer.Send(protocol.Ack(protocol.ActionRegister, protocol.RegisterInvalidFormat))
		return nil
	}

	err := that.auth.Register(ctx, username, password)
	switch {
	case errors.Is(err, apperror.ErrUserExists):
		peer.Send(protocol.Ack(protocol.ActionRegister, protocol.RegisterUserExists))
		return nil
	case errors.Is(err, apperror.ErrPasswordTooLong):
		peer.Send(protocol.Ack(protocol.ActionRegister, protocol.RegisterInvalidFormat))
		return nil
	case err != nil:
		return fmt.Errorf("failed to register %q: %w", username, err)
	}

	that.logger.Info("user registered", "username", username, "client_id", peer.ID())
	peer.Send(protocol.Ack(protocol.ActionRegister, protocol.StatusSuccess))

	return nil
}

func (that *Dispatcher) handleAuthenticated(peer reactor.Peer, player *entity.Player, cmd protocol.Command) error {
	log := that.logger.With("method", "handleAuthenticated", "username", player.Username)

	switch cmd.Kind {
	case protocol.KindRoomList:
		that.handleRoomList(peer, cmd)
	case protocol.KindCreate:
		if len(cmd.Args) != 1 {
			peer.Send(protocol.Ack(protocol.ActionCreate, protocol.CreateInvalidFormat))
			return nil
		}
		that.lobby.Create(player, cmd.Args[0])
	case protocol.KindJoin:
		that.handleJoin(peer, player, cmd)
	case protocol.KindPlace:
		col, row, err := cmd.Cell()
		if err != nil {
			return err
		}
		if !player.InRoom() {
			peer.Send(protocol.NoRoom())
			return nil
		}
		that.lobby.Place(player, col, row)
	case protocol.KindForfeit:
		if !player.InRoom() {
			peer.Send(protocol.NoRoom())
			return nil
		}
		that.lobby.Forfeit(player)
	case protocol.KindLogin, protocol.KindRegister:
		log.Debug("ignoring credentials from an authenticated connection", "action", cmd.Name)
	case protocol.KindUnknown:
		log.Debug("ignoring unknown command", "action", cmd.Name)
	}

	return nil
}

func (that *Dispatcher) handleRoomList(peer reactor.Peer, cmd protocol.Command) {
	if len(cmd.Args) != 1 {
		peer.Send(protocol.Ack(protocol.ActionRoomList, protocol.RoomListInvalidInput))
		return
	}

	mode, ok := protocol.ParseMode(cmd.Args[0])
	if !ok {
		peer.Send(protocol.Ack(protocol.ActionRoomList, protocol.RoomListInvalidInput))
		return
	}

	peer.Send(protocol.RoomList(that.lobby.List(mode)))
}

func (that *Dispatcher) handleJoin(peer reactor.Peer, player *entity.Player, cmd protocol.Command) {
	if len(cmd.Args) != 2 {
		peer.Send(protocol.Ack(protocol.ActionJoin, protocol.JoinInvalidFormat))
		return
	}

	mode, ok := protocol.ParseMode(cmd.Args[1])
	if !ok {
		peer.Send(protocol.Ack(protocol.ActionJoin, protocol.JoinInvalidFormat))
		return
	}

	that.lobby.Join(player, cmd.Args[0], mode)
}
