package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/config"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/lobby"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/reactor"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/repository"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/repository/storage"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/service"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/session"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/transport/rest"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/transport/tcp"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	users, closeUsers, err := openUserRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeUsers(); err != nil {
			log.Error("could not close user storage", "error", err)
		}
	}()

	lobbyOpts := []lobby.Option{
		lobby.WithCapacity(conf.MaxRooms),
		lobby.WithQueuePolicy(conf.Policy()),
	}

	var results repository.ResultRepository

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage.Connection)
		recorder := service.NewRecorder(logger, results, service.DefaultRecorderBuffer)
		lobbyOpts = append(lobbyOpts, lobby.WithRecorder(recorder))

		go recorder.Run(ctx)
	}

	dispatcher := session.New(logger, service.NewAuthenticator(users), lobbyOpts...)
	hub := reactor.NewHub(logger, dispatcher, conf.OutboundBuffer)

	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()
	defer func() { <-hubDone }()

	errCh := make(chan error, 3)

	// run TCP server
	go func() {
		log.Info("Starting TCP server", "addr", conf.Addr())
		if tcpErr := tcp.New(logger, hub, conf.MaxFrameSize).Start(ctx, conf.Addr()); tcpErr != nil {
			errCh <- fmt.Errorf("TCP server error: %w", tcpErr)
		}
	}()

	// run Websocket server
	if conf.WebSocketPort != 0 {
		go func() {
			addr := net.JoinHostPort(conf.Host, strconv.Itoa(conf.WebSocketPort))
			if wsErr := websocket.New(logger, hub, conf.MaxFrameSize).Start(ctx, addr); wsErr != nil {
				errCh <- fmt.Errorf("WebSocket server error: %w", wsErr)
			}
		}()
	}

	// run HTTP server
	if conf.HTTPPort != 0 {
		go func() {
			addr := net.JoinHostPort(conf.Host, strconv.Itoa(conf.HTTPPort))
			rooms := &roomStatus{hub: hub, registry: dispatcher.Lobby()}
			if httpErr := rest.New(logger, rooms, results).Start(ctx, addr); httpErr != nil {
				errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
			}
		}()
	}

	select {
	case err = <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// openUserRepository - opens the credential store selected by the config.
func openUserRepository(ctx context.Context, conf *config.Config) (repository.UserRepository, func() error, error) {
	switch conf.UserDatabaseDriver {
	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.UserDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewUserRepository(sqliteStorage.Connection), sqliteStorage.Close, nil
	default:
		users, err := repository.NewJSONUserRepository(conf.UserDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open user database: %w", err)
		}

		return users, func() error { return nil }, nil
	}
}

// roomStatus takes registry snapshots on the hub goroutine.
type roomStatus struct {
	hub      *reactor.Hub
	registry *lobby.Registry
}

func (that *roomStatus) Rooms(ctx context.Context) ([]lobby.RoomInfo, error) {
	var rooms []lobby.RoomInfo

	err := that.hub.Query(ctx, func() {
		rooms = that.registry.Snapshot()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot rooms: %w", err)
	}

	return rooms, nil
}
