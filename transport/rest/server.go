package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/lobby"
)

const shutdownTimeout = 5 * time.Second

type roomLister interface {
	Rooms(ctx context.Context) ([]lobby.RoomInfo, error)
}

type ResultReader interface {
	Stats(ctx context.Context, username string) (*entity.Stats, error)
	ListRecent(ctx context.Context, limit int64) ([]*entity.GameResult, error)
}

// Server is the read-only status API. results may be nil when game
// recording is disabled.
type Server struct {
	logger  *slog.Logger
	rooms   roomLister
	results ResultReader
}

func New(logger *slog.Logger, rooms roomLister, results ResultReader) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		rooms:   rooms,
		results: results,
	}
}

func (that *Server) Router() http.Handler {
	router := httprouter.New()

	router.GET("/ping", that.pingHandler)
	router.GET("/rooms", that.roomsHandler)
	router.GET("/results", that.recentResultsHandler)
	router.GET("/players/:username/stats", that.statsHandler)

	return router
}

// Start - serves the status API until ctx is cancelled.
func (that *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	that.logger.Info("HTTP server listening", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
