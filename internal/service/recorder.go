package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

const (
	DefaultRecorderBuffer = 128
	saveTimeout           = 5 * time.Second
)

type resultRepo interface {
	Save(ctx context.Context, result *entity.GameResult) error
}

// Recorder writes finished games to the result repository on its own
// goroutine so the reactor never waits for storage.
type Recorder struct {
	logger     *slog.Logger
	resultRepo resultRepo

	results chan entity.GameResult
}

func NewRecorder(logger *slog.Logger, resultRepo resultRepo, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = DefaultRecorderBuffer
	}

	return &Recorder{
		logger:     logger.With("component", "recorder"),
		resultRepo: resultRepo,
		results:    make(chan entity.GameResult, buffer),
	}
}

// Record - queues a result; it is dropped when the buffer is full.
func (that *Recorder) Record(result entity.GameResult) {
	select {
	case that.results <- result:
	default:
		that.logger.Warn("result buffer full, dropping result", "result_id", result.ID, "room", result.Room)
	}
}

// Run - saves queued results until ctx is cancelled, then flushes what is
// already buffered.
func (that *Recorder) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case result := <-that.results:
			that.save(ctx, result)
		case <-ctx.Done():
			for {
				select {
				case result := <-that.results:
					that.save(context.WithoutCancel(ctx), result)
				default:
					log.Info("recorder stopped")
					return
				}
			}
		}
	}
}

func (that *Recorder) save(ctx context.Context, result entity.GameResult) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := that.resultRepo.Save(ctx, &result); err != nil {
		that.logger.Error("failed to save result", "result_id", result.ID, "error", err)
		return
	}

	that.logger.Debug("result saved", "result_id", result.ID, "outcome", result.Outcome)
}
