package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.GameResult) error {
	return that.Called(ctx, result).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Run(t *testing.T) {
	// Given: a running recorder
	repo := &mockResultRepo{}
	saved := make(chan string, 1)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*entity.GameResult")).
		Run(func(args mock.Arguments) { saved <- args.Get(1).(*entity.GameResult).ID }).
		Return(nil).
		Once()

	recorder := NewRecorder(discardLogger(), repo, 4)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		recorder.Run(ctx)
		close(stopped)
	}()

	// When: a result is recorded
	recorder.Record(entity.GameResult{ID: "g1", Outcome: entity.OutcomeDraw})

	// Then: it reaches the repository
	select {
	case id := <-saved:
		assert.Equal(t, "g1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("result was not saved")
	}

	cancel()
	<-stopped
	repo.AssertExpectations(t)
}

func TestRecorder_RecordNeverBlocks(t *testing.T) {
	// Given: a recorder that is not running, with room for one result
	repo := &mockResultRepo{}
	recorder := NewRecorder(discardLogger(), repo, 1)

	// When: more results arrive than fit
	recorder.Record(entity.GameResult{ID: "kept"})
	recorder.Record(entity.GameResult{ID: "dropped"})

	// Then: the overflow is dropped and the buffered one is flushed on stop
	repo.On("Save", mock.Anything, mock.MatchedBy(func(result *entity.GameResult) bool {
		return result.ID == "kept"
	})).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recorder.Run(ctx)

	require.Empty(t, recorder.results)
	repo.AssertExpectations(t)
}
