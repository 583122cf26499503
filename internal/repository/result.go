package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

const (
	recentResultsKey = "results:recent"
	// RecentResultsLimit caps the recent results list.
	RecentResultsLimit = 100
)

var ErrResultNotFound = errors.New("game result not found")

type ResultRepository interface {
	Save(ctx context.Context, result *entity.GameResult) error
	GetByID(ctx context.Context, id string) (*entity.GameResult, error)
	ListRecent(ctx context.Context, limit int64) ([]*entity.GameResult, error)
	Stats(ctx context.Context, username string) (*entity.Stats, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func resultKey(id string) string {
	return "result:" + id
}

func statsKey(username string) string {
	return "stats:" + username
}

// Save - stores the result, pushes it onto the recent list and updates both
// players' tallies in one transaction.
func (that *dbResult) Save(ctx context.Context, result *entity.GameResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultKey(result.ID), resultJSON, 0)
		pipe.LPush(ctx, recentResultsKey, result.ID)
		pipe.LTrim(ctx, recentResultsKey, 0, RecentResultsLimit-1)

		if result.Winner == "" {
			for _, username := range result.Players {
				pipe.HIncrBy(ctx, statsKey(username), "draws", 1)
			}
			return nil
		}

		pipe.HIncrBy(ctx, statsKey(result.Winner), "wins", 1)
		pipe.HIncrBy(ctx, statsKey(result.Loser()), "losses", 1)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByID(ctx context.Context, id string) (*entity.GameResult, error) {
	response, err := that.client.Get(ctx, resultKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result by id: %w", err)
	}

	var result entity.GameResult
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// ListRecent - newest first. Ids whose record has vanished are skipped.
func (that *dbResult) ListRecent(ctx context.Context, limit int64) ([]*entity.GameResult, error) {
	if limit <= 0 || limit > RecentResultsLimit {
		limit = RecentResultsLimit
	}

	ids, err := that.client.LRange(ctx, recentResultsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent results: %w", err)
	}

	results := make([]*entity.GameResult, 0, len(ids))

	for _, id := range ids {
		result, err := that.GetByID(ctx, id)
		if errors.Is(err, ErrResultNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, nil
}

func (that *dbResult) Stats(ctx context.Context, username string) (*entity.Stats, error) {
	stats := &entity.Stats{Username: username}

	err := that.client.HMGet(ctx, statsKey(username), "wins", "losses", "draws").Scan(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}
