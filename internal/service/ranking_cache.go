package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
)

// RankingCache stores computed class rankings in Redis. A nil cache or a nil
// client disables caching.
type RankingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRankingCache constructs a ranking cache.
func NewRankingCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RankingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RankingCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "ranking_cache").Logger(),
	}
}

func rankingKey(classID uint, scope Scope) string {
	return fmt.Sprintf("ranking:class:%d:%s:%s", classID, scope.Session, scope.Term)
}

func (c *RankingCache) enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached ranking for the class and scope.
func (c *RankingCache) Get(ctx context.Context, classID uint, scope Scope) (dto.ClassRankingResponse, bool) {
	if !c.enabled() {
		return dto.ClassRankingResponse{}, false
	}

	cached, err := c.client.Get(ctx, rankingKey(classID, scope)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to read ranking cache")
		}
		return dto.ClassRankingResponse{}, false
	}

	var response dto.ClassRankingResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("discarding corrupt ranking cache entry")
		return dto.ClassRankingResponse{}, false
	}
	return response, true
}

// Set stores the ranking for the class and scope.
func (c *RankingCache) Set(ctx context.Context, classID uint, scope Scope, ranking dto.ClassRankingResponse) {
	if !c.enabled() {
		return
	}

	payload, err := json.Marshal(ranking)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode ranking cache entry")
		return
	}
	if err := c.client.Set(ctx, rankingKey(classID, scope), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to store ranking cache")
	}
}

// InvalidateClass drops every cached ranking of the class across all scopes.
func (c *RankingCache) InvalidateClass(ctx context.Context, classID uint) {
	if !c.enabled() {
		return
	}

	pattern := fmt.Sprintf("ranking:class:%d:*", classID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to scan ranking cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to invalidate ranking cache")
	}
}
