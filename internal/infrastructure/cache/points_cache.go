package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/config"
	"github.com/dumensel/payment-service/internal/domain"
)

const keyPrefix = "points:"

// PointsCache is a best-effort read-through cache over the points
// ledger. Redis being down degrades lookups to the repository, never to
// an error.
type PointsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewPointsCache(cfg config.RedisConfig, logger *slog.Logger) application.PointsCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PointsCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

// cachedPoints carries the version so a cached read can still feed an
// optimistic-lock save.
type cachedPoints struct {
	UserID      string          `json:"userId"`
	Total       decimal.Decimal `json:"total"`
	Available   decimal.Decimal `json:"available"`
	Locked      decimal.Decimal `json:"locked"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

func (c *PointsCache) Get(ctx context.Context, userID string) (*domain.UserPoints, bool) {
	data, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("points cache get failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var cached cachedPoints
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("points cache entry corrupt, dropping", "user_id", userID, "error", err)
		c.Invalidate(ctx, userID)
		return nil, false
	}

	return domain.ReconstituteUserPoints(
		cached.UserID, cached.Total, cached.Available, cached.Locked,
		cached.Version, cached.CreatedAt, cached.LastUpdated,
	), true
}

func (c *PointsCache) Set(ctx context.Context, points *domain.UserPoints) {
	data, err := json.Marshal(cachedPoints{
		UserID:      points.UserID,
		Total:       points.Total,
		Available:   points.Available,
		Locked:      points.Locked,
		Version:     points.Version,
		CreatedAt:   points.CreatedAt,
		LastUpdated: points.LastUpdated,
	})
	if err != nil {
		c.logger.Warn("points cache marshal failed", "user_id", points.UserID, "error", err)
		return
	}

	if err := c.client.Set(ctx, keyPrefix+points.UserID, data, c.ttl).Err(); err != nil {
		c.logger.Debug("points cache set failed", "user_id", points.UserID, "error", err)
	}
}

func (c *PointsCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		c.logger.Debug("points cache invalidate failed", "user_id", userID, "error", err)
	}
}

func (c *PointsCache) Close() error {
	return c.client.Close()
}
