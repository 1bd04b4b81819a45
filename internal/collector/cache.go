package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"AssetSentinel/internal/model"
)

// CachedKlineSource serves klines from Redis and falls back to the wrapped
// source on a miss. Redis failures degrade to uncached fetches.
type CachedKlineSource struct {
	next   KlineSource
	client *redis.Client
	ttl    time.Duration
}

// NewCachedKlineSource wraps next with a Redis cache whose entries live for ttl.
func NewCachedKlineSource(next KlineSource, client *redis.Client, ttl time.Duration) *CachedKlineSource {
	return &CachedKlineSource{next: next, client: client, ttl: ttl}
}

func (c *CachedKlineSource) Name() string { return c.next.Name() + "+redis" }

func klineCacheKey(source, symbol string, tf model.Timeframe, limit int) string {
	return fmt.Sprintf("klines:%s:%s:%s:%d", source, symbol, tf, limit)
}

func (c *CachedKlineSource) FetchKlines(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error) {
	key := klineCacheKey(c.next.Name(), symbol, tf, limit)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var bars []model.OHLCV
		if jerr := json.Unmarshal([]byte(raw), &bars); jerr == nil {
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable kline cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("kline cache read failed")
	}

	bars, err := c.next.FetchKlines(ctx, symbol, tf, limit)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(bars)
	if err != nil {
		return bars, nil
	}
	if err := c.client.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kline cache write failed")
	}
	return bars, nil
}
