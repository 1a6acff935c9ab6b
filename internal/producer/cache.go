package producer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/fusion"
)

// Cached decorates a fusion.ProducerFn with a Redis-backed response cache.
// Only producer candidates are cached; fused results never are.
type Cached struct {
	name   fusion.Producer
	next   fusion.ProducerFn
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(name fusion.Producer, next fusion.ProducerFn, client *redis.Client, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		name:   name,
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"producer": string(name),
			"cache":    true,
		}),
	}
}

// Produce satisfies fusion.ProducerFn. Cache failures are treated as misses;
// the backend stays authoritative.
func (c *Cached) Produce(ctx context.Context, input string) (fusion.CandidateResult, error) {
	key := c.cacheKey(input)

	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		var cached fusion.CandidateResult
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.logger.Debug("cache hit", map[string]interface{}{"key": key})
			return cached, nil
		}
	}

	result, err := c.next(ctx, input)
	if err != nil {
		return fusion.CandidateResult{}, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return result, nil
}

func (c *Cached) cacheKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("producer:%s:%s", c.name, hex.EncodeToString(sum[:16]))
}
