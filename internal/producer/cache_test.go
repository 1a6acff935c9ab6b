package producer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/fusion"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func countingProducer(counter *int32, result fusion.CandidateResult) fusion.ProducerFn {
	return func(ctx context.Context, input string) (fusion.CandidateResult, error) {
		atomic.AddInt32(counter, 1)
		return result, nil
	}
}

func TestCached_Produce_ServesSecondCallFromCache(t *testing.T) {
	_, client := setupMiniredis(t)

	var calls int32
	inner := countingProducer(&calls, fusion.CandidateResult{Content: "cached answer", Confidence: 0.8, Category: 3})
	cached := NewCached(fusion.ProducerPrimary, inner, client, time.Minute, logger.NewTestLogger(t))

	ctx := context.Background()

	first, err := cached.Produce(ctx, "same input")
	require.NoError(t, err)
	second, err := cached.Produce(ctx, "same input")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCached_Produce_DistinctInputsMiss(t *testing.T) {
	_, client := setupMiniredis(t)

	var calls int32
	inner := countingProducer(&calls, fusion.CandidateResult{Content: "x", Confidence: 0.5, Category: 0})
	cached := NewCached(fusion.ProducerPrimary, inner, client, time.Minute, logger.NewTestLogger(t))

	ctx := context.Background()
	_, err := cached.Produce(ctx, "input one")
	require.NoError(t, err)
	_, err = cached.Produce(ctx, "input two")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCached_Produce_EntryExpires(t *testing.T) {
	mr, client := setupMiniredis(t)

	var calls int32
	inner := countingProducer(&calls, fusion.CandidateResult{Content: "x", Confidence: 0.5, Category: 0})
	cached := NewCached(fusion.ProducerPrimary, inner, client, 30*time.Second, logger.NewTestLogger(t))

	ctx := context.Background()
	_, err := cached.Produce(ctx, "input")
	require.NoError(t, err)

	mr.FastForward(time.Minute)

	_, err = cached.Produce(ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCached_Produce_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupMiniredis(t)
	mr.Close()

	var calls int32
	inner := countingProducer(&calls, fusion.CandidateResult{Content: "x", Confidence: 0.5, Category: 0})
	cached := NewCached(fusion.ProducerPrimary, inner, client, time.Minute, logger.NewNoOpLogger())

	result, err := cached.Produce(context.Background(), "input")
	require.NoError(t, err)
	assert.Equal(t, "x", result.Content)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
