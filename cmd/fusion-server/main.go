package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fusion-engine/internal/common/config"
	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/common/observability"
	"fusion-engine/internal/fusion"
	"fusion-engine/internal/producer"
	"fusion-engine/internal/server"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting fusion server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("algorithm", cfg.Fusion.Algorithm),
		zap.String("weightStrategy", cfg.Fusion.WeightStrategy),
	)

	obs := observability.New(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Producer functions, optionally cached through Redis ---
	primaryClient := producer.NewClient(fusion.ProducerPrimary, cfg.Producers.Primary.BaseURL, cfg.Producers.Primary.MaxRetries, log)
	secondaryClient := producer.NewClient(fusion.ProducerSecondary, cfg.Producers.Secondary.BaseURL, cfg.Producers.Secondary.MaxRetries, log)

	primaryFn := fusion.ProducerFn(primaryClient.Produce)
	secondaryFn := fusion.ProducerFn(secondaryClient.Produce)

	if cfg.Producers.CacheEnabled {
		var redisClient *redis.Client
		err = retryWithBackoff(func() error {
			redisClient = redis.NewClient(&redis.Options{
				Addr:         cfg.Redis.Address,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			})
			return redisClient.Ping(ctx).Err()
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")

		ttl := time.Duration(cfg.Producers.CacheTTL) * time.Second
		primaryFn = producer.NewCached(fusion.ProducerPrimary, primaryFn, redisClient, ttl, log).Produce
		secondaryFn = producer.NewCached(fusion.ProducerSecondary, secondaryFn, redisClient, ttl, log).Produce
	}

	// --- Fusion orchestrator (config captured once, immutable afterwards) ---
	fusionCfg, err := buildFusionConfig(cfg.Fusion)
	if err != nil {
		zapLog.Fatal("invalid fusion configuration", zap.Error(err))
	}

	orchestrator, err := fusion.NewOrchestrator(fusionCfg, primaryFn, secondaryFn, log)
	if err != nil {
		zapLog.Fatal("orchestrator construction failed", zap.Error(err))
	}

	// --- HTTP server ---
	srv := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      server.New(orchestrator, obs, log).Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildFusionConfig translates the file/env configuration into the immutable
// fusion.Config consumed at orchestrator construction.
func buildFusionConfig(fc config.FusionConfig) (fusion.Config, error) {
	algorithm, err := fusion.ParseAlgorithm(fc.Algorithm)
	if err != nil {
		return fusion.Config{}, err
	}
	strategy, err := fusion.ParseWeightStrategy(fc.WeightStrategy)
	if err != nil {
		return fusion.Config{}, err
	}

	return fusion.Config{
		Algorithm:        algorithm,
		WeightStrategy:   strategy,
		MinConfidence:    fc.MinConfidence,
		CheckpointBoost:  fc.CheckpointBoost,
		CheckpointValues: fc.CheckpointValues,
		LearningEnabled:  fc.LearningEnabled,
		LearningRate:     fc.LearningRate,
		Timeout:          time.Duration(fc.Timeout) * time.Millisecond,
	}, nil
}
