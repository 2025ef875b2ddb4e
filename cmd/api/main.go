package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/zhuangyq008/s3-image-process/internal/api"
	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/config"
	"github.com/zhuangyq008/s3-image-process/internal/logger"
	"github.com/zhuangyq008/s3-image-process/internal/pipeline"
	"github.com/zhuangyq008/s3-image-process/internal/ratelimit"
	"github.com/zhuangyq008/s3-image-process/internal/storage"
	"github.com/zhuangyq008/s3-image-process/internal/store"
	"github.com/zhuangyq008/s3-image-process/internal/telemetry"
	"github.com/zhuangyq008/s3-image-process/internal/transform"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api failed")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "imgproc-api",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	if err := codec.Startup(); err != nil {
		return fmt.Errorf("start codec runtime: %w", err)
	}
	defer codec.Shutdown()
	log.Info().Bool("webp", codec.WebPEnabled()).Msg("codec runtime ready")

	source, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	usage, closeUsage, err := openUsageStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeUsage()

	limiter, closeLimiter, err := openRateLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	metrics := api.NewMetrics()
	executor := pipeline.NewExecutor(
		transform.NewRegistry(transform.Options{FontPath: cfg.Watermark.FontPath}),
		pipeline.WithMetrics(pipeline.NewMetrics(metrics.Registry())),
		pipeline.WithLogger(log),
	)

	app := api.NewServer(api.Options{
		Logger:         log,
		Processor:      pipeline.NewProcessor(source, executor),
		Store:          source,
		Usage:          usage,
		RateLimiter:    limiter,
		Tracer:         otel.Tracer("github.com/zhuangyq008/s3-image-process/internal/api"),
		Metrics:        metrics,
		MaxUploadBytes: cfg.API.MaxUploadBytes,
		CacheMaxAge:    cfg.API.CacheMaxAge,
	})

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.API.Addr).Str("store", cfg.Storage.Backend).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (storage.Store, error) {
	var (
		s   storage.Store
		err error
	)
	switch cfg.Backend {
	case "s3":
		s, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
		})
	case "minio":
		var mc *storage.MinioStore
		mc, err = storage.NewMinioStore(storage.MinioConfig{
			Endpoint: cfg.Endpoint,
			Access:   cfg.AccessKey,
			Secret:   cfg.SecretKey,
			Bucket:   cfg.Bucket,
			UseSSL:   cfg.UseSSL,
		})
		if err == nil {
			err = mc.EnsureBucket(ctx)
		}
		s = mc
	case "local":
		s, err = storage.NewLocalStore(cfg.LocalDir)
	case "memory":
		s = storage.NewMemoryStore()
	default:
		err = fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	log.Info().Str("backend", cfg.Backend).Str("bucket", cfg.Bucket).Str("prefix", cfg.Prefix).Msg("byte store ready")
	return storage.WithPrefix(s, cfg.Prefix), nil
}

func openUsageStore(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (store.UsageStore, func(), error) {
	if cfg.DSN == "" {
		log.Info().Msg("usage ledger kept in memory")
		return store.NewMemoryUsageStore(0), func() {}, nil
	}

	pg, err := store.NewPostgresUsageStore(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open usage store: %w", err)
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			log.Warn().Err(err).Msg("usage store close failed")
		}
	}, nil
}

func openRateLimiter(ctx context.Context, cfg config.Config, log zerolog.Logger) (api.RateLimiter, func(), error) {
	if cfg.RateLimit.Capacity <= 0 {
		log.Info().Msg("rate limiting disabled")
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	bucket, err := ratelimit.NewRedisTokenBucket(client, cfg.RateLimit.Capacity, cfg.RateLimit.Window, ratelimit.DefaultKeyPrefix)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("create rate limiter: %w", err)
	}

	log.Info().Int("capacity", cfg.RateLimit.Capacity).Dur("window", cfg.RateLimit.Window).Msg("rate limiting enabled")
	return bucket, func() { _ = client.Close() }, nil
}
