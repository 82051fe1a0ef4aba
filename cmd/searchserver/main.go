package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/server"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search server",
		"port", cfg.Server.Port,
		"default_policy", cfg.Engine.DefaultPolicy,
		"parallel_parts", cfg.Engine.ParallelParts,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaultPolicy, err := fanout.ParsePolicy(cfg.Engine.DefaultPolicy)
	if err != nil {
		slog.Error("invalid default policy", "error", err)
		os.Exit(1)
	}
	stopWords, err := tokenizer.NewStopWords(cfg.Engine.StopWords)
	if err != nil {
		slog.Error("invalid stop words", "error", err)
		os.Exit(1)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	srv := server.New(server.Options{
		StopWords:     stopWords,
		ParallelParts: cfg.Engine.ParallelParts,
		BucketCount:   cfg.Engine.BucketCount,
		Metrics:       m,
	})

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", srv.DocumentCount()),
		}
	})

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := resilience.Retry(ctx, "redis connect", resilience.RetryConfig{MaxAttempts: 3},
			func(ctx context.Context) (*pkgredis.Client, error) {
				return pkgredis.NewClient(ctx, cfg.Redis)
			})
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			store := cache.WithBreaker(redisClient, resilience.CircuitBreakerConfig{})
			queryCache = cache.New(store, cfg.Redis.CacheTTL, m)
			srv.OnChange(queryCache.Bump)
			checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(srv))
		defer kc.Close()
		checker.Register("kafka_ingest", func(ctx context.Context) health.ComponentHealth {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("processed %d, lag %d", kc.Processed(), kc.Lag()),
			}
		})
		ingest := consumer.New(kc)
		go func() {
			if err := ingest.Start(ctx); err != nil {
				slog.Error("document ingest stopped", "error", err)
			}
		}()
		slog.Info("document ingest started",
			"topic", cfg.Kafka.Topics.DocumentIngest,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	h := handler.New(srv, queryCache, handler.Options{
		DefaultPolicy:        defaultPolicy,
		MaxBatchQueries:      cfg.Search.MaxBatchQueries,
		MaxConcurrentQueries: cfg.Search.MaxConcurrentQueries,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Burst)
		go limiter.RunCleanup(ctx, cfg.RateLimit.CleanupInterval)
		chain = middleware.RateLimit(limiter, m)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search server listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search server stopped", "documents", srv.DocumentCount())
}
