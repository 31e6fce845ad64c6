// Command api-server runs the question-answering HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/config"
	"shakespeare-rag-api/internal/infrastructure/openai"
	"shakespeare-rag-api/internal/infrastructure/persistence/memory"
	"shakespeare-rag-api/internal/infrastructure/persistence/milvus"
	redisinfra "shakespeare-rag-api/internal/infrastructure/persistence/redis"
	"shakespeare-rag-api/internal/interfaces/http/handler"
	"shakespeare-rag-api/internal/interfaces/http/middleware"
	"shakespeare-rag-api/internal/interfaces/http/router"
	"shakespeare-rag-api/pkg/logger"
	"shakespeare-rag-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	// Vector index backend.
	var (
		index       rag.VectorIndex
		indexHealth handler.Check
	)
	switch cfg.Vector.Backend {
	case "memory":
		memIndex := memory.NewIndex()
		index = memIndex
		indexHealth = memIndex.EnsureReady
		logger.Warn(ctx, "using in-memory vector index, contents are not durable")
	default:
		milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
		if err != nil {
			logger.Fatal(ctx, "failed to connect to milvus", err)
		}
		defer milvusClient.Close()
		repo := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)
		if err := repo.EnsureReady(ctx); err != nil {
			logger.Fatal(ctx, "vector index not ready", err)
		}
		index = repo
		indexHealth = milvusClient.HealthCheck
	}

	// Redis is optional: without it the catalog reads fall through to
	// the index and rate limiting is disabled.
	var (
		catalogCache rag.CatalogCache
		limiter      middleware.RateLimiter
		redisHealth  handler.Check
	)
	if cfg.Cache.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(ctx, &cfg.Cache.Redis)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, continuing without cache and rate limiting", "error", err.Error())
		} else {
			defer redisClient.Close()
			catalogCache = redisinfra.NewCache(redisClient, cfg.Cache.CatalogTTL)
			limiter = redisinfra.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, time.Minute)
			redisHealth = redisClient.HealthCheck
		}
	}

	// Provider clients.
	providerClient := openai.NewClient(cfg.OpenAI)
	embedder := openai.NewEmbeddingClient(providerClient, cfg.Embedding)
	generator := openai.NewChatClient(providerClient, cfg.LLM)

	// Application services.
	retriever := rag.NewRetriever(embedder, index, cfg.Retrieval.DefaultK, cfg.Retrieval.MaxK)
	engine := rag.NewEngine(retriever, generator, cfg.Retrieval.MaxContextChars)
	catalog := rag.NewCatalog(index, catalogCache)

	// Handlers.
	answerHandler := handler.NewAnswerHandler(engine)
	corpusHandler := handler.NewCorpusHandler(catalog, cfg.App.Name, cfg.App.Version)

	required := map[string]handler.Check{"index": indexHealth}
	optional := map[string]handler.Check{
		"embedding":  embedder.Reachable,
		"generation": generator.Reachable,
	}
	if redisHealth != nil {
		optional["redis"] = redisHealth
	}
	healthHandler := handler.NewHealthHandler(required, optional)

	engineHTTP := router.New(cfg, answerHandler, corpusHandler, healthHandler, limiter).Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
		Handler:      engineHTTP,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "http server starting", "addr", srv.Addr, "backend", cfg.Vector.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(context.Background(), "graceful shutdown failed", err)
		os.Exit(1)
	}
	logger.Info(context.Background(), "server stopped")
}
