package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/curiolabs/curio-graph/internal/adapter/ai"
	"github.com/curiolabs/curio-graph/internal/adapter/cache"
	"github.com/curiolabs/curio-graph/internal/adapter/store"
	"github.com/curiolabs/curio-graph/internal/handler"
	"github.com/curiolabs/curio-graph/internal/mcp"
	"github.com/curiolabs/curio-graph/internal/middleware"
	"github.com/curiolabs/curio-graph/internal/port"
	"github.com/curiolabs/curio-graph/internal/service"
	"github.com/curiolabs/curio-graph/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Curio Graph",
		"port", cfg.Port,
		"store", cfg.StoreDriver,
		"ai_provider", cfg.AIProvider,
		"cache", cfg.CacheDriver,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Storage ──────────────────────────────────────────────────────────
	var postRepo port.PostRepository
	var vectorIndex port.VectorIndex

	switch cfg.StoreDriver {
	case "postgres":
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()

		if err := pgStore.EnsureSchema(context.Background(), cfg.EmbeddingDimension); err != nil {
			slog.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}
		postRepo = store.NewPostgresPostRepository(pgStore)
		vectorIndex = store.NewPostgresVectorIndex(pgStore, cfg.EmbeddingDimension)
	default:
		postRepo = store.NewMemoryPostRepository()
		vectorIndex = store.NewMemoryVectorIndex(cfg.EmbeddingDimension)
	}

	// ── AI Provider ──────────────────────────────────────────────────────
	var embedder port.EmbeddingProvider
	var annotator port.Annotator

	switch cfg.AIProvider {
	case "ollama":
		ollamaAI := ai.NewOllamaProvider(
			ai.OllamaEndpointConfig{
				BaseURL: cfg.OllamaEmbedURL,
				Model:   cfg.OllamaEmbedModel,
				Token:   cfg.OllamaEmbedToken,
			},
			ai.OllamaEndpointConfig{
				BaseURL: cfg.OllamaChatURL,
				Model:   cfg.OllamaChatModel,
				Token:   cfg.OllamaChatToken,
			},
		)
		embedder, annotator = ollamaAI, ollamaAI
	default:
		openaiAI, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
			ChatModel:      cfg.OpenAIChatModel,
			MaxRetries:     cfg.EmbedMaxRetries,
			RetryDelay:     time.Duration(cfg.RetryDelaySeconds) * time.Second,
			CallTimeout:    time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
		})
		if err != nil {
			slog.Error("failed to configure OpenAI provider", "error", err)
			os.Exit(1)
		}
		embedder, annotator = openaiAI, openaiAI
	}

	// ── Embedding Cache ──────────────────────────────────────────────────
	if cfg.CacheDriver != "off" {
		var opts []cache.Option
		if cfg.CacheDriver == "redis" {
			redisOpts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid redis url", "error", err)
				os.Exit(1)
			}
			opts = append(opts, cache.WithRedisClient(redis.NewClient(redisOpts)))
		}
		opts = append(opts, cache.WithTTL(time.Duration(cfg.CacheTTLMinutes)*time.Minute))

		embCache, err := cache.New(cache.CacheType(cfg.CacheDriver), opts...)
		if err != nil {
			slog.Error("failed to build embedding cache", "error", err)
			os.Exit(1)
		}
		defer embCache.Close()

		embedder = ai.NewCachedProvider(embedder, embCache)
	}

	if !cfg.AnnotationEnabled {
		annotator = nil
	}

	// ── Services ─────────────────────────────────────────────────────────
	postService := service.NewPostService(embedder, vectorIndex, postRepo)
	graphService := service.NewGraphService(embedder, vectorIndex, postRepo, annotator, cfg.RefineWorkers)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))
	app.Use(middleware.Metrics())

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		posts, vectors, err := postService.Stats(c.Context())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
			"posts":   posts,
			"vectors": vectors,
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	jobTracker := handler.NewJobTracker()

	searchHandler := handler.NewSearchHandler(graphService)
	searchHandler.Register(api)

	postHandler := handler.NewPostHandler(postService)
	postHandler.Register(api)

	graphHandler := handler.NewGraphHandler(graphService)
	graphHandler.Register(api)

	relationshipHandler := handler.NewRelationshipHandler(graphService)
	relationshipHandler.Register(api)

	reindexHandler := handler.NewReindexHandler(postService, jobTracker)
	reindexHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(jobTracker)
	jobsHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(graphService, postService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Metrics (separate port) ──────────────────────────────────────────
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		slog.Info("📊 Metrics listening", "port", cfg.MetricsPort)
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
