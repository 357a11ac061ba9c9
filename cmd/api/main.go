// Package main is the entry point for the assistant API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/agentpool"
	"github.com/meridian-ai/assistant-core/internal/cache"
	"github.com/meridian-ai/assistant-core/internal/config"
	"github.com/meridian-ai/assistant-core/internal/driver"
	"github.com/meridian-ai/assistant-core/internal/enrich"
	"github.com/meridian-ai/assistant-core/internal/handler"
	"github.com/meridian-ai/assistant-core/internal/knowledge"
	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/middleware"
	natsclient "github.com/meridian-ai/assistant-core/internal/nats"
	"github.com/meridian-ai/assistant-core/internal/orchestrator"
	"github.com/meridian-ai/assistant-core/internal/personalize"
	"github.com/meridian-ai/assistant-core/internal/profile"
	"github.com/meridian-ai/assistant-core/internal/respproc"
	"github.com/meridian-ai/assistant-core/internal/router"
	"github.com/meridian-ai/assistant-core/internal/session"
	"github.com/meridian-ai/assistant-core/internal/specialist"
	"github.com/meridian-ai/assistant-core/internal/store"
	"github.com/meridian-ai/assistant-core/internal/timectx"
	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-core", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Provision conversation buckets
	buckets, err := natsclient.NewBucketManager(ctx, natsClient)
	if err != nil {
		log.Error("failed to provision buckets", zap.Error(err))
		os.Exit(1)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), llmAPIKey(cfg))
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Conversation persistence
	convStore := store.NewConversationStore(
		store.NewKVMetaStore(buckets.Metadata()),
		store.NewObjectBlobStore(buckets.Payloads()),
		log.Named("store"),
	)
	sessions := session.NewManager(convStore, log.Named("session"))

	// Response cache with Redis shared tier
	respCache := cache.New(cache.NewRedisTier(rdb), cfg.CacheTTL, log.Named("cache"))

	// User profiles
	profiles := profile.NewManager(profile.NewRedisStore(rdb), log.Named("profile"))

	// Knowledge store
	var knowledgeBackend knowledge.Backend
	switch cfg.MemoryBackend {
	case config.BackendAlternativeMemory:
		knowledgeBackend = knowledge.NewMemoryBackend()
	default:
		knowledgeBackend = knowledge.NewRedisBackend(rdb)
	}
	knowledgeStore := knowledge.New(knowledgeBackend, log.Named("knowledge"))

	// Tool-loop driver
	drv := driver.New(llmClient, driver.Options{
		MaxDepth:    cfg.MaxToolDepth,
		ToolTimeout: cfg.ToolTimeout,
	}, log.Named("driver"))

	// Specialist definitions and tools
	defs := specialist.BuiltinDefinitions(cfg.FlightAPIURL, cfg.F1APIURL, cfg.SpecialistEnabled)
	toolIndex := specialist.ToolIndex(defs)

	// Agent pool
	pool := agentpool.New(cfg.AgentPoolSize, specialist.AgentConstructor(drv, cfg.ModelID, toolIndex))

	// Context enrichment
	var enrichers []enrich.Enricher
	if cfg.MarketAPIURL != "" {
		enrichers = append(enrichers, enrich.NewMarketEnricher(cfg.MarketAPIURL))
	}
	if cfg.FlightAPIURL != "" {
		enrichers = append(enrichers, enrich.NewFlightEnricher(cfg.FlightAPIURL))
	}
	if cfg.WeatherAPIURL != "" {
		enrichers = append(enrichers, enrich.NewWeatherEnricher(cfg.WeatherAPIURL))
	}
	if cfg.NewsAPIURL != "" {
		enrichers = append(enrichers, enrich.NewNewsEnricher(cfg.NewsAPIURL))
	}
	enricher := enrich.NewComposite(log.Named("enrich"), enrichers...)

	// Specialist registry
	registry := specialist.NewRegistry(pool, drv, enricher, cfg.ModelID, log.Named("specialist"))
	for _, def := range defs {
		registry.Register(def)
	}

	// Orchestrator
	orch := orchestrator.New(orchestrator.Options{
		ModelID:        cfg.ModelID,
		RequestTimeout: cfg.RequestTimeout,
	}, orchestrator.Deps{
		Client:    llmClient,
		Router:    router.New(log.Named("router")),
		Registry:  registry,
		Cache:     respCache,
		Knowledge: knowledgeStore,
		Profiles:  profiles,
		TimeCtx:   timectx.New(),
		Personal:  personalize.New(llmClient, respCache, cfg.ModelID, log.Named("personalize")),
		Processor: respproc.New(),
		Sessions:  sessions,
		ConvStore: convStore,
		Telemetry: buckets,
		Logger:    log.Named("orchestrator"),
	})

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient, rdb)
	chatHandler := handler.NewChatHandler(orch, log.Named("handler"))

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Send)
		r.Post("/chat/clear", chatHandler.Clear)
		r.Post("/session/logout", chatHandler.Logout)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func llmAPIKey(cfg *config.Config) string {
	if llm.Provider(cfg.DefaultLLM) == llm.ProviderOpenAI {
		return cfg.OpenAIAPIKey
	}
	return cfg.AnthropicAPIKey
}
