package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/chat-ledger/internal/api"
	"github.com/dvloznov/chat-ledger/internal/config"
	"github.com/dvloznov/chat-ledger/internal/infra/llm"
	"github.com/dvloznov/chat-ledger/internal/infra/sqlite"
	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/dvloznov/chat-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/chat-ledger/internal/linebot"
	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Command-line flags override the environment
	var (
		port   = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
		dbPath = flag.String("db", cfg.DatabasePath, "SQLite database path (or set DATABASE_PATH env)")
	)
	flag.Parse()
	cfg.Port = *port
	cfg.DatabasePath = *dbPath

	log := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	ctx := logger.WithContext(context.Background(), log)

	store, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open ledger store")
	}

	extractor, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.LLMBackend).Msg("Failed to create LLM backend")
	}

	recordPipeline := pipeline.NewRecordPipeline(extractor, store, pipeline.WithLocation(loc))

	log.Info().
		Str("backend", cfg.LLMBackend).
		Str("model", cfg.Model()).
		Str("timezone", loc.String()).
		Msg("Ledger pipeline ready")

	// Reply queue for the LINE webhook
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.WorkerCount, jobStore)

	var publisher jobs.Publisher
	if cfg.LineEnabled() {
		lineClient, err := linebot.NewClient(cfg.LineChannelAccessToken, "")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create LINE client")
		}
		if err := jobQueue.Start(ctx, linebot.NewReplyHandler(recordPipeline, lineClient)); err != nil {
			log.Fatal().Err(err).Msg("Failed to start reply workers")
		}
		publisher = jobQueue
		log.Info().Int("workers", cfg.WorkerCount).Msg("LINE webhook enabled")
	} else {
		log.Warn().Msg("LINE credentials not configured - /callback is disabled")
	}

	handler := api.NewRouter(api.Deps{
		Processor:     recordPipeline,
		Store:         store,
		Publisher:     publisher,
		JobStore:      jobStore,
		ChannelSecret: cfg.LineChannelSecret,
		Log:           log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain queued replies before the store goes away
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping reply queue")
	}

	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close ledger store")
	}

	log.Info().Msg("Server exited")
}
