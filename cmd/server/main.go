package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assistente-fontes/course-assistant/internal/api"
	"github.com/assistente-fontes/course-assistant/internal/auth"
	"github.com/assistente-fontes/course-assistant/internal/config"
	"github.com/assistente-fontes/course-assistant/internal/core"
	"github.com/assistente-fontes/course-assistant/internal/store"
	"github.com/assistente-fontes/course-assistant/internal/summary"
)

func main() {
	// Command line flag for transcript ingestion
	ingestFlag := flag.Bool("ingest", false, "Embed the course transcripts into data_chunks and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Debug("service starting in debug mode")

	if err := run(cfg, *ingestFlag); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, ingest bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	llm, err := core.NewGeminiService(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer llm.Close()

	if ingest {
		slog.Info("starting transcript ingestion", "path", cfg.TranscriptsPath)
		n, err := dbStore.IngestTranscripts(ctx, cfg.TranscriptsPath, llm.Embed)
		if err != nil {
			return fmt.Errorf("transcript ingestion failed: %w", err)
		}
		slog.Info("transcript ingestion complete", "chunks", n)
		return nil
	}

	rag, err := core.NewRAGService(ctx, dbStore, llm)
	if err != nil {
		return fmt.Errorf("failed to initialize RAG service: %w", err)
	}

	analyzer := summary.NewDefaultAnalyzer()
	summaries := core.NewSummaryService(llm, cfg.SummaryMaxLength)
	chat := core.NewChatService(llm, rag, dbStore, store.NewHealthPlanLog(cfg.HealthPlanLog), core.NewConversationStore(core.MaxConversations))

	apiHandler := api.NewAPIHandler(api.Dependencies{
		Analyzer:       analyzer,
		Chat:           chat,
		Sessions:       core.NewSessionService(dbStore, analyzer, summaries),
		Summaries:      summaries,
		Logs:           dbStore,
		Health:         dbStore,
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Users:          auth.Credentials(cfg.Users),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(apiHandler),
		ReadHeaderTimeout: 15 * time.Second,
		// websocket and summary streams stay open; no write deadline
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("could not listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exiting gracefully")
	return nil
}
