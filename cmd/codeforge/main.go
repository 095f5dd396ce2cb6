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

	"codeforge/server/internal/agent"
	"codeforge/server/internal/command"
	"codeforge/server/internal/config"
	"codeforge/server/internal/db"
	"codeforge/server/internal/httpapi"
	"codeforge/server/internal/logging"
	"codeforge/server/internal/scrape"
	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
	"codeforge/server/internal/workflows"
)

var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		LoadConfig:   config.Load,
		RunServe:     runServe,
		RunMigrateUp: runMigrateUp,
	})
	if err := app.RunContext(rootCtx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(logging.Options{
		Level:     cfg.LogLevel,
		Component: "codeforge",
	})
	logger.Info("starting", "version", version, "db", cfg.DBPath)

	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.SyncSchema(gdb); err != nil {
		return fmt.Errorf("sync schema: %w", err)
	}

	st := store.New(gdb, cfg.InternalKey)
	engine := workflow.NewEngine(st, logger.With("component", "workflow"))

	llm := agent.NewResponsesClient(agent.OpenAIConfig{
		BaseURL: cfg.OpenAI.Endpoint,
		Model:   cfg.OpenAI.Model,
		APIKey:  cfg.OpenAI.APIKey,
	}, nil)

	if err := workflows.RegisterAll(engine, workflows.Deps{
		Store:       st,
		InternalKey: cfg.InternalKey,
		LLM:         llm,
		Scraper:     scrape.NewHTTPScraper(nil),
		Logger:      logger.With("component", "workflows"),
	}); err != nil {
		return fmt.Errorf("register workflows: %w", err)
	}

	server := httpapi.NewServer(httpapi.Deps{
		Store:       st,
		InternalKey: cfg.InternalKey,
		Engine:      engine,
		Auth:        httpapi.StaticTokenAuthenticator{Token: cfg.AuthToken},
		Logger:      logger.With("component", "httpapi"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
	}

	engine.Wait()
	logger.Info("stopped")
	return nil
}

func runMigrateUp(ctx context.Context, cfg config.Config) error {
	_ = ctx
	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.SyncSchema(gdb); err != nil {
		return fmt.Errorf("sync schema: %w", err)
	}
	return nil
}
