package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bigshift-projects/naraworks/analyze"
	"github.com/bigshift-projects/naraworks/api"
	"github.com/bigshift-projects/naraworks/config"
	"github.com/bigshift-projects/naraworks/database"
	"github.com/bigshift-projects/naraworks/engine"
	"github.com/bigshift-projects/naraworks/llm"
	"github.com/bigshift-projects/naraworks/proposal"
	"github.com/bigshift-projects/naraworks/writer"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger)
	case "schema":
		schemaCmd(cfg, logger)
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	proposals := proposal.NewPostgresStore(pgPool)
	knowledge := proposal.NewPostgresKnowledgeStore(pgPool)
	sectionWriter := writer.New(llmClient, logger)
	gen := engine.New(sectionWriter, sectionWriter, proposals, knowledge, logger)

	server := api.New(api.Deps{
		Proposals: proposals,
		Knowledge: knowledge,
		Analyzer:  analyze.New(llmClient, logger),
		Drafter:   sectionWriter,
		Runner:    gen,
	}, logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	logger.Printf("naraworks backend listening on :%s", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func schemaCmd(cfg config.Config, logger *log.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	if err := database.EnsureSchema(ctx, pgPool); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}
	logger.Println("schema is up to date")
}

func printUsage() {
	fmt.Println("Usage: naraworks <command>")
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the HTTP API backend")
	fmt.Println("  schema   Create or update the database tables")
}
