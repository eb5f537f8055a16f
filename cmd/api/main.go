package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ragbot/internal/answer"
	"ragbot/internal/api"
	"ragbot/internal/config"
	"ragbot/internal/providers"
	"ragbot/internal/rag"
	"ragbot/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	reg, err := storage.Open(openCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("open registry: %v", err)
	}
	defer reg.Close()

	rules, err := answer.LoadRules(cfg.FiltersFile)
	if err != nil {
		log.Fatal(err)
	}
	pipeline, err := answer.NewPipeline(rules, cfg.MaxAnswerWords)
	if err != nil {
		log.Fatal(err)
	}

	// A nil provider puts the query and upload endpoints in degraded mode.
	var llm providers.LLMProvider
	mgr, err := providers.NewManager(ctx, cfg)
	switch {
	case errors.Is(err, providers.ErrNotConfigured):
		log.Printf("WARNING: no llm provider configured (%s); serving in degraded mode", cfg.LLMProviders)
	case err != nil:
		log.Fatalf("build llm providers: %v", err)
	default:
		log.Printf("llm providers ready: %d (%v)", mgr.LLMCount(), mgr.Refs())
		llm = mgr
	}

	intake := rag.NewIntake(reg, rag.IntakeConfig{
		UploadsDir:   cfg.UploadsDir,
		CorpusPrefix: cfg.CorpusPrefix,
		MaxFileBytes: cfg.MaxFileBytes(),
		MaxFiles:     cfg.MaxUploadFiles,
	})
	gateway := rag.NewGateway(reg, llm, pipeline)
	maxBody := int64(cfg.MaxUploadFiles)*cfg.MaxFileBytes() + 1<<20
	h := api.NewServer(intake, gateway, maxBody)

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		log.Println("shutdown signal received, stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("ragbot api listening on %s registry=%s llm_providers=%q ready=%t", cfg.APIAddr, cfg.RegistryBackend, cfg.LLMProviders, gateway.Ready())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
