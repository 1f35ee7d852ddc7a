package main

import (
	"fmt"
	"log"

	"markbench/internal/config"
	"markbench/internal/grading"
	"markbench/internal/handler"
	"markbench/internal/llm"
	"markbench/internal/port"
	"markbench/internal/repository/postgres"
	"markbench/internal/router"
	"markbench/internal/service"
	s3storage "markbench/internal/storage/s3"

	// Provider backends register themselves on import.
	_ "markbench/internal/llm/anthropic"
	_ "markbench/internal/llm/gemini"
	_ "markbench/internal/llm/openai"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	resultRepo := postgres.NewGradingResultRepo(db)

	// Initialize storage; an empty bucket disables archiving
	var objectStorage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		objectStorage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	// Load grading policy and build the engine
	gradingCfg := config.LoadGradingConfig(cfg.Grading.PolicyPath)
	engine, err := grading.NewEngine(gradingCfg, llmClient)
	if err != nil {
		return fmt.Errorf("failed to build grading engine: %w", err)
	}

	// Initialize services
	gradingSvc := service.NewGradingService(engine, resultRepo, objectStorage, &cfg.S3)

	// Initialize handlers
	gradingH := handler.NewGradingHandler(gradingSvc)
	healthH := handler.NewHealthHandler(db, llmClient)

	// Setup router
	r := router.Setup(gradingH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
