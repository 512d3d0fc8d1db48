package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/ai"
	"github.com/spigell/nexaforge/internal/ai/gemini"
	"github.com/spigell/nexaforge/internal/logger"
	"github.com/spigell/nexaforge/internal/secrets"
	"github.com/spigell/nexaforge/internal/storage"
)

// setup builds the logger and reads the config every command starts from.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	return logger, config
}

func newStore(cfg StorageConfig, logger *zap.Logger) (storage.Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		logger.Info("using in-memory storage", zap.String("hint", "set storage.dir to keep data between runs"))
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Info("using file storage", zap.String("dir", dir))
	return store, nil
}

func newAssistant(ctx context.Context, cfg *AIConfig, observer gemini.Observer, logger *zap.Logger) (ai.Assistant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (or set ai.gemini.api-key-file)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewAssistant(generator, gemini.Config{
		ReasoningModel: cfg.Gemini.ReasoningModel,
		MaxLogLength:   cfg.Gemini.MaxLogLength,
	}, logger, observer)
}
