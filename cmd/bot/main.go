package main

import (
	"github.com/xaenox/stash-bot/internal/archive"
	"github.com/xaenox/stash-bot/internal/bot"
	"github.com/xaenox/stash-bot/internal/classifier"
	"github.com/xaenox/stash-bot/internal/storage"
	"github.com/xaenox/stash-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the archive engine
	facade := archive.NewFacade(store, archive.Limits{
		MaxPageSize:      cfg.Archive.MaxPageSize,
		DefaultPageSize:  cfg.Archive.DefaultPageSize,
		MaxCaptionLength: cfg.Archive.MaxCaptionLength,
		StoreTimeout:     cfg.Archive.StoreTimeout,
	}, logger)

	// Initialize the tag suggester
	var suggester classifier.Suggester
	if cfg.Suggester.UseGPT {
		logger.Info("Using GPT tag suggester", zap.String("model", cfg.Suggester.Model))
		suggester = classifier.NewGPTSuggester(
			cfg.Suggester.APIKey,
			cfg.Suggester.Model,
			cfg.Suggester.MaxTokens,
			cfg.Suggester.Temperature,
			cfg.Suggester.MaxTags,
			logger,
		)
	} else {
		suggester = classifier.NewHashtagSuggester(cfg.Suggester.MaxTags)
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, facade, suggester, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
