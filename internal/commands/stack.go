package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"google.golang.org/genai"

	"github.com/mott-dev/mott/internal/bot"
	"github.com/mott-dev/mott/internal/config"
	"github.com/mott-dev/mott/internal/events"
	"github.com/mott-dev/mott/internal/events/kafka"
	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/ledger/csvfile"
	"github.com/mott-dev/mott/internal/ledger/memory"
	"github.com/mott-dev/mott/internal/ledger/postgres"
	"github.com/mott-dev/mott/internal/ocr"
	"github.com/mott-dev/mott/internal/registry"
)

// buildDispatcher wires the full stack from configuration: store factory,
// registry, optional OCR extractor, optional event publisher. The returned
// close func releases the publisher.
func buildDispatcher(ctx context.Context, cfg *config.Config, log *slog.Logger) (*bot.Dispatcher, func() error, error) {
	open, err := storeFactory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var extractor ocr.Extractor
	if cfg.OCR.Enabled {
		client, err := genai.NewClient(ctx, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing vision client: %w", err)
		}
		extractor = ocr.NewGemini(client, cfg.OCR.Model, cfg.Currency)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	dispatcher := bot.New(bot.Params{
		Registry:  registry.New(open),
		Extractor: extractor,
		Publisher: publisher,
		AuditDir:  cfg.DataDir,
		Prefix:    cfg.CommandPrefix,
		Currency:  cfg.Currency,
		Log:       log,
	})
	return dispatcher, publisher.Close, nil
}

func storeFactory(ctx context.Context, cfg *config.Config) (registry.OpenStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return func(string) (ledger.Store, error) {
			return memory.NewStore(), nil
		}, nil

	case config.BackendCSV:
		return func(guildID string) (ledger.Store, error) {
			return csvfile.Open(guildDir(cfg.DataDir, guildID))
		}, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return func(guildID string) (ledger.Store, error) {
			return postgres.New(db, guildID), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func guildDir(dataDir, guildID string) string {
	return filepath.Join(dataDir, "guilds", url.PathEscape(guildID))
}
