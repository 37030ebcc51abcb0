// Command listing-gen generates marketplace listings from product photos
// and model identifiers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raine/listing-content/config"
	"github.com/raine/listing-content/internal/generator"
	"github.com/raine/listing-content/internal/imagestore"
	"github.com/raine/listing-content/internal/listing"
	"github.com/raine/listing-content/internal/llm"
	"github.com/raine/listing-content/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "listing-gen",
		Short: "Generate marketplace listings with an AI provider",
		Long: "listing-gen turns product photos and/or a model identifier into a\n" +
			"structured marketplace listing using Gemini, OpenAI or an\n" +
			"OpenAI-compatible endpoint.",
		SilenceUsage: true,
	}

	root.AddCommand(generateCmd())
	root.AddCommand(promptCmd())
	root.AddCommand(reviewCmd())
	return root
}

// loadConfig reads config.env and the environment and sets up logging.
func loadConfig() (config.Config, error) {
	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return cfg, nil
}

// newService wires the generator from configuration. A provider that cannot
// be constructed is returned as an error when requireProvider is set and
// left nil otherwise.
func newService(ctx context.Context, cfg config.Config, requireProvider bool) (*generator.Service, func(), error) {
	provider, err := llm.NewProvider(ctx, cfg.Provider)
	if err != nil {
		if requireProvider {
			return nil, nil, err
		}
		log.Debug().Err(err).Msg("no provider available")
	}

	fetcher := imagestore.Router{
		Remote: imagestore.NewDownloader().
			WithTimeout(cfg.ImageFetchTimeout).
			WithMaxSize(cfg.ImageMaxBytes),
		Local: imagestore.NewFileFetcher().WithMaxSize(cfg.ImageMaxBytes),
	}

	parser := listing.NewParser()
	parser.DescriptionFallbackLimit = cfg.DescriptionFallbackLimit
	parser.TitleMaxLength = cfg.TitleMaxLength

	opts := []generator.Option{
		generator.WithParser(parser),
		generator.WithPromptBuilder(listing.PromptBuilder{
			RichSchema:     cfg.RichSchema,
			TitleMaxLength: cfg.TitleMaxLength,
		}),
	}

	cleanup := func() {}
	if cfg.DBPath != "" {
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open review queue: %w", err)
		}
		log.Debug().Str("dbPath", cfg.DBPath).Msg("review queue enabled")
		opts = append(opts, generator.WithRecorder(store))
		cleanup = func() { store.Close() }
	}

	return generator.NewService(provider, fetcher, opts...), cleanup, nil
}
