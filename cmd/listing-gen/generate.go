package main

import (
	"encoding/json"
	"fmt"

	"github.com/raine/listing-content/internal/generator"
	"github.com/raine/listing-content/internal/listing"
	"github.com/spf13/cobra"
)

type requestFlags struct {
	images   []string
	model    string
	context  string
	provider string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.images, "image", "i", nil, "image URL or local path (repeatable)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model identifier, e.g. WH-1000XM4")
	cmd.Flags().StringVarP(&f.context, "context", "c", "", "free-form context from the seller")
	cmd.Flags().StringVar(&f.provider, "provider", "", "provider override (gemini, openai, openai_compat)")
}

func (f *requestFlags) request() listing.GenerationRequest {
	return listing.GenerationRequest{
		Images:          f.images,
		ModelIdentifier: f.model,
		FreeformContext: f.context,
	}
}

func generateCmd() *cobra.Command {
	var flags requestFlags
	var footer bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a listing and print it as JSON",
		Example: "  listing-gen generate --image https://example.com/1.jpg --model WH-1000XM4\n" +
			"  listing-gen generate -i photo1.jpg -i photo2.jpg --context \"Includes case\" --footer",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flags.provider != "" {
				cfg.Provider.Provider = flags.provider
			}

			svc, cleanup, err := newService(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer cleanup()

			content, err := svc.Generate(cmd.Context(), flags.request())
			if err != nil {
				return fmt.Errorf("%w (status %d)", err, generator.HTTPStatus(err))
			}

			out, err := renderListing(content, footer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&footer, "footer", false, "append a search keyword footer to the description")
	return cmd
}

// renderListing encodes content for output. The footer goes into a copy so
// the generated listing stays as it was recorded.
func renderListing(content *listing.ListingContent, footer bool) ([]byte, error) {
	view := *content
	if footer {
		view.Description = generator.AppendKeywordFooter(view.Description, view.SearchKeywords)
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}
	return out, nil
}

func promptCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the instruction that would be sent to the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flags.provider != "" {
				cfg.Provider.Provider = flags.provider
			}
			cfg.DBPath = ""

			svc, _, err := newService(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}

			instruction, err := svc.Instruction(flags.request())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), instruction)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
