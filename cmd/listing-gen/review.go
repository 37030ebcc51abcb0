package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/raine/listing-content/internal/storage"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	var limit int
	var resolve string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List generations whose response could not be parsed",
		Long: "Lists degraded listings recorded in LISTING_DB_PATH, newest first.\n" +
			"Use --resolve to remove an entry once it has been handled.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return errors.New("LISTING_DB_PATH is not set")
			}

			store, err := storage.NewSQLiteStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if resolve != "" {
				deleted, err := store.DeleteGeneration(cmd.Context(), resolve)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("generation %s not found", resolve)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "resolved %s\n", resolve)
				return nil
			}

			generations, err := store.ListParseFailed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(generations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No listings awaiting review.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPROVIDER\tMODEL\tIMAGES\tRESPONSE")
			for _, g := range generations {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					g.ID,
					g.CreatedAt.Local().Format("2006-01-02 15:04"),
					g.ProviderID,
					g.ModelIdentifier,
					g.ImageCount,
					excerpt(g.Content.Description, 60),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&resolve, "resolve", "", "remove the entry with this ID")
	return cmd
}

// excerpt returns the first line of s cut to limit runes.
func excerpt(s string, limit int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit-1]) + "…"
	}
	return s
}
