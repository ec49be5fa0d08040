package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/veridian/internal/cli"
)

func watchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the screening watchlist",
	}

	cmd.AddCommand(watchlistRefreshCmd())
	cmd.AddCommand(watchlistListCmd())

	return cmd
}

func watchlistRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the watchlist snapshot from the configured source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			provider, err := initWatchlist(ctx, cfg, store)
			if err != nil {
				return err
			}

			snapshot := provider.Current()
			fmt.Printf("Watchlist refreshed: %d entries from %s\n", snapshot.Len(), snapshot.Source)
			return nil
		},
	}
}

func watchlistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached watchlist entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.GetWatchlistEntries(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No cached watchlist entries. Run 'veridian watchlist refresh' first."))
				return nil
			}

			for _, entry := range entries {
				line := fmt.Sprintf("%-20s  %-30s  %-3s  %s", entry.ID, entry.Name, entry.Nationality, entry.Category)
				if len(entry.Aliases) > 0 {
					line += cli.SubtleStyle.Render("  aka " + strings.Join(entry.Aliases, ", "))
				}
				fmt.Println(line)
			}
			fmt.Printf("\n%d entries\n", len(entries))
			return nil
		},
	}
}
