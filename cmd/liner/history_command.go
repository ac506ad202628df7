package main

import (
	"fmt"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"liner/internal/history"
	"liner/internal/textutil"
)

const commentaryPreviewRunes = 60

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open announcement store: %w", err)
			}
			defer store.Close()

			items, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(stdout, "No announcements yet")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					humanize.Time(item.AnnouncedAt),
					item.TrackName,
					item.Artist,
					textutil.Truncate(item.Commentary, commentaryPreviewRunes),
				})
			}

			if shouldColorize(stdout) {
				fmt.Fprintln(stdout, renderTable(
					[]string{"When", "Track", "Artist", "Commentary"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintf(stdout, "%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum announcements to show")

	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete announcements older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.Storage.RetentionDays
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open announcement store: %w", err)
			}
			defer store.Close()

			removed, err := store.PruneOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d announcements older than %d days\n", removed, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Age cutoff in days (defaults to storage.retention_days)")
	return cmd
}

func announcementLabel(a *history.Announcement) string {
	if a.Artist == "" {
		return a.TrackName
	}
	return a.TrackName + " - " + a.Artist
}
