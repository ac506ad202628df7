package main

import (
	"fmt"
	"strconv"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"liner/internal/daemonctl"
	"liner/internal/history"
	"liner/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show watcher, environment, and announcement status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			sup := daemonctl.NewSupervisor(cfg.RegistryPath(), daemonctl.LaunchOptions{}, nil)
			pids, err := sup.Registry().Live()
			if err != nil {
				return fmt.Errorf("read watcher registry: %w", err)
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open announcement store: %w", err)
			}
			defer store.Close()

			enabled, err := store.Enabled(cmd.Context())
			if err != nil {
				return err
			}
			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			recent, err := store.Recent(cmd.Context(), 1)
			if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Watcher", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderRunningLine(pids, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Enabled", statusInfo, yesNo(enabled), colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, res := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !res.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(res.Name, kind, res.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Announcements", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Stored", statusInfo, strconv.FormatInt(count, 10), colorize))
			lastDetail := "none yet"
			if len(recent) > 0 {
				last := recent[0]
				lastDetail = fmt.Sprintf("%s (%s)", announcementLabel(last), humanize.Time(last.AnnouncedAt))
			}
			fmt.Fprintln(stdout, renderStatusLine("Last", statusInfo, lastDetail, colorize))
			return nil
		},
	}
}

func renderRunningLine(pids []int, colorize bool) string {
	if len(pids) == 0 {
		return renderStatusLine("Running", statusInfo, "no", colorize)
	}
	labels := make([]string, 0, len(pids))
	for _, pid := range pids {
		labels = append(labels, strconv.Itoa(pid))
	}
	return renderStatusLine("Running", statusOK, "pid "+strings.Join(labels, ", "), colorize)
}
