package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"liner/internal/config"
	"liner/internal/daemonctl"
	"liner/internal/history"
	"liner/internal/logging"
	"liner/internal/notifications"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var daemonFlag bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "liner",
		Short:         "AI radio host announcements for MPD",
		Long:          "Liner watches MPD for track changes and speaks a short introduction over a volume dip.\nRunning it with no arguments toggles the background watcher on or off.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The bare invocation handles config failures itself: the
			// toggle must exit zero even when the config file is broken.
			if !cmd.HasParent() || shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemonFlag {
				return runDaemon(cmd.Context(), ctx)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return nil
			}
			sup := daemonctl.NewSupervisor(cfg.RegistryPath(), launchOptions(ctx), toggleLogger())
			return runToggle(cmd.Context(), cfg, sup, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&daemonFlag, "daemon", false, "Run the watch loop in the foreground (internal)")
	_ = rootCmd.Flags().MarkHidden("daemon")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// daemonControl is the supervisor surface the toggle drives.
type daemonControl interface {
	IsRunning() bool
	Start() (int, error)
	StopAll() error
}

// runToggle flips the watcher between running and stopped and prints the
// resulting state. It always returns nil: the toggle exits zero no matter
// what went wrong, with errors reported on stderr and the printed word
// reflecting the state actually reached.
func runToggle(ctx context.Context, cfg *config.Config, sup daemonControl, stdout, stderr io.Writer) error {
	var state string
	if sup.IsRunning() {
		if err := sup.StopAll(); err != nil {
			fmt.Fprintln(stderr, err)
		}
		state = "Off"
	} else {
		if _, err := sup.Start(); err != nil {
			fmt.Fprintln(stderr, err)
			state = "Off"
		} else {
			state = "On"
		}
	}

	persistEnabled(ctx, cfg, state == "On", stderr)
	notifyToggle(ctx, cfg, state)
	fmt.Fprintln(stdout, state)
	return nil
}

func persistEnabled(ctx context.Context, cfg *config.Config, enabled bool, stderr io.Writer) {
	store, err := history.Open(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "record toggle state: %v\n", err)
		return
	}
	defer store.Close()
	if err := store.SetEnabled(ctx, enabled); err != nil {
		fmt.Fprintf(stderr, "record toggle state: %v\n", err)
	}
}

func notifyToggle(ctx context.Context, cfg *config.Config, state string) {
	notifyCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	body := "Announcements are off"
	if state == "On" {
		body = "Announcements are on"
	}
	_ = notifications.NewService(cfg).Notify(notifyCtx, "liner", body)
}

func launchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{ConfigPath: ctx.flagValue()}
}

// toggleLogger surfaces supervisor warnings (unreadable registry, failed
// signals) on stderr without dragging the daemon's file logger into the CLI.
func toggleLogger() *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}
