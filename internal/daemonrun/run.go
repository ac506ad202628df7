package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"

	"liner/internal/commentary"
	"liner/internal/config"
	"liner/internal/daemonctl"
	"liner/internal/history"
	"liner/internal/logging"
	"liner/internal/notifications"
	"liner/internal/player"
	"liner/internal/preflight"
	"liner/internal/services/llm"
	"liner/internal/services/tts"
	"liner/internal/speech"
	"liner/internal/watcher"
)

// retentionInterval is how often stored announcements are pruned while the
// daemon runs. Pruning also happens once at startup.
const retentionInterval = 6 * time.Hour

// Options configures the daemon process runtime.
type Options struct {
	// ConfigPath is the resolved configuration file location, watched for
	// changes while the daemon runs. Empty disables hot reload.
	ConfigPath string
}

// Run hosts the watch loop until the context is cancelled or a termination
// signal arrives. It wires the collaborators, registers this process in the
// watcher registry, and on shutdown stops the loop, cancels any active
// playback, and removes its own registry entry.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, unix.SIGINT, unix.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	supervisor := daemonctl.NewSupervisor(cfg.RegistryPath(), daemonctl.LaunchOptions{}, logger)
	pid := os.Getpid()
	if err := supervisor.RegisterSelf(pid); err != nil {
		logger.Warn("failed to register watcher pid",
			logging.Int(logging.FieldPID, pid),
			logging.Error(err),
		)
	}
	defer func() {
		if err := supervisor.UnregisterSelf(pid); err != nil {
			logger.Warn("failed to unregister watcher pid",
				logging.Int(logging.FieldPID, pid),
				logging.Error(err),
			)
		}
	}()

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open announcement store", logging.Error(err))
		return err
	}
	defer store.Close()

	mpdClient := player.New(cfg, logger)
	defer mpdClient.Close()

	results := preflight.RunAll(signalCtx, cfg)
	logEnvironmentSnapshot(logger, results)
	for _, failure := range preflight.Failures(results) {
		logger.Warn("preflight check failed",
			logging.String("check", failure.Name),
			logging.String("detail", failure.Detail),
		)
	}

	controller := speech.NewController(cfg, ttsClientFrom(cfg), logger)
	generator := commentary.NewGenerator(llm.NewClient(llmConfigFrom(cfg)), logger)
	notifier := notifications.NewService(cfg)

	w := watcher.New(cfg, watcher.Deps{
		Tracks:    mpdClient,
		Generator: generator,
		Speaker:   controller,
		Dipper:    player.NewFader(mpdClient, logger),
		Store:     store,
		Notifier:  notifier,
	}, logger)
	if err := w.Start(signalCtx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	go runRetention(signalCtx, cfg.Storage.RetentionDays, store, logger)

	reload := newReloader(opts.ConfigPath, logger, func(next *config.Config) {
		w.ApplySettings(watcher.SettingsFromConfig(next))
		controller.SetSynthesizer(ttsClientFrom(next))
	})
	go reload.watch(signalCtx)

	logger.Info("liner daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.Int(logging.FieldPID, pid),
	)

	<-signalCtx.Done()
	logger.Info("liner daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_stop"),
		logging.Int(logging.FieldPID, pid),
	)
	w.Stop()
	controller.Cancel()
	return nil
}

// newLogger writes to the log file under the data directory. A foreground run
// (a terminal attached to stderr) gets the same stream mirrored to stderr;
// detached daemons are spawned with stderr discarded.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	outputs := []string{cfg.LogPath()}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		outputs = append(outputs, "stderr")
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}

func ttsClientFrom(cfg *config.Config) *tts.Client {
	return tts.NewClient(tts.Config{
		APIKey:         cfg.Speech.APIKey,
		BaseURL:        cfg.Speech.BaseURL,
		Model:          cfg.Speech.Model,
		Voice:          cfg.Speech.Voice,
		Format:         cfg.Speech.Format,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	})
}

func llmConfigFrom(cfg *config.Config) llm.Config {
	return llm.Config{
		APIKey:         cfg.Commentary.APIKey,
		BaseURL:        cfg.Commentary.BaseURL,
		Model:          cfg.Commentary.Model,
		Referer:        cfg.Commentary.Referer,
		Title:          cfg.Commentary.Title,
		Temperature:    cfg.Commentary.Temperature,
		TimeoutSeconds: cfg.Commentary.TimeoutSeconds,
	}
}

func runRetention(ctx context.Context, retentionDays int, store *history.Store, logger *slog.Logger) {
	prune := func() {
		removed, err := store.PruneOlderThan(ctx, retentionDays)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("prune announcement history", logging.Error(err))
			}
			return
		}
		if removed > 0 {
			logger.Info("pruned announcement history",
				logging.Int64("removed", removed),
				logging.Int("retention_days", retentionDays),
			)
		}
	}

	prune()
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func logEnvironmentSnapshot(logger *slog.Logger, results []preflight.Result) {
	attrs := make([]logging.Attr, 0, len(results)+1)
	attrs = append(attrs, logging.String(logging.FieldEventType, "environment_snapshot"))
	for _, res := range results {
		attrs = append(attrs, logging.Bool(snapshotKey(res.Name), res.Passed))
	}
	logger.Info("environment snapshot", logging.Args(attrs...)...)
}

func snapshotKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
