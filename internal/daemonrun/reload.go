package daemonrun

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"liner/internal/config"
	"liner/internal/logging"
)

// reloadDebounce coalesces the burst of filesystem events an editor save
// produces into one reload.
const reloadDebounce = 250 * time.Millisecond

// reloader re-reads the configuration file when it changes on disk and hands
// each validated result to apply. An unparseable or invalid file is skipped,
// keeping the last good settings live.
type reloader struct {
	path     string
	logger   *slog.Logger
	apply    func(*config.Config)
	debounce time.Duration

	load func(string) (*config.Config, error)
}

func newReloader(path string, logger *slog.Logger, apply func(*config.Config)) *reloader {
	return &reloader{
		path:     path,
		logger:   logging.NewComponentLogger(logger, "reload"),
		apply:    apply,
		debounce: reloadDebounce,
		load: func(p string) (*config.Config, error) {
			cfg, _, _, err := config.Load(p)
			return cfg, err
		},
	}
}

// watch blocks until ctx is cancelled. The parent directory is watched rather
// than the file itself, so editors that save by rename-and-replace keep
// triggering reloads.
func (r *reloader) watch(ctx context.Context) {
	if r.path == "" {
		return
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warn("config watch unavailable", logging.Error(err))
		return
	}
	defer fsw.Close()

	dir := filepath.Dir(r.path)
	if err := fsw.Add(dir); err != nil {
		r.logger.Warn("config watch unavailable",
			logging.String("dir", dir),
			logging.Error(err),
		)
		return
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !r.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(r.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			r.logger.Warn("config watch error", logging.Error(err))
		case <-fire:
			timer = nil
			fire = nil
			r.reload()
		}
	}
}

func (r *reloader) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != r.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

func (r *reloader) reload() {
	next, err := r.load(r.path)
	if err != nil {
		r.logger.Warn("config reload skipped", logging.Error(err))
		return
	}
	r.apply(next)
	r.logger.Info("config reloaded", logging.String("path", r.path))
}
