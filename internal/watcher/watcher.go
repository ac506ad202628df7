package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"liner/internal/commentary"
	"liner/internal/config"
	"liner/internal/history"
	"liner/internal/logging"
	"liner/internal/notifications"
	"liner/internal/player"
)

// TrackSource reports the currently playing track; nil means nothing is
// playing this tick.
type TrackSource interface {
	CurrentTrack(ctx context.Context) (*player.Track, error)
}

// Generator produces announcement text for a track change.
type Generator interface {
	Generate(ctx context.Context, req commentary.Request) (string, error)
}

// Speaker synthesizes announcement audio and controls its playback.
type Speaker interface {
	IsSpeaking() bool
	Cancel()
	Synthesize(ctx context.Context, text string) (string, error)
	Play(ctx context.Context, path string) (bool, error)
}

// VolumeDipper brackets an action with a music volume dip.
type VolumeDipper interface {
	WithDip(ctx context.Context, dip player.Dip, action func(context.Context) error) error
}

// Store persists announcement history and the last-announced marker.
type Store interface {
	Record(ctx context.Context, a *history.Announcement) error
	Recent(ctx context.Context, limit int) ([]*history.Announcement, error)
	LastTrackID(ctx context.Context) (string, error)
	SetLastTrackID(ctx context.Context, id string) error
}

// Deps are the collaborators the watch loop drives.
type Deps struct {
	Tracks    TrackSource
	Generator Generator
	Speaker   Speaker
	Dipper    VolumeDipper
	Store     Store
	Notifier  notifications.Service
}

// Settings are the knobs a config reload can change while the loop runs.
type Settings struct {
	PollInterval     time.Duration
	Dip              player.Dip
	NotifyOnAnnounce bool
}

// SettingsFromConfig derives the live-tunable settings from a validated
// config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		PollInterval: time.Duration(cfg.Watch.PollIntervalSeconds) * time.Second,
		Dip: player.Dip{
			Level:    cfg.Fade.DipLevel,
			Duration: time.Duration(cfg.Fade.DurationMs) * time.Millisecond,
			Steps:    cfg.Fade.Steps,
		},
		NotifyOnAnnounce: cfg.Notifications.OnAnnounce,
	}
}

// announced is the identity and display metadata of the last track an
// announcement cycle was started for. The metadata feeds the interruption
// context when a newer track cuts that announcement off.
type announced struct {
	id     string
	name   string
	artist string
}

// Watcher polls the track source and runs one announcement cycle per track
// change. Ticks are strictly sequential; each cycle runs on its own goroutine
// so later ticks keep polling and can interrupt an in-progress playback.
type Watcher struct {
	deps         Deps
	historyLimit int
	logger       *slog.Logger

	mu       sync.Mutex
	settings Settings
	last     announced
	running  bool
	cancel   context.CancelFunc

	wg sync.WaitGroup
}

// New constructs a watcher. All collaborators come in through Deps so tests
// can substitute any of them.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Watcher {
	return &Watcher{
		deps:         deps,
		historyLimit: cfg.Commentary.HistoryLimit,
		logger:       logging.NewComponentLogger(logger, "watcher"),
		settings:     SettingsFromConfig(cfg),
	}
}

// Start begins the poll loop. It runs until ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	// Resume the marker so a restart does not re-announce the track that is
	// still playing.
	if id, err := w.deps.Store.LastTrackID(runCtx); err != nil {
		w.logger.Warn("failed to load last announced track", logging.Error(err))
	} else if id != "" {
		w.mu.Lock()
		w.last = announced{id: id}
		w.mu.Unlock()
	}

	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop cancels the loop and every in-flight announcement cycle, then waits
// for them to finish. Active playback is killed through the cycle context.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

// ApplySettings installs reloaded settings. The next tick and the next
// announcement cycle pick them up; a cycle already in flight keeps the
// settings it started with.
func (w *Watcher) ApplySettings(settings Settings) {
	w.mu.Lock()
	w.settings = settings
	w.mu.Unlock()
	w.logger.Info("watcher settings updated",
		logging.Duration("poll_interval", settings.PollInterval),
		logging.Int("dip_level", settings.Dip.Level),
		logging.Bool("notify_on_announce", settings.NotifyOnAnnounce),
	)
}

func (w *Watcher) pollInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.settings.PollInterval <= 0 {
		return time.Second
	}
	return w.settings.PollInterval
}
