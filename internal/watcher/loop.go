package watcher

import (
	"context"
	"log/slog"
	"time"

	"liner/internal/commentary"
	"liner/internal/history"
	"liner/internal/logging"
	"liner/internal/player"
)

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	w.logger.Info("watch loop started", logging.String(logging.FieldEventType, "watch_start"))
	defer w.logger.Info("watch loop stopped", logging.String(logging.FieldEventType, "watch_stop"))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval()):
		}
	}
}

// tick polls once and, when the playing track differs from the last announced
// one, interrupts any active playback and starts an announcement cycle for
// the new track. Only playback is taken over: a generation still in flight
// for an older track is left to finish on its own.
func (w *Watcher) tick(ctx context.Context) {
	track, err := w.deps.Tracks.CurrentTrack(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("track poll failed", logging.Error(err))
		}
		return
	}
	if track == nil {
		return
	}

	w.mu.Lock()
	if track.ID == w.last.id {
		w.mu.Unlock()
		return
	}
	prev := w.last
	w.mu.Unlock()

	req := commentary.Request{
		TrackName: track.Name,
		Artist:    track.Artist,
		Album:     track.Album,
	}
	if w.deps.Speaker.IsSpeaking() {
		req.WasInterrupted = true
		req.InterruptedName = prev.name
		req.InterruptedArtist = prev.artist
		w.logger.Info("interrupting announcement for new track",
			logging.String(logging.FieldTrackID, track.ID),
			logging.String(logging.FieldEventType, "interruption"),
		)
		w.deps.Speaker.Cancel()
	}

	w.mu.Lock()
	w.last = announced{id: track.ID, name: track.Name, artist: track.Artist}
	settings := w.settings
	w.mu.Unlock()

	// Mark the track announced before generation starts so a crash or an even
	// newer change does not re-trigger it.
	if err := w.deps.Store.SetLastTrackID(ctx, track.ID); err != nil && ctx.Err() == nil {
		w.logger.Warn("failed to persist last announced track", logging.Error(err))
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.announce(ctx, track, req, settings)
	}()
}

// announce runs one full cycle: build history context, generate commentary,
// record it, synthesize audio, then play it under a volume dip. Generation
// and synthesis failures abort the cycle; the last-announced marker stays
// set, so the track is deliberately skipped rather than retried.
func (w *Watcher) announce(ctx context.Context, track *player.Track, req commentary.Request, settings Settings) {
	logger := w.logger.With(
		logging.String(logging.FieldTrackID, track.ID),
		logging.String(logging.FieldTrack, trackLabel(track)),
	)

	req.Recent = w.recentCommentary(ctx)

	text, err := w.deps.Generator.Generate(ctx, req)
	if err != nil {
		w.abortCycle(ctx, logger, "commentary generation failed", err)
		return
	}

	record := &history.Announcement{
		TrackID:    track.ID,
		TrackName:  track.Name,
		Artist:     track.Artist,
		Album:      track.Album,
		Commentary: text,
	}
	if err := w.deps.Store.Record(ctx, record); err != nil && ctx.Err() == nil {
		logger.Warn("failed to record announcement", logging.Error(err))
	}

	audioPath, err := w.deps.Speaker.Synthesize(ctx, text)
	if err != nil {
		w.abortCycle(ctx, logger, "speech synthesis failed", err)
		return
	}

	// The toast goes out as the voice starts, not after it finishes.
	if settings.NotifyOnAnnounce && w.deps.Notifier != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.deps.Notifier.Notify(ctx, trackLabel(track), text); err != nil && ctx.Err() == nil {
				logger.Warn("announcement notification failed", logging.Error(err))
			}
		}()
	}

	var completed bool
	err = w.deps.Dipper.WithDip(ctx, settings.Dip, func(dipCtx context.Context) error {
		done, playErr := w.deps.Speaker.Play(dipCtx, audioPath)
		completed = done
		return playErr
	})
	switch {
	case err != nil:
		w.abortCycle(ctx, logger, "announcement playback failed", err)
	case completed:
		logger.Info("announcement completed", logging.String(logging.FieldEventType, "announcement"))
	case ctx.Err() == nil:
		logger.Info("announcement interrupted", logging.String(logging.FieldEventType, "interruption"))
	}
}

// recentCommentary returns the latest announcement texts, newest first, for
// prompt context.
func (w *Watcher) recentCommentary(ctx context.Context) []string {
	if w.historyLimit <= 0 {
		return nil
	}
	records, err := w.deps.Store.Recent(ctx, w.historyLimit)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("failed to load recent announcements", logging.Error(err))
		}
		return nil
	}
	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, record.Commentary)
	}
	return lines
}

// abortCycle logs a cycle-ending failure, quietly when caused by shutdown.
func (w *Watcher) abortCycle(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if ctx.Err() != nil {
		logger.Debug(msg, logging.Error(err))
		return
	}
	logger.Warn(msg, logging.Error(err))
}

func trackLabel(track *player.Track) string {
	if track.Artist == "" {
		return track.Name
	}
	return track.Name + " - " + track.Artist
}
