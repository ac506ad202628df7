package player

import (
	"context"
	"log/slog"
	"math"
	"time"

	"liner/internal/logging"
)

// Sleeps shorter than this are skipped so a fade already behind schedule
// never stalls on redundant waits.
const minStepSleep = 5 * time.Millisecond

// VolumeControl is the slice of the player client the fader drives.
type VolumeControl interface {
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, volume int) error
}

// Dip describes one volume dip: the level music drops to and the fade shape
// used on the way down and back up.
type Dip struct {
	Level    int
	Duration time.Duration
	Steps    int
}

// Fader drives smooth volume transitions on a player.
type Fader struct {
	control VolumeControl
	logger  *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// FaderOption customizes a Fader.
type FaderOption func(*Fader)

// WithClock overrides the wall clock (useful for tests).
func WithClock(now func() time.Time) FaderOption {
	return func(f *Fader) {
		if now != nil {
			f.now = now
		}
	}
}

// WithSleep overrides how inter-step sleeps are performed (useful for tests).
func WithSleep(sleep func(time.Duration)) FaderOption {
	return func(f *Fader) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// NewFader constructs a fader over the given volume control.
func NewFader(control VolumeControl, logger *slog.Logger, opts ...FaderOption) *Fader {
	f := &Fader{
		control: control,
		logger:  logging.NewComponentLogger(logger, "fader"),
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fade drives the volume from one level to another over the given duration.
// Per-step targets follow wall-clock elapsed time, not step count, so slow
// volume-set calls never accumulate delay: progress is
// max(stepsElapsed, timeElapsed) clamped to [0,1], which guarantees the final
// set call is exactly the target volume regardless of jitter.
func (f *Fader) Fade(ctx context.Context, from, to int, duration time.Duration, steps int) error {
	if steps < 1 {
		steps = 1
	}
	if from == to || duration <= 0 {
		return f.control.SetVolume(ctx, to)
	}

	start := f.now()
	stepInterval := duration / time.Duration(steps)
	for step := 1; step <= steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepsFrac := float64(step) / float64(steps)
		timeFrac := float64(f.now().Sub(start)) / float64(duration)
		progress := math.Max(stepsFrac, timeFrac)
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
		target := from + int(math.Round(float64(to-from)*progress))
		if err := f.control.SetVolume(ctx, target); err != nil {
			return err
		}
		if step == steps || progress >= 1 {
			break
		}
		boundary := start.Add(time.Duration(step) * stepInterval)
		if remaining := boundary.Sub(f.now()); remaining >= minStepSleep {
			f.sleep(remaining)
		}
	}
	return nil
}

// WithDip reads the current volume, fades down to the dip level, runs action
// to completion, and always fades back to the original volume, even when
// action errors; its error propagates. An unreadable current volume (MPD
// reports -1 when no output is active) runs the action without touching
// volume at all.
func (f *Fader) WithDip(ctx context.Context, dip Dip, action func(context.Context) error) error {
	original, err := f.control.Volume(ctx)
	if err != nil || original < 0 {
		f.logger.Warn("current volume unreadable, skipping dip",
			logging.Int("reported", original),
			logging.Error(err),
		)
		return action(ctx)
	}
	if original <= dip.Level {
		// Already at or below the dip level; nothing to restore.
		return action(ctx)
	}

	if err := f.Fade(ctx, original, dip.Level, dip.Duration, dip.Steps); err != nil {
		f.logger.Warn("fade down failed", logging.Error(err))
	}

	actionErr := action(ctx)

	// Restore runs even when the surrounding context was cancelled mid-action.
	restoreCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		restoreCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := f.Fade(restoreCtx, dip.Level, original, dip.Duration, dip.Steps); err != nil {
		f.logger.Warn("volume restore failed",
			logging.Int("volume", original),
			logging.Error(err),
		)
	}

	return actionErr
}
