package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"

	"liner/internal/config"
	"liner/internal/logging"
	"liner/internal/services"
)

// Synthesizer is the narrow synthesis surface the controller drives.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Format() string
}

// playerProcess is one running player subprocess, injectable in tests.
type playerProcess interface {
	Wait() error
	Kill() error
}

// session holds the live resources of one in-progress playback: the player
// process and the temp audio file it is reading. The token ties a blocked
// Play call to the session it installed, so a completion observed after a
// concurrent cancel-and-replace is never credited to the wrong call.
type session struct {
	token     string
	audioPath string
	proc      playerProcess
}

// Controller synthesizes announcement audio and plays it through an external
// player subprocess. At most one playback session is live at a time; starting
// a new one cancels any existing one first, and cancellation fully completes
// (process dead, file removed) before the replacement installs.
type Controller struct {
	command   string
	extraArgs []string
	volume    int
	logger    *slog.Logger

	mu      sync.Mutex
	synth   Synthesizer
	current *session

	start func(path string) (playerProcess, error)
}

// NewController builds a controller around the configured player command.
func NewController(cfg *config.Config, synth Synthesizer, logger *slog.Logger) *Controller {
	c := &Controller{
		command:   cfg.Player.Command,
		extraArgs: append([]string(nil), cfg.Player.ExtraArgs...),
		volume:    cfg.Speech.Volume,
		logger:    logging.NewComponentLogger(logger, "speech"),
		synth:     synth,
	}
	c.start = c.startPlayer
	return c
}

// SetSynthesizer swaps the synthesis backend. Used when a config reload
// changes the voice; in-flight synthesis calls keep the backend they started
// with.
func (c *Controller) SetSynthesizer(synth Synthesizer) {
	if synth == nil {
		return
	}
	c.mu.Lock()
	c.synth = synth
	c.mu.Unlock()
}

// IsSpeaking reports whether a playback session is live.
func (c *Controller) IsSpeaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Cancel terminates the live playback session, if any: the player process is
// killed and its audio file removed before Cancel returns. Idempotent when
// nothing is playing.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Controller) cancelLocked() {
	if c.current == nil {
		return
	}
	s := c.current
	c.current = nil
	if s.proc != nil {
		if err := s.proc.Kill(); err != nil {
			c.logger.Debug("kill player process", logging.Error(err))
		}
	}
	c.removeAudio(s.audioPath)
}

// Synthesize converts text to audio and writes it to a temp file, returning
// the file path. No session state is touched; on any error no file is left
// behind.
func (c *Controller) Synthesize(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	synth := c.synth
	c.mu.Unlock()
	if synth == nil {
		return "", services.Wrap(services.ErrSynthesis, "speech", "synthesize", "no synthesizer configured", nil)
	}

	audio, err := synth.Synthesize(ctx, text)
	if err != nil {
		return "", services.Wrap(services.ErrSynthesis, "speech", "synthesize", "synthesize announcement audio", err)
	}

	ext := strings.TrimPrefix(strings.TrimSpace(synth.Format()), ".")
	if ext == "" {
		ext = "mp3"
	}
	file, err := os.CreateTemp("", "liner-*."+ext)
	if err != nil {
		return "", services.Wrap(services.ErrSynthesis, "speech", "synthesize", "create temp audio file", err)
	}
	if _, err := file.Write(audio); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", services.Wrap(services.ErrSynthesis, "speech", "synthesize", "write temp audio file", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", services.Wrap(services.ErrSynthesis, "speech", "synthesize", "close temp audio file", err)
	}
	return file.Name(), nil
}

// Play cancels any existing session, installs a new one for the given audio
// file, and blocks until the player subprocess exits or ctx is cancelled.
// The temp file is removed on every exit path. Returns true only when the
// process exited cleanly and this call's session was still the installed one;
// a session swapped out by a concurrent Cancel or replacement Play, or ended
// by ctx cancellation, reports false with no error, since interruption is
// normal control flow.
func (c *Controller) Play(ctx context.Context, path string) (bool, error) {
	if ctx.Err() != nil {
		c.removeAudio(path)
		return false, nil
	}

	token := uuid.NewString()

	c.mu.Lock()
	c.cancelLocked()
	proc, err := c.start(path)
	if err != nil {
		c.mu.Unlock()
		c.removeAudio(path)
		return false, services.Wrap(services.ErrPlayback, "speech", "play", "start player", err)
	}
	c.current = &session{token: token, audioPath: path, proc: proc}
	c.mu.Unlock()

	waitCh := make(chan error, 1)
	go func() { waitCh <- proc.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		if err := proc.Kill(); err != nil {
			c.logger.Debug("kill player process", logging.Error(err))
		}
		waitErr = <-waitCh
	}

	c.mu.Lock()
	mine := c.current != nil && c.current.token == token
	if mine {
		c.current = nil
	}
	c.mu.Unlock()
	c.removeAudio(path)

	if !mine || ctx.Err() != nil {
		return false, nil
	}
	if waitErr != nil {
		return false, services.Wrap(services.ErrPlayback, "speech", "play", "player exited abnormally", waitErr)
	}
	return true, nil
}

func (c *Controller) startPlayer(path string) (playerProcess, error) {
	args := append([]string(nil), c.extraArgs...)
	args = append(args, fmt.Sprintf("--volume=%d", c.volume), path)
	cmd := exec.Command(c.command, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

func (c *Controller) removeAudio(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("remove announcement audio",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}
