package daemonctl

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"liner/internal/logging"
)

// LaunchOptions carries the flags a spawned watcher process needs to come
// up with the same configuration as the CLI that launched it.
type LaunchOptions struct {
	// ConfigPath is forwarded as --config when non-empty.
	ConfigPath string
}

// Supervisor starts and stops watcher daemons and keeps the PID registry
// in sync. Spawning and signalling are injectable for tests.
type Supervisor struct {
	registry *Registry
	logger   *slog.Logger

	spawn     func() (int, error)
	terminate func(pid int) error
}

// NewSupervisor wires a supervisor over the registry file at registryPath.
func NewSupervisor(registryPath string, opts LaunchOptions, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		registry:  NewRegistry(registryPath),
		logger:    logger,
		spawn:     func() (int, error) { return launchDetached(opts) },
		terminate: func(pid int) error { return unix.Kill(pid, unix.SIGTERM) },
	}
}

// Registry exposes the underlying PID registry.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// IsRunning reports whether at least one registered watcher is alive. An
// unreadable registry reads as not running so the toggle can still start one.
func (s *Supervisor) IsRunning() bool {
	pids, err := s.registry.Live()
	if err != nil {
		s.logger.Warn("failed to read daemon registry", logging.Error(err))
		return false
	}
	return len(pids) > 0
}

// Start spawns a detached watcher process and records its PID. A registry
// write failure is logged but not fatal: the daemon registers itself again
// once it boots.
func (s *Supervisor) Start() (int, error) {
	pid, err := s.spawn()
	if err != nil {
		return 0, fmt.Errorf("launch daemon: %w", err)
	}
	if err := s.registry.Add(pid); err != nil {
		s.logger.Warn("daemon started but registry update failed",
			logging.Int("pid", pid),
			logging.Error(err))
	}
	return pid, nil
}

// StopAll signals every live registered watcher with SIGTERM and clears the
// registry. Signal failures are logged and do not stop the sweep.
func (s *Supervisor) StopAll() error {
	pids, err := s.registry.Live()
	if err != nil {
		return fmt.Errorf("read daemon registry: %w", err)
	}
	for _, pid := range pids {
		if err := s.terminate(pid); err != nil {
			s.logger.Warn("failed to signal daemon",
				logging.Int("pid", pid),
				logging.Error(err))
			continue
		}
		s.logger.Info("signalled daemon", logging.Int("pid", pid))
	}
	if err := s.registry.Clear(); err != nil {
		return fmt.Errorf("clear daemon registry: %w", err)
	}
	return nil
}

// RegisterSelf records the calling daemon's own PID at startup.
func (s *Supervisor) RegisterSelf(pid int) error {
	return s.registry.Add(pid)
}

// UnregisterSelf removes the calling daemon's PID during shutdown.
func (s *Supervisor) UnregisterSelf(pid int) error {
	return s.registry.Remove(pid)
}

// launchDetached re-executes the current binary in daemon mode and releases
// the child so it outlives this process.
func launchDetached(opts LaunchOptions) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locate executable: %w", err)
	}

	args := []string{"--daemon"}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}

	cmd := exec.Command(exe, args...) //nolint:gosec
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start daemon process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release daemon process: %w", err)
	}
	return pid, nil
}
