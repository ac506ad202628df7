package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"liner/internal/config"
	"liner/internal/logging"
	"liner/internal/player"
)

const mpdCheckTimeout = 5 * time.Second

// CheckDataDir verifies that the data directory exists and is readable/writable.
func CheckDataDir(path string) Result {
	const name = "Data directory"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPlayerBinary verifies the announcement player command resolves to an
// executable.
func CheckPlayerBinary(command string) Result {
	const name = "Announcement player"

	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckMPD verifies the music player daemon answers a ping. It uses a
// 5-second timeout and a single attempt.
func CheckMPD(ctx context.Context, cfg *config.Config) Result {
	const name = "MPD"

	if strings.TrimSpace(cfg.MPD.Address) == "" {
		return Result{Name: name, Detail: "missing address"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, mpdCheckTimeout)
	defer cancel()

	client := player.New(cfg, logging.NewNop())
	defer client.Close()
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeMPDError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("connected to %s", cfg.MPD.Address)}
}

// CheckAPIKey reports whether a credential is configured. No live call is
// made: key validity surfaces on the first announcement attempt.
func CheckAPIKey(name, key string) Result {
	if strings.TrimSpace(key) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// summarizeMPDError produces a human-readable summary for MPD check failures.
func summarizeMPDError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connection timed out (MPD unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connection timed out (MPD unreachable)"
	}
	return err.Error()
}
