package daemonctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Registry tracks watcher PIDs in a newline-separated file, one identifier
// per line with a trailing newline. Every read prunes entries whose process
// is gone, so the file self-heals after crashes. Mutations are
// read-modify-write with an atomic rename and no locking: concurrent toggle
// invocations racing on the file are an accepted risk for a single
// interactive user, and the last writer wins.
type Registry struct {
	path string

	alive func(pid int) bool
}

// NewRegistry returns a registry backed by the given file path.
func NewRegistry(path string) *Registry {
	return &Registry{path: path, alive: processAlive}
}

// Path returns the backing file location.
func (r *Registry) Path() string {
	return r.path
}

// Live returns the live PIDs after pruning dead entries. When pruning
// changed the set, the file is rewritten best-effort; the in-memory result
// stays authoritative even if that write fails.
func (r *Registry) Live() ([]int, error) {
	pids, pruned, err := r.read()
	if err != nil {
		return nil, err
	}
	if pruned {
		_ = r.write(pids)
	}
	return pids, nil
}

// Add appends a PID unless it is already present, preserving entry order.
func (r *Registry) Add(pid int) error {
	pids, _, err := r.read()
	if err != nil {
		return err
	}
	for _, existing := range pids {
		if existing == pid {
			return r.write(pids)
		}
	}
	return r.write(append(pids, pid))
}

// Remove drops a PID from the registry; absent PIDs are a no-op.
func (r *Registry) Remove(pid int) error {
	pids, _, err := r.read()
	if err != nil {
		return err
	}
	kept := pids[:0]
	for _, existing := range pids {
		if existing != pid {
			kept = append(kept, existing)
		}
	}
	return r.write(kept)
}

// Clear rewrites the registry empty.
func (r *Registry) Clear() error {
	return r.write(nil)
}

// read parses the registry and drops dead or malformed entries, reporting
// whether anything was dropped.
func (r *Registry) read() (pids []int, pruned bool, err error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read registry %q: %w", r.path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, parseErr := strconv.Atoi(line)
		if parseErr != nil || pid <= 0 {
			pruned = true
			continue
		}
		if !r.alive(pid) {
			pruned = true
			continue
		}
		pids = append(pids, pid)
	}
	return pids, pruned, nil
}

func (r *Registry) write(pids []int) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	var b strings.Builder
	for _, pid := range pids {
		b.WriteString(strconv.Itoa(pid))
		b.WriteByte('\n')
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// processAlive probes a PID with signal 0. EPERM means the process exists
// but belongs to another user, so it counts as alive.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
