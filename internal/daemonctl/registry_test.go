package daemonctl

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(filepath.Join(t.TempDir(), "daemons"))
	reg.alive = func(int) bool { return true }
	return reg
}

func assertPids(t *testing.T, got []int, want ...int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected pids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pids %v, got %v", want, got)
		}
	}
}

func readRegistryFile(t *testing.T, reg *Registry) string {
	t.Helper()
	data, err := os.ReadFile(reg.Path())
	if err != nil {
		t.Fatalf("read registry file: %v", err)
	}
	return string(data)
}

func TestRegistryAddAndLive(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.Add(101); err != nil {
		t.Fatalf("add 101: %v", err)
	}
	if err := reg.Add(202); err != nil {
		t.Fatalf("add 202: %v", err)
	}

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	assertPids(t, pids, 101, 202)

	if content := readRegistryFile(t, reg); content != "101\n202\n" {
		t.Fatalf("unexpected registry content %q", content)
	}
}

func TestRegistryAddDeduplicates(t *testing.T) {
	reg := newTestRegistry(t)

	for range 3 {
		if err := reg.Add(101); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	assertPids(t, pids, 101)
}

func TestRegistryPrunesDeadOnRead(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.Add(101); err != nil {
		t.Fatalf("add 101: %v", err)
	}
	if err := reg.Add(202); err != nil {
		t.Fatalf("add 202: %v", err)
	}

	reg.alive = func(pid int) bool { return pid == 202 }

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	assertPids(t, pids, 202)

	if content := readRegistryFile(t, reg); content != "202\n" {
		t.Fatalf("expected pruned entry rewritten, got %q", content)
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.Add(101); err != nil {
		t.Fatalf("add 101: %v", err)
	}
	if err := reg.Add(202); err != nil {
		t.Fatalf("add 202: %v", err)
	}

	if err := reg.Remove(101); err != nil {
		t.Fatalf("remove: %v", err)
	}

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	assertPids(t, pids, 202)

	if err := reg.Remove(999); err != nil {
		t.Fatalf("remove absent pid: %v", err)
	}
}

func TestRegistryClear(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.Add(101); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := reg.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	assertPids(t, pids)

	if content := readRegistryFile(t, reg); content != "" {
		t.Fatalf("expected empty registry file, got %q", content)
	}
}

func TestRegistryIgnoresGarbageLines(t *testing.T) {
	reg := newTestRegistry(t)
	if err := os.WriteFile(reg.Path(), []byte("abc\n\n42\n-7\n"), 0o644); err != nil {
		t.Fatalf("seed registry file: %v", err)
	}

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	assertPids(t, pids, 42)

	if content := readRegistryFile(t, reg); content != "42\n" {
		t.Fatalf("expected garbage dropped from file, got %q", content)
	}
}

func TestRegistryMissingFileIsEmpty(t *testing.T) {
	reg := newTestRegistry(t)

	pids, err := reg.Live()
	if err != nil {
		t.Fatalf("live on missing file: %v", err)
	}
	assertPids(t, pids)
}
