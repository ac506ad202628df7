package daemonrun

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"liner/internal/daemonctl"
	"liner/internal/testsupport"
)

func TestRunRegistersSelfAndCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registry := daemonctl.NewRegistry(cfg.RegistryPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg, Options{})
	}()

	waitFor(t, 5*time.Second, func() bool {
		pids, err := registry.Live()
		return err == nil && slices.Contains(pids, os.Getpid())
	})

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}

	pids, err := registry.Live()
	if err != nil {
		t.Fatalf("read registry after shutdown: %v", err)
	}
	if len(pids) != 0 {
		t.Fatalf("expected empty registry after shutdown, got %v", pids)
	}
}

func TestRunRejectsNilConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}
