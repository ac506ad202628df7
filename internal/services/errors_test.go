package services_test

import (
	"errors"
	"strings"
	"testing"

	"liner/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSynthesis, "speech", "synthesize", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"speech", "synthesize", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "watcher", "poll", "mpd hiccup", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestMarkersAreDistinct(t *testing.T) {
	markers := []error{
		services.ErrTransient,
		services.ErrGeneration,
		services.ErrSynthesis,
		services.ErrPlayback,
		services.ErrUnavailable,
		services.ErrConfiguration,
	}
	for i, marker := range markers {
		wrapped := services.Wrap(marker, "component", "op", "", nil)
		for j, other := range markers {
			if got := errors.Is(wrapped, other); got != (i == j) {
				t.Fatalf("errors.Is(%v, %v) = %v", wrapped, other, got)
			}
		}
	}
}
