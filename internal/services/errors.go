package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks hiccups the watch loop absorbs and retries next tick.
	ErrTransient = errors.New("transient failure")
	// ErrGeneration marks commentary failures that skip the current cycle.
	ErrGeneration = errors.New("generation error")
	// ErrSynthesis marks speech synthesis failures that skip the current cycle.
	ErrSynthesis = errors.New("synthesis error")
	// ErrPlayback marks player subprocess failures.
	ErrPlayback = errors.New("playback error")
	// ErrUnavailable marks an unreachable external collaborator (MPD, D-Bus).
	ErrUnavailable = errors.New("unavailable")
	// ErrConfiguration marks unusable settings discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
