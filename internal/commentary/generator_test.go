package commentary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"liner/internal/logging"
	"liner/internal/services"
)

type fakeCompleter struct {
	reply string
	err   error

	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.reply, f.err
}

func TestGenerateCleansModelOutput(t *testing.T) {
	completer := &fakeCompleter{reply: "  **Up next:** a classic\nfrom Queen. "}
	gen := NewGenerator(completer, logging.NewNop())

	text, err := gen.Generate(context.Background(), Request{TrackName: "Don't Stop Me Now", Artist: "Queen"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "Up next: a classic from Queen." {
		t.Errorf("cleaned text = %q", text)
	}
	if completer.calls != 1 {
		t.Errorf("completer calls = %d, want 1", completer.calls)
	}
	if !strings.Contains(completer.lastSystem, "radio DJ") {
		t.Error("system prompt should set the on-air persona")
	}
}

func TestGenerateRequiresTrackName(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{reply: "hello"}, logging.NewNop())

	_, err := gen.Generate(context.Background(), Request{})
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerateWrapsCompleterFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	gen := NewGenerator(completer, logging.NewNop())

	_, err := gen.Generate(context.Background(), Request{TrackName: "Song A"})
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry the backend failure, got %v", err)
	}
}

func TestGenerateRejectsUnusableText(t *testing.T) {
	completer := &fakeCompleter{reply: "```\n```"}
	gen := NewGenerator(completer, logging.NewNop())

	_, err := gen.Generate(context.Background(), Request{TrackName: "Song A"})
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected ErrGeneration for empty cleaned text, got %v", err)
	}
}

func TestGenerateTruncatesLongText(t *testing.T) {
	completer := &fakeCompleter{reply: strings.Repeat("radio patter ", 100)}
	gen := NewGenerator(completer, logging.NewNop())

	text, err := gen.Generate(context.Background(), Request{TrackName: "Song A"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got := len([]rune(text)); got > maxAnnouncementRunes+3 {
		t.Errorf("text length = %d runes, want at most %d plus ellipsis", got, maxAnnouncementRunes)
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("truncated text should end with an ellipsis")
	}
}

func TestBuildUserPromptFullContext(t *testing.T) {
	prompt := buildUserPrompt(Request{
		TrackName:         "Song B",
		Artist:            "Y",
		Album:             "Second Album",
		WasInterrupted:    true,
		InterruptedName:   "Song A",
		InterruptedArtist: "X",
		Recent:            []string{"Song Z: that was a banger", "Song Y: smooth grooves ahead"},
	})

	for _, want := range []string{
		"Next track: Song B by Y (from the album Second Album)",
		"skipped ahead while you were still introducing Song A by X",
		"recent introductions, newest first:",
		"- Song Z: that was a banger",
		"- Song Y: smooth grooves ahead",
		"Introduce the next track now.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildUserPromptMinimal(t *testing.T) {
	prompt := buildUserPrompt(Request{TrackName: "Song A"})

	if !strings.Contains(prompt, "Next track: Song A\n") {
		t.Errorf("prompt should name the bare track:\n%s", prompt)
	}
	if strings.Contains(prompt, "skipped ahead") {
		t.Errorf("prompt should not mention an interruption:\n%s", prompt)
	}
	if strings.Contains(prompt, "recent introductions") {
		t.Errorf("prompt should omit the empty history section:\n%s", prompt)
	}
}

func TestBuildUserPromptInterruptionWithoutName(t *testing.T) {
	prompt := buildUserPrompt(Request{
		TrackName:      "Song B",
		WasInterrupted: true,
	})
	if !strings.Contains(prompt, "introducing the previous track.") {
		t.Errorf("anonymous interruption should fall back to a generic mention:\n%s", prompt)
	}
}
