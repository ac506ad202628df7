package commentary

import (
	"context"
	"log/slog"
	"strings"

	"liner/internal/logging"
	"liner/internal/services"
	"liner/internal/textutil"
)

// Spoken introductions beyond this many runes get cut before synthesis; two
// sentences of radio patter fit comfortably under it.
const maxAnnouncementRunes = 450

// Completer is the chat-completion surface the generator drives.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Request carries everything prompt building needs for one announcement:
// the track being introduced, whether a previous introduction was cut off
// (and for which track), and recent introduction lines to steer the model
// away from repeating itself.
type Request struct {
	TrackName string
	Artist    string
	Album     string

	WasInterrupted    bool
	InterruptedName   string
	InterruptedArtist string

	Recent []string
}

// Generator produces spoken track introductions through a chat model.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// NewGenerator builds a generator over the given completion backend.
func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logging.NewComponentLogger(logger, "commentary"),
	}
}

// Generate returns announcement text ready for synthesis: completed by the
// model, stripped of markup, collapsed to one paragraph, and capped in
// length.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.TrackName) == "" {
		return "", services.Wrap(services.ErrGeneration, "commentary", "generate", "track name required", nil)
	}
	if g.completer == nil {
		return "", services.Wrap(services.ErrGeneration, "commentary", "generate", "no completion backend configured", nil)
	}

	raw, err := g.completer.Complete(ctx, announcerSystemPrompt, buildUserPrompt(req))
	if err != nil {
		return "", services.Wrap(services.ErrGeneration, "commentary", "generate", "complete announcement text", err)
	}

	text := textutil.CleanForSpeech(raw)
	if text == "" {
		return "", services.Wrap(services.ErrGeneration, "commentary", "generate", "model returned no usable text", nil)
	}
	if cut := textutil.Truncate(text, maxAnnouncementRunes); cut != text {
		g.logger.Debug("announcement text truncated",
			logging.Int("runes", len([]rune(text))),
			logging.Int("limit", maxAnnouncementRunes),
		)
		text = cut
	}
	return text, nil
}
