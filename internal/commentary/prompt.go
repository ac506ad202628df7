package commentary

import (
	"fmt"
	"strings"
)

// announcerSystemPrompt captures the on-air persona sent with every
// generation request. Keep updates centralized here so it is easy to tweak
// without hunting through call sites.
const announcerSystemPrompt = `You are a warm, quick-witted radio DJ introducing the next track on air.

Rules:

- Write exactly what you will say aloud: plain spoken sentences, no markdown, no stage directions, no emoji.
- Two sentences at most, under 60 spoken words.
- Mention the track name, and the artist when known. Never invent facts about the recording.
- If you broke into another track's introduction, acknowledge the jump briefly and move on.
- Vary your phrasing; do not reuse openings from your recent introductions.
- Stay in character as the station host at all times.`

// buildUserPrompt renders one announcement request as the user message.
func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Next track: %s", req.TrackName)
	if req.Artist != "" {
		fmt.Fprintf(&b, " by %s", req.Artist)
	}
	if req.Album != "" {
		fmt.Fprintf(&b, " (from the album %s)", req.Album)
	}
	b.WriteString("\n")

	if req.WasInterrupted {
		b.WriteString("\nThe listener skipped ahead while you were still introducing")
		if req.InterruptedName != "" {
			fmt.Fprintf(&b, " %s", req.InterruptedName)
			if req.InterruptedArtist != "" {
				fmt.Fprintf(&b, " by %s", req.InterruptedArtist)
			}
		} else {
			b.WriteString(" the previous track")
		}
		b.WriteString(".\n")
	}

	if len(req.Recent) > 0 {
		b.WriteString("\nYour recent introductions, newest first:\n")
		for _, line := range req.Recent {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	b.WriteString("\nIntroduce the next track now.")
	return b.String()
}
