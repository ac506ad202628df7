package textutil

import "strings"

// markupReplacer strips the markdown artifacts chat models tend to sprinkle
// into prose even when asked for plain text.
var markupReplacer = strings.NewReplacer(
	"**", "",
	"*", "",
	"`", "",
	"#", "",
	"“", "\"",
	"”", "\"",
)

// CleanForSpeech normalizes generated announcement text for synthesis.
// Markdown emphasis and code fences are stripped, wrapping quotes removed,
// and all whitespace collapsed into a single paragraph.
func CleanForSpeech(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = stripFence(text)
	text = markupReplacer.Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	text = unwrapQuotes(text)
	return strings.TrimSpace(text)
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func unwrapQuotes(text string) string {
	for len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			inner := strings.TrimSpace(text[1 : len(text)-1])
			// An interior matching quote means the wrapping is part of the prose.
			if strings.ContainsRune(inner, rune(first)) {
				return text
			}
			text = inner
			continue
		}
		return text
	}
	return text
}

// Truncate shortens text to at most limit runes, appending an ellipsis when
// anything was cut. Non-positive limits return the input unchanged.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
