package player

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/fhs/gompd/v2/mpd"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Track is one playing item reported by MPD. Identity is ID (the MPD file
// attribute, stable per queue entry); two polls with the same ID are the same
// playing item. Immutable once read.
type Track struct {
	ID     string
	Name   string
	Artist string
	Album  string
}

func attrsToTrack(attrs mpd.Attrs) *Track {
	id := strings.TrimSpace(attrs["file"])
	if id == "" {
		return nil
	}
	name := strings.TrimSpace(attrs["Title"])
	if name == "" {
		name = deriveTitle(id)
	}
	return &Track{
		ID:     id,
		Name:   name,
		Artist: strings.TrimSpace(attrs["Artist"]),
		Album:  strings.TrimSpace(attrs["Album"]),
	}
}

// deriveTitle builds a display title from the file path when the Title tag is
// missing: extension stripped, separators collapsed to spaces, title-cased.
func deriveTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Unknown Track"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Track"
	}
	return cases.Title(language.Und).String(title)
}
