package history

import "time"

// Announcement captures one spoken track introduction. Records are created
// once and never mutated; retention pruning removes them by age.
type Announcement struct {
	ID          string
	TrackID     string
	TrackName   string
	Artist      string
	Album       string
	Commentary  string
	AnnouncedAt time.Time
}
