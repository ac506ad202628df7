package testsupport

import (
	"context"
	"testing"
	"time"

	"liner/internal/config"
	"liner/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordAnnouncement inserts an announcement for tests using the provided store.
func RecordAnnouncement(t testing.TB, store *history.Store, trackID, trackName, commentary string, announcedAt time.Time) *history.Announcement {
	t.Helper()

	a := &history.Announcement{
		TrackID:     trackID,
		TrackName:   trackName,
		Commentary:  commentary,
		AnnouncedAt: announcedAt,
	}
	if err := store.Record(context.Background(), a); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return a
}
