package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"liner/internal/config"
)

// State keys shared between the daemon and the control CLI.
const (
	stateLastTrackID = "last_track_id"
	stateEnabled     = "enabled"
)

// Store manages announcement history and daemon state backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the announcement database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record inserts a new announcement. A missing ID or timestamp is assigned
// before the insert.
func (s *Store) Record(ctx context.Context, a *Announcement) error {
	if a == nil {
		return errors.New("announcement is nil")
	}
	if strings.TrimSpace(a.TrackID) == "" {
		return errors.New("announcement track id required")
	}
	if a.ID == "" {
		id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
		if err != nil {
			return fmt.Errorf("generate announcement id: %w", err)
		}
		a.ID = id.String()
	}
	if a.AnnouncedAt.IsZero() {
		a.AnnouncedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO announcements (id, track_id, track_name, artist, album, commentary, announced_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.TrackID,
		a.TrackName,
		a.Artist,
		a.Album,
		a.Commentary,
		a.AnnouncedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

// Recent returns the most recent announcements, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Announcement, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+announcementColumns+` FROM announcements ORDER BY announced_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent announcements: %w", err)
	}
	defer rows.Close()

	var items []*Announcement
	for rows.Next() {
		item, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the total number of stored announcements.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM announcements`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count announcements: %w", err)
	}
	return count, nil
}

// PruneOlderThan removes announcements older than the given number of days.
// A non-positive value disables pruning.
func (s *Store) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM announcements WHERE announced_at < ?`,
		cutoff.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune announcements: %w", err)
	}
	return res.RowsAffected()
}

// LastTrackID returns the last announced track identifier, or empty when no
// announcement has been made yet.
func (s *Store) LastTrackID(ctx context.Context) (string, error) {
	return s.stateValue(ctx, stateLastTrackID)
}

// SetLastTrackID persists the last announced track identifier.
func (s *Store) SetLastTrackID(ctx context.Context, id string) error {
	return s.setStateValue(ctx, stateLastTrackID, id)
}

// Enabled reports the last recorded toggle intent. A fresh database reports
// false; the registry remains the liveness source of truth.
func (s *Store) Enabled(ctx context.Context) (bool, error) {
	value, err := s.stateValue(ctx, stateEnabled)
	if err != nil {
		return false, err
	}
	if value == "" {
		return false, nil
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse enabled state %q: %w", value, err)
	}
	return enabled, nil
}

// SetEnabled persists the toggle intent.
func (s *Store) SetEnabled(ctx context.Context, enabled bool) error {
	return s.setStateValue(ctx, stateEnabled, strconv.FormatBool(enabled))
}

func (s *Store) stateValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read state %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) setStateValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write state %q: %w", key, err)
	}
	return nil
}

const announcementColumns = "id, track_id, track_name, artist, album, commentary, announced_at"

func scanAnnouncement(scanner interface{ Scan(dest ...any) error }) (*Announcement, error) {
	var (
		item        Announcement
		announcedAt string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.TrackID,
		&item.TrackName,
		&item.Artist,
		&item.Album,
		&item.Commentary,
		&announcedAt,
	); err != nil {
		return nil, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, announcedAt); err == nil {
		item.AnnouncedAt = parsed
	}
	return &item, nil
}
