// Package history persists announcement records and daemon state in SQLite.
//
// The Store manages database connections, schema initialization, the
// append-only announcements table, and a small key-value state table shared
// between the daemon and the control CLI (last announced track, toggle
// intent). Records are pruned by retention age, never edited.
//
// The last announced track identifier is written before commentary or audio
// generation starts, so a crash or an even-newer track change during
// generation cannot re-trigger the same track.
//
// Schema changes bump the version in schema.go; the database is recreated
// rather than migrated in place.
package history
