// Package services defines shared utilities consumed by the watch loop and
// the external integrations it drives.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify announcement
//     failures (transient vs cycle-aborting vs playback).
//   - HTTP clients for the commentary and speech synthesis services.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, retries, observability) stays uniform.
package services
