// Package speech turns announcement text into audio and plays it through an
// external player subprocess (mpv by default).
//
// Controller owns the playback session lifecycle: at most one session is
// live at a time, a new Play cancels the previous session before installing
// its own, and the temp audio file is removed on every exit path. A
// per-session token guards against a stale process exit being mistaken for
// the completion of a newer session.
package speech
