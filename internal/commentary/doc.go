// Package commentary turns a track change into the text a radio host would
// say on air. The generator sends a fixed DJ persona plus the per-track
// situation (track metadata, whether a previous introduction was cut off,
// recent introductions) to a chat model and normalizes the reply for speech
// synthesis.
package commentary
