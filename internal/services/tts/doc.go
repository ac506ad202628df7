// Package tts provides an OpenAI-compatible speech synthesis client.
//
// The client posts announcement text to the audio/speech endpoint and returns
// encoded audio bytes in the configured format. Synthesis failures are not
// retried; a failed synthesis aborts the announcement cycle for that track and
// the watcher moves on.
package tts
