// Package watcher runs the announcement loop: it polls the track source,
// detects track changes, and drives commentary generation, speech synthesis,
// and dipped playback for each change, interrupting an in-progress
// announcement when the listener skips ahead.
package watcher
