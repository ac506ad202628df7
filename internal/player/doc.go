// Package player wraps the MPD client with the small surface the announcer
// needs: current-track polling, volume reads and writes, and smooth fades.
//
// Client serializes commands over one lazily-dialed connection and retries
// once on a fresh connection when a command fails, since MPD drops idle
// connections. Fader layers dip-and-restore volume envelopes on top, pacing
// steps by wall-clock time so a slow volume call never stretches the fade.
package player
