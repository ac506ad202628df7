// Package main hosts the liner CLI entrypoint and command graph.
//
// A bare invocation toggles the background watcher: it reads the PID
// registry, starts a detached daemon when nothing is running, stops every
// registered daemon otherwise, and prints the resulting state. The hidden
// --daemon flag selects the long-running watch loop instead, which is how
// the toggle's detached child re-enters this binary. Subcommands cover
// status inspection, announcement history, and configuration scaffolding.
//
// Keep this package lean: behavior belongs in the internal packages, with
// commands here translating flags and printing results.
package main
