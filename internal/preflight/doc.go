// Package preflight runs environment checks shared by the daemon startup
// path and the status command.
package preflight
