// Package daemonctl manages the lifecycle of detached watcher processes
// through a file-based PID registry.
package daemonctl
