// Package notifications delivers announcement events via pluggable notifiers.
//
// The desktop backend posts to org.freedesktop.Notifications on the session
// bus; the ntfy backend publishes to a configured topic over HTTP; the noop
// backend swallows everything. All callers depend only on the Service
// interface and treat delivery as fire-and-forget.
package notifications
