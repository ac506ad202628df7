// Package textutil provides text processing utilities for announcement
// handling.
//
// The primary use cases are:
//   - Cleaning model output into a single spoken paragraph
//   - Truncating stored announcement text for display
package textutil
