// Package helpers provides common CLI utilities for command handling: global
// flag lookup, timing detection and signal-aware contexts.
package helpers
