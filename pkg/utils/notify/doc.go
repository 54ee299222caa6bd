// Package notify writes formatted status lines for CLI users.
//
// Message types include success (✔), error (✗), warning (⚠), info (ℹ),
// activity (►), generate (✚) and title messages with a custom emoji.
// Writers are always explicit so commands can route output to cobra's streams.
package notify
