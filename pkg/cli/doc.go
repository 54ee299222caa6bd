// Package cli contains the command tree and its supporting packages:
//
//   - cli/cmd: cobra commands
//   - cli/helpers: shared flag and signal helpers
//   - cli/parallel: bounded fan-out over cluster nodes
//   - cli/ui: terminal prompts and error normalization
package cli
