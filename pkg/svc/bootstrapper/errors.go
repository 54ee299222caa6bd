package bootstrapper

import "errors"

// ErrMissingCredential is returned when a credential is neither given nor
// available from the environment and cannot be prompted for.
var ErrMissingCredential = errors.New("missing OpenStack credential")

// ErrInvalidAuthURL is returned when the auth URL is not an absolute http(s) URL.
var ErrInvalidAuthURL = errors.New("invalid OpenStack auth URL")

// ErrRunnerRequired is returned when the factory has no command runner.
var ErrRunnerRequired = errors.New("command runner is required")
