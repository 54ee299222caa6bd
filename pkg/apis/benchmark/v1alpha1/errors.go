package v1alpha1

import "errors"

// ErrInvalidRole is returned when a node role is not recognized.
var ErrInvalidRole = errors.New("invalid node role")

// ErrInvalidTransport is returned when a remote transport is not recognized.
var ErrInvalidTransport = errors.New("invalid transport")

// ErrInvalidChannel is returned when a snap channel cannot be parsed.
var ErrInvalidChannel = errors.New("invalid channel")

// ErrInvalidProxy is returned when the proxy is not an absolute http(s) URL.
var ErrInvalidProxy = errors.New("invalid proxy URL")

// ErrIncompleteRegistryCredentials is returned when only one of username and password is set.
var ErrIncompleteRegistryCredentials = errors.New(
	"registry username and password must be set together",
)

// ErrModelNameInvalid is returned when the model name is not DNS-1123 compliant.
var ErrModelNameInvalid = errors.New("model name is invalid")

// ErrModelNameTooLong is returned when the model name exceeds the maximum length.
var ErrModelNameTooLong = errors.New("model name is too long")

// ErrNoNodes is returned when a descriptor lists no nodes.
var ErrNoNodes = errors.New("descriptor has no nodes")

// ErrNoControlPlane is returned when a descriptor has no control-plane node.
var ErrNoControlPlane = errors.New("descriptor has no control-plane node")

// ErrDuplicateNode is returned when two nodes share an id.
var ErrDuplicateNode = errors.New("duplicate node id")

// ErrUnknownMaster is returned when the master does not name a control-plane node.
var ErrUnknownMaster = errors.New("master is not a control-plane node")

// ErrInvalidNodeCount is returned when the node count is below one.
var ErrInvalidNodeCount = errors.New("node count must be at least 1")

// ErrInvalidControlPlaneCount is returned when the control-plane count is outside [1, nodes].
var ErrInvalidControlPlaneCount = errors.New(
	"control-plane count must be between 1 and the node count",
)
