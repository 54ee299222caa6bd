package v1alpha1

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the part a node plays in the cluster.
type Role string

const (
	// RoleControlPlane marks a node that runs the datastore and API server.
	RoleControlPlane Role = "control-plane"
	// RoleWorker marks a worker-only node.
	RoleWorker Role = "worker"
)

// ValidRoles returns the supported node roles.
func ValidRoles() []Role {
	return []Role{RoleControlPlane, RoleWorker}
}

// Set validates and sets the role value.
func (r *Role) Set(value string) error {
	for _, role := range ValidRoles() {
		if strings.EqualFold(value, string(role)) {
			*r = role

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s)",
		ErrInvalidRole,
		value,
		RoleControlPlane,
		RoleWorker,
	)
}

// IsValid reports whether the role is supported.
func (r *Role) IsValid() bool {
	return slices.Contains(ValidRoles(), *r)
}

// String returns the string representation of the Role.
func (r *Role) String() string {
	return string(*r)
}

// Type returns the type of the Role.
func (r *Role) Type() string {
	return "Role"
}

// Transport selects how commands reach cluster nodes.
type Transport string

const (
	// TransportJuju runs commands through `juju run`.
	TransportJuju Transport = "juju"
	// TransportSSH runs commands over an SSH session to the node address.
	TransportSSH Transport = "ssh"
)

// ValidTransports returns the supported transports.
func ValidTransports() []Transport {
	return []Transport{TransportJuju, TransportSSH}
}

// Set validates and sets the transport value.
func (t *Transport) Set(value string) error {
	for _, transport := range ValidTransports() {
		if strings.EqualFold(value, string(transport)) {
			*t = transport

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s)",
		ErrInvalidTransport,
		value,
		TransportJuju,
		TransportSSH,
	)
}

// String returns the string representation of the Transport.
func (t *Transport) String() string {
	return string(*t)
}

// Type returns the type of the Transport.
func (t *Transport) Type() string {
	return "Transport"
}

// ValidValues returns the accepted values joined for help text.
func (t *Transport) ValidValues() string {
	values := make([]string, 0, len(ValidTransports()))
	for _, transport := range ValidTransports() {
		values = append(values, string(transport))
	}

	return strings.Join(values, "|")
}
