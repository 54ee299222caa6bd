package v1alpha1

import (
	"fmt"
	"time"
)

// DefaultApplication is the Juju application name used for cluster machines.
const DefaultApplication = "microk8s-node"

// Descriptor records the topology of a provisioned cluster.
// It is written once by provisioning and only read afterwards.
type Descriptor struct {
	Model     string    `json:"model"`
	App       string    `json:"app,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Master    string    `json:"master,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Nodes     []Node    `json:"nodes"`
}

// Node is a single cluster machine.
type Node struct {
	// ID is the Juju unit name, e.g. microk8s-node/0.
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	InstanceID string `json:"instanceId,omitempty"`
	Address    string `json:"address,omitempty"`
}

// IsControlPlane reports whether the node runs the control plane.
func (n Node) IsControlPlane() bool {
	return n.Role == RoleControlPlane
}

// ControlPlane returns the control-plane nodes in descriptor order.
func (d *Descriptor) ControlPlane() []Node {
	return d.filter(RoleControlPlane)
}

// Workers returns the worker nodes in descriptor order.
func (d *Descriptor) Workers() []Node {
	return d.filter(RoleWorker)
}

// MasterNode returns the node named by Master, or the first control-plane
// node when Master is unset.
func (d *Descriptor) MasterNode() (Node, bool) {
	for _, node := range d.Nodes {
		if d.Master != "" && node.ID == d.Master {
			return node, true
		}
	}

	if d.Master == "" {
		controlPlane := d.ControlPlane()
		if len(controlPlane) > 0 {
			return controlPlane[0], true
		}
	}

	return Node{}, false
}

// Validate checks the descriptor invariants.
func (d *Descriptor) Validate() error {
	err := ValidateModelName(d.Model)
	if err != nil {
		return err
	}

	if len(d.Nodes) == 0 {
		return ErrNoNodes
	}

	seen := make(map[string]struct{}, len(d.Nodes))

	for _, node := range d.Nodes {
		if !node.Role.IsValid() {
			return fmt.Errorf("node %q: %w: %q", node.ID, ErrInvalidRole, node.Role)
		}

		if _, ok := seen[node.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, node.ID)
		}

		seen[node.ID] = struct{}{}
	}

	if len(d.ControlPlane()) == 0 {
		return ErrNoControlPlane
	}

	if d.Master != "" {
		master, ok := d.MasterNode()
		if !ok || !master.IsControlPlane() {
			return fmt.Errorf("%w: %q", ErrUnknownMaster, d.Master)
		}
	}

	return nil
}

func (d *Descriptor) filter(role Role) []Node {
	nodes := make([]Node, 0, len(d.Nodes))

	for _, node := range d.Nodes {
		if node.Role == role {
			nodes = append(nodes, node)
		}
	}

	return nodes
}
