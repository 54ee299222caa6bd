package microk8sprovisioner

import (
	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/client/juju"
)

// AssignRoles marks the first controlPlane units as control-plane and the rest
// as workers. controlPlane is clamped to [0, len(units)].
func AssignRoles(units []juju.Unit, controlPlane int) []v1alpha1.Node {
	controlPlane = max(0, min(controlPlane, len(units)))

	nodes := make([]v1alpha1.Node, 0, len(units))

	for index, unit := range units {
		role := v1alpha1.RoleWorker
		if index < controlPlane {
			role = v1alpha1.RoleControlPlane
		}

		nodes = append(nodes, v1alpha1.Node{
			ID:         unit.Name,
			Role:       role,
			InstanceID: unit.InstanceID,
			Address:    unit.Address,
		})
	}

	return nodes
}
