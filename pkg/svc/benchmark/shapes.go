package benchmark

import (
	"cmp"
	"fmt"
	"slices"
)

// DefaultModelPrefix prefixes the model of every shape.
const DefaultModelPrefix = "uk8s-benchmarks-cluster"

// DefaultControlPlaneCounts returns the control-plane sizes swept by default.
func DefaultControlPlaneCounts() []int {
	return []int{1, 3, 5}
}

// DefaultNodeCounts returns the cluster sizes swept by default.
func DefaultNodeCounts() []int {
	return []int{1, 10, 30, 50, 100}
}

// Shape is the topology of one benchmark cluster.
type Shape struct {
	ControlPlane int
	Nodes        int
}

func (s Shape) String() string {
	return fmt.Sprintf("%d/%d", s.ControlPlane, s.Nodes)
}

// ModelName returns the juju model of shape, e.g. uk8s-benchmarks-cluster-3-10.
func ModelName(prefix string, shape Shape) string {
	return fmt.Sprintf("%s-%d-%d", prefix, shape.ControlPlane, shape.Nodes)
}

// Shapes pairs every control-plane count with every node count, drops pairs
// with more control-plane nodes than nodes and sorts by node count.
func Shapes(controlPlanes, nodes []int) ([]Shape, error) {
	for _, count := range slices.Concat(controlPlanes, nodes) {
		if count < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
		}
	}

	var shapes []Shape

	for _, controlPlane := range controlPlanes {
		for _, total := range nodes {
			shape := Shape{ControlPlane: controlPlane, Nodes: total}
			if total < controlPlane || slices.Contains(shapes, shape) {
				continue
			}

			shapes = append(shapes, shape)
		}
	}

	if len(shapes) == 0 {
		return nil, ErrNoShapes
	}

	slices.SortStableFunc(shapes, func(a, b Shape) int {
		return cmp.Compare(a.Nodes, b.Nodes)
	})

	return shapes, nil
}
