package clusterprovisioner

import (
	"context"

	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
)

// ClusterProvisioner defines methods for managing benchmark clusters.
type ClusterProvisioner interface {
	// Create provisions the cluster and writes its descriptor.
	Create(ctx context.Context) (*microk8sprovisioner.Result, error)

	// Delete destroys the cluster's model by name.
	Delete(ctx context.Context, model string) error
}

var _ ClusterProvisioner = (*microk8sprovisioner.Provisioner)(nil)
