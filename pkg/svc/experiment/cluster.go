package experiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devantler-tech/scalebench/pkg/k8s"
	"github.com/devantler-tech/scalebench/pkg/k8s/readiness"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// Cluster is the Kubernetes side of a run.
type Cluster interface {
	CreateNamespace(ctx context.Context, name string, labels map[string]string) error
	Apply(ctx context.Context, namespace string, objects []*unstructured.Unstructured) error
	WaitReady(ctx context.Context, namespace string, timeout time.Duration) error
	DeleteNamespace(ctx context.Context, name string, timeout time.Duration) error
}

// ClusterConnector opens a Cluster from a kubeconfig file.
type ClusterConnector func(kubeconfig string) (Cluster, error)

// KubeCluster implements Cluster with client-go.
type KubeCluster struct {
	clientset kubernetes.Interface
	applier   *k8s.Applier
}

// NewKubeCluster creates a KubeCluster from existing clients.
func NewKubeCluster(
	clientset kubernetes.Interface,
	dynamicClient dynamic.Interface,
	mapper meta.RESTMapper,
) *KubeCluster {
	return &KubeCluster{
		clientset: clientset,
		applier:   k8s.NewApplier(dynamicClient, mapper),
	}
}

// ConnectKubeconfig is the default ClusterConnector.
func ConnectKubeconfig(kubeconfig string) (Cluster, error) {
	restConfig, err := k8s.BuildRESTConfig(kubeconfig, "")
	if err != nil {
		return nil, err
	}

	clients, err := k8s.NewClients(restConfig)
	if err != nil {
		return nil, err
	}

	return NewKubeCluster(clients.Clientset, clients.Dynamic, clients.Mapper), nil
}

// APIServerTimeout bounds the wait for a freshly fetched kubeconfig to work.
const APIServerTimeout = time.Minute

// CreateNamespace waits for the API server and creates the scratch namespace.
func (c *KubeCluster) CreateNamespace(ctx context.Context, name string, labels map[string]string) error {
	err := readiness.WaitForAPIServerReady(ctx, c.clientset, APIServerTimeout)
	if err != nil {
		return fmt.Errorf("api server not reachable: %w", err)
	}

	_, err = k8s.CreateNamespace(ctx, c.clientset, name, labels)

	return err
}

// Apply creates objects in namespace.
func (c *KubeCluster) Apply(
	ctx context.Context,
	namespace string,
	objects []*unstructured.Unstructured,
) error {
	return c.applier.Apply(ctx, namespace, objects)
}

// WaitReady waits for every workload in namespace. On timeout the error lists
// the pods that are still not ready.
func (c *KubeCluster) WaitReady(ctx context.Context, namespace string, timeout time.Duration) error {
	err := readiness.WaitForWorkloadsReady(ctx, c.clientset, namespace, timeout)
	if err == nil {
		return nil
	}

	if errors.Is(err, readiness.ErrTimeoutExceeded) {
		unready := k8s.DescribeUnreadyPods(context.WithoutCancel(ctx), c.clientset, namespace)
		if len(unready) > 0 {
			return fmt.Errorf("%w after %s: %s", ErrWorkloadsNotReady, timeout, strings.Join(unready, "; "))
		}

		return fmt.Errorf("%w after %s", ErrWorkloadsNotReady, timeout)
	}

	return err
}

// DeleteNamespace deletes name and waits until it is gone.
func (c *KubeCluster) DeleteNamespace(ctx context.Context, name string, timeout time.Duration) error {
	err := k8s.DeleteNamespace(ctx, c.clientset, name)
	if err != nil {
		return err
	}

	err = readiness.WaitForNamespaceDeleted(ctx, c.clientset, name, timeout)
	if err != nil {
		return fmt.Errorf("wait for namespace %s deletion: %w", name, err)
	}

	return nil
}
