package k8s

import "errors"

// ErrKubeconfigPathEmpty is returned when kubeconfig path is empty.
var ErrKubeconfigPathEmpty = errors.New("kubeconfig path is empty")

// ErrInvalidKubeconfig is returned when kubeconfig content cannot be parsed.
var ErrInvalidKubeconfig = errors.New("invalid kubeconfig")

// ErrInvalidManifest is returned when a manifest document is not a Kubernetes object.
var ErrInvalidManifest = errors.New("invalid manifest")

// ErrClusterScopedResource is returned when a workload manifest contains a
// cluster-scoped object, which namespace teardown would not remove.
var ErrClusterScopedResource = errors.New("cluster-scoped resources are not supported in workloads")

// ErrNamespaceEmpty is returned when a namespace name is empty.
var ErrNamespaceEmpty = errors.New("namespace name is empty")
