package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ManagedByLabel marks namespaces created by scalebench.
const ManagedByLabel = "app.kubernetes.io/managed-by"

// ManagedByValue is the value of ManagedByLabel.
const ManagedByValue = "scalebench"

// CreateNamespace creates namespace name with the managed-by label plus extra labels.
// An existing namespace is an error, so a run never adopts foreign workloads.
func CreateNamespace(
	ctx context.Context,
	clientset kubernetes.Interface,
	name string,
	labels map[string]string,
) (*corev1.Namespace, error) {
	if name == "" {
		return nil, ErrNamespaceEmpty
	}

	merged := map[string]string{ManagedByLabel: ManagedByValue}
	for key, value := range labels {
		merged[key] = value
	}

	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: merged,
		},
	}

	created, err := clientset.CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("create namespace: %w", err)
	}

	return created, nil
}

// DeleteNamespace deletes namespace name with foreground propagation.
// A namespace that is already gone is not an error.
func DeleteNamespace(ctx context.Context, clientset kubernetes.Interface, name string) error {
	if name == "" {
		return ErrNamespaceEmpty
	}

	propagation := metav1.DeletePropagationForeground

	err := clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete namespace: %w", err)
	}

	return nil
}
