package readiness

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// WaitForWorkloadsReady polls until every Deployment, StatefulSet and DaemonSet
// in namespace has all its replicas ready and every non-terminated pod is Ready.
func WaitForWorkloadsReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace string,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		return WorkloadsReady(ctx, clientset, namespace)
	})
}

// WorkloadsReady performs a single readiness check of namespace.
// List errors count as not ready.
func WorkloadsReady(ctx context.Context, clientset kubernetes.Interface, namespace string) (bool, error) {
	apps := clientset.AppsV1()

	deployments, err := apps.Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, nil //nolint:nilerr // returning nil to continue polling
	}

	for i := range deployments.Items {
		if !deploymentReady(&deployments.Items[i]) {
			return false, nil
		}
	}

	statefulSets, err := apps.StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, nil //nolint:nilerr // returning nil to continue polling
	}

	for i := range statefulSets.Items {
		set := &statefulSets.Items[i]
		if set.Status.ReadyReplicas < replicas(set.Spec.Replicas) {
			return false, nil
		}
	}

	daemonSets, err := apps.DaemonSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, nil //nolint:nilerr // returning nil to continue polling
	}

	for i := range daemonSets.Items {
		set := &daemonSets.Items[i]
		if set.Status.ObservedGeneration < set.Generation || set.Status.NumberReady < set.Status.DesiredNumberScheduled {
			return false, nil
		}
	}

	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, nil //nolint:nilerr // returning nil to continue polling
	}

	for i := range pods.Items {
		if !podReady(&pods.Items[i]) {
			return false, nil
		}
	}

	return true, nil
}

// WaitForNamespaceDeleted polls until namespace no longer exists.
func WaitForNamespaceDeleted(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace string,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		_, err := clientset.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

func replicas(desired *int32) int32 {
	if desired == nil {
		return 1
	}

	return *desired
}

func deploymentReady(deployment *appsv1.Deployment) bool {
	if deployment.Status.ObservedGeneration < deployment.Generation {
		return false
	}

	want := replicas(deployment.Spec.Replicas)

	return deployment.Status.UpdatedReplicas >= want && deployment.Status.ReadyReplicas >= want
}

func podReady(pod *corev1.Pod) bool {
	switch pod.Status.Phase {
	case corev1.PodSucceeded:
		return true
	case corev1.PodFailed:
		return false
	case corev1.PodPending, corev1.PodRunning, corev1.PodUnknown:
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}

	return false
}
