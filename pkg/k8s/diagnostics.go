package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// DescribeUnreadyPods returns one line per pod in namespace that is neither
// Succeeded nor Running with every container ready. It is used to explain a
// readiness timeout.
func DescribeUnreadyPods(ctx context.Context, clientset kubernetes.Interface, namespace string) []string {
	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return []string{fmt.Sprintf("failed to list pods in %s: %v", namespace, err)}
	}

	var lines []string

	for i := range pods.Items {
		pod := &pods.Items[i]
		if podHealthy(pod) {
			continue
		}

		lines = append(lines, pod.Name+": "+podProblem(pod))
	}

	return lines
}

func podHealthy(pod *corev1.Pod) bool {
	if pod.Status.Phase == corev1.PodSucceeded {
		return true
	}

	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, container := range pod.Status.ContainerStatuses {
		if !container.Ready {
			return false
		}
	}

	return true
}

func podProblem(pod *corev1.Pod) string {
	statuses := append(
		append([]corev1.ContainerStatus{}, pod.Status.InitContainerStatuses...),
		pod.Status.ContainerStatuses...,
	)

	for _, container := range statuses {
		if waiting := container.State.Waiting; waiting != nil && waiting.Reason != "" {
			return fmt.Sprintf("container %s %s (%s)", container.Name, waiting.Reason, container.Image)
		}

		if terminated := container.State.Terminated; terminated != nil && terminated.ExitCode != 0 {
			return fmt.Sprintf("container %s exited with %d", container.Name, terminated.ExitCode)
		}
	}

	if pod.Status.Reason != "" {
		return string(pod.Status.Phase) + " (" + pod.Status.Reason + ")"
	}

	return string(pod.Status.Phase)
}
