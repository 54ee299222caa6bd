package readiness

import (
	"context"
	"time"

	"k8s.io/client-go/kubernetes"
)

// WaitForAPIServerReady polls ServerVersion until the API server answers.
// Errors are treated as not ready yet.
func WaitForAPIServerReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(_ context.Context) (bool, error) {
		_, err := clientset.Discovery().ServerVersion()
		if err != nil {
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return true, nil
	})
}
