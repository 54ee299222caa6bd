package readiness

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultPollInterval is how often readiness conditions are checked.
const DefaultPollInterval = 2 * time.Second

// PollForReadiness checks poll immediately and then every DefaultPollInterval
// until it reports true, it returns an error, or deadline passes.
//
// A passed deadline is reported as ErrTimeoutExceeded. Cancellation of ctx is
// reported as the context error.
func PollForReadiness(
	ctx context.Context,
	deadline time.Duration,
	poll wait.ConditionWithContextFunc,
) error {
	err := wait.PollUntilContextTimeout(ctx, DefaultPollInterval, deadline, true, poll)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return fmt.Errorf("polling interrupted: %w", ctx.Err())
	}

	if wait.Interrupted(err) {
		return fmt.Errorf("%w after %s", ErrTimeoutExceeded, deadline)
	}

	return fmt.Errorf("polling failed: %w", err)
}
