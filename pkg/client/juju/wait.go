package juju

import (
	"context"
	"fmt"
	"time"

	"github.com/siderolabs/go-retry/retry"
)

// DefaultPollInterval is how often WaitForApplication queries juju status.
const DefaultPollInterval = 10 * time.Second

// WaitOptions configures WaitForApplication.
type WaitOptions struct {
	Model    string
	App      string
	Units    int
	Timeout  time.Duration
	Interval time.Duration
}

// WaitForApplication polls juju status until the application has settled.
// Status errors count as not settled until the timeout passes.
func (c *Client) WaitForApplication(ctx context.Context, opts WaitOptions) (*Status, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var settled *Status

	err := retry.Constant(opts.Timeout, retry.WithUnits(interval)).
		RetryWithContext(ctx, func(ctx context.Context) error {
			status, statusErr := c.Status(ctx, opts.Model)
			if statusErr != nil {
				return retry.ExpectedError(statusErr)
			}

			ok, message := status.Settled(opts.App, opts.Units)
			if !ok {
				return retry.ExpectedError(fmt.Errorf("%w: %s", ErrModelNotSettled, message))
			}

			settled = status

			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("waiting for %s in model %s: %w", opts.App, opts.Model, err)
	}

	return settled, nil
}
