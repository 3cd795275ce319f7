// Package retry waits for backing services during process startup. It is
// not used on the event path; failed deliveries go through the queue's
// requeue instead.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// UntilReady calls ping with exponential backoff until it succeeds, ctx is
// done, or maxElapsed has passed. The last ping error is returned.
func UntilReady(ctx context.Context, name string, maxElapsed time.Duration, ping func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(func() error {
		return ping(ctx)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "dependency not ready, retrying",
			"dependency", name,
			"error", err,
			"retry_in", wait)
	})
}
