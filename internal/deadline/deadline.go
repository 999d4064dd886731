// Package deadline maps a context onto the fixed per-request timeout of the
// fiber client, which has no cancellation of its own.
package deadline

import (
	"context"
	"time"
)

// Bound returns the timeout to hand to a fiber.Agent: limit, shortened to
// what is left of the context deadline. A limit of zero means no limit of
// its own. It fails with the context error once ctx is done.
func Bound(ctx context.Context, limit time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dl, ok := ctx.Deadline()
	if !ok {
		return limit, nil
	}
	left := time.Until(dl)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	if limit <= 0 || left < limit {
		return left, nil
	}
	return limit, nil
}
