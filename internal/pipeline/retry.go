package pipeline

import (
	"context"
	"errors"
	"time"

	"facefortune/internal/analysis"
)

// RetryPolicy controls re-attempts of the remote stages. The zero value
// means exactly one attempt, which preserves the product's default behavior
// of no retry.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// runStage invokes one remote stage under the retry policy. The no-face
// sentinel is terminal and never retried; a cancelled context stops the loop.
func runStage[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero T
		err  error
	)
	for attempt := 0; attempt < p.attempts(); attempt++ {
		if attempt > 0 && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		var out T
		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, analysis.ErrNoFace) || ctx.Err() != nil {
			break
		}
	}
	return zero, err
}
