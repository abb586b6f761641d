package provider

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/analogy/pkg/errors"
)

/*
Guard bounds every call to the wrapped provider with a timeout and maps
failures onto the service's error kinds: an expired deadline becomes
ModelTimeout, anything else ModelInvocationError.
*/
type Guard struct {
	next    Interface
	name    string
	timeout time.Duration
}

func NewGuard(next Interface, name string, timeout time.Duration) *Guard {
	return &Guard{
		next:    next,
		name:    name,
		timeout: timeout,
	}
}

func (guard *Guard) Complete(ctx context.Context, req Request) (string, error) {
	if guard.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, guard.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := guard.next.Complete(ctx, req)

	if err == nil {
		log.Debug("model call completed",
			"provider", guard.name, "stage", req.Stage, "elapsed", time.Since(start),
		)
		return out, nil
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", errors.ErrModelTimeout.WithMessagef(
			"%s did not answer within %s", guard.name, guard.timeout,
		).Wrap(err)
	}

	return "", errors.ErrModelInvocation.WithMessagef("%s call failed", guard.name).Wrap(err)
}
