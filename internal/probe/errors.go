package probe

import (
	"context"
	"errors"
	"net"

	"github.com/nao1215/identscan/internal/model"
)

// failureFromError maps a transport or context error to a Failure outcome.
func failureFromError(ctx context.Context, name string, err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Fail(model.ErrorTimeout, "%s: deadline exceeded", name)
	}
	if errors.Is(err, context.Canceled) {
		return Fail(model.ErrorTimeout, "%s: cancelled", name)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Fail(model.ErrorTimeout, "%s: %v", name, err)
	}

	return Fail(model.ErrorNetwork, "%s: %v", name, err)
}
