package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alicesring/snapdemo/pkg/log"
	"github.com/alicesring/snapdemo/pkg/ringsig"
)

// call runs fn in its own goroutine under the session's call timeout.
// It returns as soon as the timeout expires or ctx is done, even if fn keeps
// running.
func call[T any](ctx context.Context, s *Session, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "ringsig."+op, trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("ringsig.operation", op),
	))
	defer span.End()
	lg := log.FromContext(log.SetContextLogger(ctx, s.lg.WithKV("op", op)))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		val, err := fn(callCtx)
		done <- result{val: val, err: err}
	}()

	var res result
	select {
	case res = <-done:
		if res.err != nil {
			res.err = classify(ctx, res.err)
		}
	case <-callCtx.Done():
		res.err = contextError(ctx)
	}
	elapsed := time.Since(start)
	s.metrics.observeCall(op, res.err, elapsed)

	if res.err != nil {
		kind := ringsig.KindOf(res.err)
		span.RecordError(res.err)
		span.SetStatus(codes.Error, kind.String())
		lg.Warn("provider call failed", "error", res.err, "kind", kind.String(), "duration", elapsed)
		var zero T
		return zero, res.err
	}
	lg.Debug("provider call succeeded", "duration", elapsed)
	return res.val, nil
}

// classify maps a provider error onto the ringsig taxonomy.
func classify(parent context.Context, err error) error {
	var rerr *ringsig.Error
	switch {
	case errors.As(err, &rerr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return contextError(parent)
	default:
		return fmt.Errorf("%w: %v", ringsig.ErrProviderUnreachable, err)
	}
}

func contextError(parent context.Context) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return ringsig.ErrDismissed
	}
	return ringsig.ErrProviderUnreachable
}
