// Package notifications runs best-effort side effects and publishes notification events.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"socialpost/internal/middleware"
	"socialpost/internal/observability"
)

// DefaultTimeout bounds a single side-effect job.
const DefaultTimeout = 5 * time.Second

// Job is a side effect that must never affect the outcome of the request that spawned it.
type Job func(ctx context.Context) error

// Dispatcher runs jobs off the request path. A job keeps the request's values (request
// id, user id, trace id) but not its cancellation, so it still completes after the
// response is written. Failures and panics are logged and counted, never returned.
type Dispatcher struct {
	timeout time.Duration
	inline  bool
	wg      sync.WaitGroup
}

// NewDispatcher runs each job on its own goroutine bounded by timeout.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{timeout: timeout}
}

// NewInlineDispatcher runs jobs synchronously inside Go. Used by tests and the CLI tools.
func NewInlineDispatcher() *Dispatcher {
	return &Dispatcher{timeout: DefaultTimeout, inline: true}
}

// Go schedules job under name.
func (d *Dispatcher) Go(ctx context.Context, name string, job Job) {
	ctx = context.WithoutCancel(ctx)
	if d.inline {
		d.run(ctx, name, job)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx, name, job)
	}()
}

// Wait blocks until every scheduled job has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(parent context.Context, name string, job Job) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			middleware.Logger.ErrorContext(ctx, "side effect panicked",
				slog.String("job", name),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
		observability.SideEffects.WithLabelValues(name, outcome).Inc()
	}()

	if err := job(ctx); err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		middleware.Logger.WarnContext(ctx, "side effect failed",
			slog.String("job", name),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
	}
}
