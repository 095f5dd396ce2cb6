package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Run is one execution instance of a Function for one trigger event.
// Handlers interact with it only through Step, Do and Sleep; all three are
// cancellation boundaries.
type Run struct {
	ID    string
	Event Event

	engine *Engine
	fn     *Function
	logger *slog.Logger

	cancelOnce sync.Once
	cancelCh   chan struct{}
}

// Payload decodes the run's trigger payload into out via JSON.
func (r *Run) Payload(out any) error {
	raw, err := json.Marshal(r.Event.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (r *Run) Logger() *slog.Logger {
	return r.logger
}

func (r *Run) Cancelled() bool {
	select {
	case <-r.cancelCh:
		return true
	default:
		return false
	}
}

func (r *Run) cancel() {
	r.cancelOnce.Do(func() { close(r.cancelCh) })
}

// backoff waits for d, returning false when cancellation interrupts it.
func (r *Run) backoff(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.cancelCh:
		return false
	}
}

// Step executes fn at most once per (run, name): a result persisted by a
// previous attempt is returned without re-invoking fn. Steps observe the
// order in which the handler calls them; a pending cancellation ends the
// run here before fn starts.
func Step[T any](ctx context.Context, r *Run, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r.Cancelled() {
		return zero, ErrCancelled
	}
	if raw, ok, err := r.engine.steps.LoadStep(r.ID, name); err != nil {
		return zero, fmt.Errorf("step %s: load cached result: %w", name, err)
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err != nil {
			return zero, fmt.Errorf("step %s: decode cached result: %w", name, err)
		}
		r.logger.Debug("step replayed from cache", "step", name)
		return cached, nil
	}

	out, err := fn(ctx)
	if err != nil {
		return zero, fmt.Errorf("step %s: %w", name, err)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return zero, fmt.Errorf("step %s: encode result: %w", name, err)
	}
	if err := r.engine.steps.SaveStep(r.ID, name, raw); err != nil {
		return zero, fmt.Errorf("step %s: persist result: %w", name, err)
	}
	r.logger.Debug("step completed", "step", name)
	return out, nil
}

// Do is Step for side-effect-only work.
func Do(ctx context.Context, r *Run, name string, fn func(ctx context.Context) error) error {
	_, err := Step(ctx, r, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Sleep suspends the run for d without holding compute beyond a parked
// goroutine. A completed sleep is recorded durably, so a retried run does
// not wait again; cancellation interrupts the wait immediately.
func (r *Run) Sleep(ctx context.Context, name string, d time.Duration) error {
	if r.Cancelled() {
		return ErrCancelled
	}
	if _, ok, err := r.engine.steps.LoadStep(r.ID, name); err != nil {
		return fmt.Errorf("sleep %s: %w", name, err)
	} else if ok {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-r.cancelCh:
		return ErrCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := r.engine.steps.SaveStep(r.ID, name, []byte(`{"slept":true}`)); err != nil {
		return fmt.Errorf("sleep %s: persist: %w", name, err)
	}
	return nil
}
