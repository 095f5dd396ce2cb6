// Package workflow is a durable, cancellable step executor. A registered
// function runs once per triggering event; completed step results are
// persisted so a retried run skips work already done, and cancellation
// signals matched by correlation field end a run at the next step boundary.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one trigger or cancellation signal. Data holds the payload as
// decoded JSON; correlation matching reads individual fields from it.
type Event struct {
	Name string
	Data map[string]any
}

// Field returns the payload field as a string, empty when absent.
func (e Event) Field(name string) string {
	v, ok := e.Data[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// CancelOn aborts a run when an event named Event arrives whose payload
// Field equals the run's own trigger payload Field.
type CancelOn struct {
	Event string
	Field string
}

// Function is a named workflow bound to a trigger event.
type Function struct {
	Name     string
	Trigger  string
	CancelOn []CancelOn
	Handler  func(ctx context.Context, run *Run) error
	// OnFailure is invoked exactly once when the run exhausts retries or
	// raises a non-retriable error. It must not panic its way out; the
	// engine guards it regardless.
	OnFailure func(ctx context.Context, run *Run, cause error)
}

// StepStore persists completed step results keyed by (run id, step name).
type StepStore interface {
	LoadStep(runID, stepName string) ([]byte, bool, error)
	SaveStep(runID, stepName string, result []byte) error
}

type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

type Engine struct {
	steps  StepStore
	logger *slog.Logger
	retry  RetryPolicy

	mu     sync.Mutex
	byName map[string]*Function
	fns    map[string]*Function // by trigger event name
	active map[string]*Run

	wg sync.WaitGroup
}

type Option func(*Engine)

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Engine) {
		if policy.MaxAttempts > 0 {
			e.retry.MaxAttempts = policy.MaxAttempts
		}
		if policy.BaseBackoff > 0 {
			e.retry.BaseBackoff = policy.BaseBackoff
		}
	}
}

func NewEngine(steps StepStore, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		steps:  steps,
		logger: logger,
		retry:  RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Second},
		byName: map[string]*Function{},
		fns:    map[string]*Function{},
		active: map[string]*Run{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Register(fn Function) error {
	name := strings.TrimSpace(fn.Name)
	if name == "" {
		return errors.New("function name is required")
	}
	if strings.TrimSpace(fn.Trigger) == "" {
		return fmt.Errorf("function %s: trigger event is required", name)
	}
	if fn.Handler == nil {
		return fmt.Errorf("function %s: handler is required", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.byName[name]; exists {
		return fmt.Errorf("function %s already registered", name)
	}
	if _, exists := e.fns[fn.Trigger]; exists {
		return fmt.Errorf("trigger %s already bound", fn.Trigger)
	}
	registered := fn
	e.byName[name] = &registered
	e.fns[fn.Trigger] = &registered
	return nil
}

// Dispatch delivers an event: it cancels any in-flight run whose CancelOn
// matches, and starts a new run when the event triggers a registered
// function. The returned run id is empty when nothing was started.
// Cancellation signals arriving after a run completed are no-ops.
func (e *Engine) Dispatch(ctx context.Context, event Event) string {
	e.deliverCancellations(event)

	e.mu.Lock()
	fn, ok := e.fns[event.Name]
	e.mu.Unlock()
	if !ok {
		return ""
	}

	run := &Run{
		ID:       uuid.NewString(),
		Event:    event,
		engine:   e,
		fn:       fn,
		cancelCh: make(chan struct{}),
	}
	run.logger = e.logger.With("run_id", run.ID, "function", fn.Name)

	e.mu.Lock()
	e.active[run.ID] = run
	e.mu.Unlock()

	// The run outlives the dispatching caller. Request-scoped contexts end
	// when the handler returns, so the run keeps the caller's values but
	// never its cancellation; runs stop through CancelOn events.
	runCtx := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.execute(runCtx, run)
	}()
	return run.ID
}

// Wait blocks until every in-flight run has reached a terminal state.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) deliverCancellations(event Event) {
	e.mu.Lock()
	runs := make([]*Run, 0, len(e.active))
	for _, run := range e.active {
		runs = append(runs, run)
	}
	e.mu.Unlock()

	for _, run := range runs {
		for _, co := range run.fn.CancelOn {
			if co.Event != event.Name {
				continue
			}
			want := run.Event.Field(co.Field)
			if want == "" || want != event.Field(co.Field) {
				continue
			}
			run.cancel()
			e.logger.Info("run cancellation signalled",
				"run_id", run.ID, "function", run.fn.Name, "event", event.Name)
		}
	}
}

func (e *Engine) execute(ctx context.Context, run *Run) {
	defer func() {
		e.mu.Lock()
		delete(e.active, run.ID)
		e.mu.Unlock()
	}()

	var cause error
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		err := e.invokeHandler(ctx, run)
		if err == nil {
			run.logger.Info("run completed", "attempts", attempt)
			return
		}
		if errors.Is(err, ErrCancelled) || run.Cancelled() {
			run.logger.Info("run cancelled", "attempts", attempt)
			return
		}
		cause = err
		if IsNonRetriable(err) {
			run.logger.Error("run failed with non-retriable error", "error", err)
			break
		}
		run.logger.Warn("run attempt failed", "attempt", attempt, "error", err)
		if attempt < e.retry.MaxAttempts {
			if !run.backoff(e.retry.BaseBackoff << (attempt - 1)) {
				run.logger.Info("run cancelled during backoff")
				return
			}
		}
	}

	e.invokeFailureHook(ctx, run, cause)
}

func (e *Engine) invokeHandler(ctx context.Context, run *Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return run.fn.Handler(ctx, run)
}

func (e *Engine) invokeFailureHook(ctx context.Context, run *Run, cause error) {
	run.logger.Error("run failed", "error", cause)
	if run.fn.OnFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			run.logger.Error("failure hook panicked", "panic", r)
		}
	}()
	run.fn.OnFailure(ctx, run, cause)
}
