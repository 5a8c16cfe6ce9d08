package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/task-tracker/internal/domain"
)

// ErrExecutionFault marks an execution that could not produce an outcome.
// It never reaches a caller; the task is failed with ResultFailure instead.
var ErrExecutionFault = errors.New("execution fault")

// Outcome is the terminal result an Executor reports for one task.
type Outcome struct {
	Success bool
	Code    int
}

// Succeeded is the outcome of a task that did its work.
func Succeeded() Outcome { return Outcome{Success: true, Code: domain.ResultSuccess} }

// Failed is the outcome of a task whose work reported failure.
func Failed() Outcome { return Outcome{Success: false, Code: domain.ResultFailure} }

// Status returns the terminal status the outcome maps to.
func (o Outcome) Status() domain.TaskStatus {
	if o.Success {
		return domain.TaskStatusFinished
	}
	return domain.TaskStatusFailed
}

// Valid reports whether the code agrees with the success flag.
func (o Outcome) Valid() bool {
	if o.Success {
		return o.Code == domain.ResultSuccess
	}
	return o.Code == domain.ResultFailure
}

// Executor performs the work of one task. Implementations must honour ctx
// cancellation and must be safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) (Outcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task *domain.Task) (Outcome, error)

// Execute calls f(ctx, task).
func (f ExecutorFunc) Execute(ctx context.Context, task *domain.Task) (Outcome, error) {
	return f(ctx, task)
}

// SimulatedExecutor waits for Delay and then succeeds with probability
// SuccessRate.
type SimulatedExecutor struct {
	Delay       time.Duration
	SuccessRate float64

	// Rand returns a number in [0, 1). Defaults to math/rand/v2.Float64.
	Rand func() float64
}

// NewSimulatedExecutor creates a SimulatedExecutor.
func NewSimulatedExecutor(delay time.Duration, successRate float64) *SimulatedExecutor {
	return &SimulatedExecutor{Delay: delay, SuccessRate: successRate}
}

// Execute implements Executor.
func (e *SimulatedExecutor) Execute(ctx context.Context, _ *domain.Task) (Outcome, error) {
	if e.Delay > 0 {
		timer := time.NewTimer(e.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	draw := rand.Float64
	if e.Rand != nil {
		draw = e.Rand
	}
	if draw() < e.SuccessRate {
		return Succeeded(), nil
	}
	return Failed(), nil
}

// HTTPExecutor treats the task target as a URL and GETs it. A 2xx or 3xx
// response is success, any other status is failure, and a transport error is
// an execution fault.
type HTTPExecutor struct {
	Client *http.Client
}

// NewHTTPExecutor creates an HTTPExecutor whose client gives up after timeout.
func NewHTTPExecutor(timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{Client: &http.Client{Timeout: timeout}}
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, task *domain.Task) (Outcome, error) {
	u, err := url.Parse(task.Target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Outcome{}, fmt.Errorf("%w: target is not an http(s) URL", ErrExecutionFault)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrExecutionFault, err)
	}
	req.Header.Set("User-Agent", "task-tracker")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Succeeded(), nil
	}
	return Failed(), nil
}
