package task

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name       string
		outcome    Outcome
		wantStatus domain.TaskStatus
		wantValid  bool
	}{
		{"succeeded", Succeeded(), domain.TaskStatusFinished, true},
		{"failed", Failed(), domain.TaskStatusFailed, true},
		{"success with failure code", Outcome{Success: true, Code: 0}, domain.TaskStatusFinished, false},
		{"failure with success code", Outcome{Success: false, Code: 1}, domain.TaskStatusFailed, false},
		{"unknown code", Outcome{Success: true, Code: 7}, domain.TaskStatusFinished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.outcome.Status())
			assert.Equal(t, tt.wantValid, tt.outcome.Valid())
		})
	}
}

func TestSimulatedExecutor(t *testing.T) {
	task := &domain.Task{ID: uuid.New()}

	t.Run("draw below rate succeeds", func(t *testing.T) {
		e := &SimulatedExecutor{SuccessRate: 0.5, Rand: func() float64 { return 0.1 }}
		out, err := e.Execute(context.Background(), task)
		require.NoError(t, err)
		assert.Equal(t, Succeeded(), out)
	})

	t.Run("draw above rate fails", func(t *testing.T) {
		e := &SimulatedExecutor{SuccessRate: 0.5, Rand: func() float64 { return 0.9 }}
		out, err := e.Execute(context.Background(), task)
		require.NoError(t, err)
		assert.Equal(t, Failed(), out)
	})

	t.Run("default source stays within bounds", func(t *testing.T) {
		e := NewSimulatedExecutor(0, 1)
		out, err := e.Execute(context.Background(), task)
		require.NoError(t, err)
		assert.True(t, out.Valid())
		assert.True(t, out.Success)
	})

	t.Run("cancellation interrupts the delay", func(t *testing.T) {
		e := NewSimulatedExecutor(time.Hour, 1)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := e.Execute(ctx, task)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestHTTPExecutor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/moved":
			w.WriteHeader(http.StatusNotModified)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	tests := []struct {
		name      string
		target    string
		want      Outcome
		wantFault bool
	}{
		{"2xx succeeds", server.URL + "/ok", Succeeded(), false},
		{"3xx succeeds", server.URL + "/moved", Succeeded(), false},
		{"5xx fails", server.URL + "/broken", Failed(), false},
		{"not a url", "build the thing", Outcome{}, true},
		{"unsupported scheme", "ftp://example.com/file", Outcome{}, true},
	}

	e := NewHTTPExecutor(2 * time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Execute(context.Background(), &domain.Task{ID: uuid.New(), Target: tt.target})
			if tt.wantFault {
				assert.ErrorIs(t, err, ErrExecutionFault)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("transport error", func(t *testing.T) {
		closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := closed.URL
		closed.Close()

		_, err := e.Execute(context.Background(), &domain.Task{ID: uuid.New(), Target: url})
		assert.Error(t, err)
	})
}

func TestExecutorFunc(t *testing.T) {
	called := false
	var e Executor = ExecutorFunc(func(ctx context.Context, task *domain.Task) (Outcome, error) {
		called = true
		return Succeeded(), nil
	})

	out, err := e.Execute(context.Background(), &domain.Task{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, Succeeded(), out)
}
