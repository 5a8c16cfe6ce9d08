package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/api"
	apiMiddleware "github.com/phrazzld/task-tracker/internal/api/middleware"
	"github.com/phrazzld/task-tracker/internal/config"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service"
	"github.com/phrazzld/task-tracker/internal/service/auth"
	"github.com/phrazzld/task-tracker/internal/store/memory"
	"github.com/phrazzld/task-tracker/internal/task"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testServer wires the real services over memory stores behind a chi router.
type testServer struct {
	handler http.Handler
	tasks   *memory.TaskStore
	tokens  auth.JWTService
	users   service.UserService
	release chan struct{}
}

// envelope mirrors shared.Envelope with raw data for per-test decoding.
type envelope struct {
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	TraceID string          `json:"trace_id"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := &testServer{
		tasks:   memory.NewTaskStore(logger),
		release: make(chan struct{}),
	}

	// Executions block until the test releases them, so "running" is observable.
	executor := task.ExecutorFunc(func(ctx context.Context, tk *domain.Task) (task.Outcome, error) {
		select {
		case <-ts.release:
			return task.Succeeded(), nil
		case <-ctx.Done():
			return task.Outcome{}, ctx.Err()
		}
	})

	queue := task.NewTaskQueue(16, logger)
	pool := task.NewWorkerPool(queue, ts.tasks, executor,
		task.WorkerPoolConfig{WorkerCount: 4, ExecutionTimeout: 10 * time.Second}, logger)
	pool.Start()
	t.Cleanup(func() {
		ts.releaseAll()
		pool.Stop()
	})

	dispatcher := task.NewDispatcher(ts.tasks, pool, nil, logger)
	taskSvc, err := service.NewTaskService(ts.tasks, dispatcher, logger)
	require.NoError(t, err)
	statusSvc := service.NewStatusService(ts.tasks, logger)

	ts.tokens, err = auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "test-secret-that-is-long-enough-for-testing",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)
	ts.users = service.NewUserService(memory.NewUserStore(), auth.NewBcryptHasher(bcrypt.MinCost), ts.tokens, logger)

	authHandler := api.NewAuthHandler(ts.users)
	taskHandler := api.NewTaskHandler(taskSvc, statusSvc)
	authMiddleware := apiMiddleware.NewAuthMiddleware(ts.tokens)

	r := chi.NewRouter()
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Post("/tasks/batch/create", taskHandler.BatchCreateTasks)
			r.Post("/tasks/batch/start", taskHandler.BatchStartTasks)
			r.Post("/tasks/batch/delete", taskHandler.BatchDeleteTasks)
			r.Post("/tasks/{id}/start", taskHandler.StartTask)
			r.Post("/tasks/{id}/cancel", taskHandler.CancelTask)
			r.Get("/tasks/{id}/status", taskHandler.GetTaskStatus)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		})
	})
	ts.handler = r
	return ts
}

func (ts *testServer) releaseAll() {
	select {
	case <-ts.release:
	default:
		close(ts.release)
	}
}

// login registers username and returns a bearer token for it.
func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()
	_, err := ts.users.Register(ctx, username, "password123")
	require.NoError(t, err)
	token, _, err := ts.users.Login(ctx, username, "password123")
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (ts *testServer) createTask(t *testing.T, token, name string) uuid.UUID {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/api/tasks", token,
		map[string]string{"name": name, "target": "https://example.com/" + name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp api.IDResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp.ID
}

func (ts *testServer) status(t *testing.T, token string, id uuid.UUID) api.StatusResponse {
	t.Helper()
	rec, env := ts.do(t, http.MethodGet, "/api/tasks/"+id.String()+"/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func (ts *testServer) waitTerminal(t *testing.T, token string, id uuid.UUID) api.StatusResponse {
	t.Helper()
	var last api.StatusResponse
	require.Eventually(t, func() bool {
		last = ts.status(t, token, id)
		return last.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return last
}
