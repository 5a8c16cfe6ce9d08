package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/phrazzld/task-tracker/internal/config"
	"github.com/phrazzld/task-tracker/internal/events"
	"github.com/phrazzld/task-tracker/internal/platform/postgres"
	"github.com/phrazzld/task-tracker/internal/service"
	"github.com/phrazzld/task-tracker/internal/service/auth"
	"github.com/phrazzld/task-tracker/internal/store"
	"github.com/phrazzld/task-tracker/internal/store/memory"
	"github.com/phrazzld/task-tracker/internal/task"
	"golang.org/x/sync/errgroup"
)

const (
	defaultShutdownTimeout = 15 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// nil when running on the in-memory stores
	db *sqlx.DB
	// nil when events stay in-process
	natsConn *nats.Conn

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService    auth.JWTService
	userService   service.UserService
	taskService   service.TaskService
	statusService service.StatusService

	emitter    *events.InMemoryEventEmitter
	pool       *task.WorkerPool
	dispatcher *task.Dispatcher
}

// newApplication creates a new application instance with all dependencies initialized.
// Nothing is started; Run recovers interrupted tasks, starts the workers and
// serves HTTP.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *application, err error) {
	app = &application{
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	if err := app.setupStores(ctx); err != nil {
		return nil, err
	}
	if err := app.setupEvents(); err != nil {
		return nil, err
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	executor, err := newExecutor(cfg.Task)
	if err != nil {
		return nil, err
	}

	queue := task.NewTaskQueue(cfg.Task.QueueSize, logger)
	app.pool = task.NewWorkerPool(queue, app.taskStore, executor, task.WorkerPoolConfig{
		WorkerCount:      cfg.Task.WorkerCount,
		ExecutionTimeout: cfg.Task.ExecutionTimeout(),
	}, logger)
	app.pool.SetEmitter(app.emitter)
	app.dispatcher = task.NewDispatcher(app.taskStore, app.pool, app.emitter, logger)

	app.taskService, err = service.NewTaskService(app.taskStore, app.dispatcher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize task service: %w", err)
	}
	app.statusService = service.NewStatusService(app.taskStore, logger)
	app.userService = service.NewUserService(
		app.userStore,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		app.jwtService,
		logger,
	)

	logger.Info("application initialized",
		"executor", cfg.Task.Executor,
		"workers", cfg.Task.WorkerCount,
		"queue_size", cfg.Task.QueueSize,
		"in_memory", cfg.Database.InMemory())
	return app, nil
}

func (app *application) setupStores(ctx context.Context) error {
	if app.config.Database.InMemory() {
		app.logger.Warn("no database URL configured, using in-memory stores")
		app.taskStore = memory.NewTaskStore(app.logger)
		app.userStore = memory.NewUserStore()
		return nil
	}

	db, err := postgres.Open(ctx, app.config.Database.URL, postgres.PoolOptions{
		MaxOpenConns: app.config.Database.MaxOpenConns,
		MaxIdleConns: app.config.Database.MaxIdleConns,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db
	app.taskStore = postgres.NewPostgresTaskStore(db, app.logger)
	app.userStore = postgres.NewPostgresUserStore(db, app.logger)
	app.logger.Info("database connection established")
	return nil
}

func (app *application) setupEvents() error {
	app.emitter = events.NewInMemoryEventEmitter(app.logger)
	app.emitter.RegisterHandler(events.EventHandlerFunc(func(ctx context.Context, e *events.TaskStatusEvent) error {
		app.logger.DebugContext(ctx, "task status changed",
			"task_id", e.TaskID,
			"status", e.Status)
		return nil
	}))

	if app.config.Events.NATSURL == "" {
		return nil
	}
	conn, err := events.ConnectNATS(app.config.Events.NATSURL, app.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	app.natsConn = conn
	app.emitter.RegisterHandler(events.NewNATSPublisher(conn, app.config.Events.SubjectPrefix, app.logger))
	app.logger.Info("publishing task status events to NATS",
		"subject_prefix", app.config.Events.SubjectPrefix)
	return nil
}

// newExecutor selects the Executor named by cfg.Executor.
func newExecutor(cfg config.TaskConfig) (task.Executor, error) {
	switch cfg.Executor {
	case config.ExecutorSimulated, "":
		return task.NewSimulatedExecutor(cfg.SimulatedDelay(), cfg.SuccessRate), nil
	case config.ExecutorHTTP:
		return task.NewHTTPExecutor(cfg.HTTPTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown executor %q", cfg.Executor)
	}
}

// Run fails tasks left running by a previous process, starts the workers and
// serves HTTP until ctx is cancelled or the server fails. Resources are
// released before it returns.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if _, err := app.dispatcher.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted tasks: %w", err)
	}
	app.pool.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		timeout := app.config.Server.ShutdownTimeout()
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		app.logger.Error("server stopped with error", "error", err)
		return err
	}
	app.logger.Info("server shutdown completed")
	return nil
}

// cleanup stops the workers and closes external connections. Safe to call
// on a partially initialized application.
func (app *application) cleanup() {
	if app.pool != nil {
		app.pool.Stop()
	}
	if app.natsConn != nil {
		if err := app.natsConn.Drain(); err != nil {
			app.logger.Error("failed to drain NATS connection", "error", err)
			app.natsConn.Close()
		}
		app.natsConn = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
		app.db = nil
	}
}
