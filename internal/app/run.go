package app

import (
	"context"
	"fmt"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/joshjon/kit/pgdb"
	"github.com/joshjon/kit/server"
	"github.com/joshjon/kit/sqlitedb"
	goredis "github.com/redis/go-redis/v9"

	"github.com/joshjon/relay/internal/delivery"
	"github.com/joshjon/relay/internal/notiflog"
	"github.com/joshjon/relay/internal/notification"
	"github.com/joshjon/relay/internal/postgres"
	pgmigrations "github.com/joshjon/relay/internal/postgres/migrations"
	"github.com/joshjon/relay/internal/queue"
	"github.com/joshjon/relay/internal/relayapi"
	"github.com/joshjon/relay/internal/sqlite"
	litemigrations "github.com/joshjon/relay/internal/sqlite/migrations"
	"github.com/joshjon/relay/internal/worker"
)

type stores struct {
	task *notification.Store
	logs notiflog.Repository
}

// Run starts the relay API server along with the background retry scheduler,
// recovery sweeper and worker pool. If Postgres is not configured, it falls
// back to SQLite: file-backed when SQLiteDir is set, otherwise in-memory with
// a warning.
func Run(ctx context.Context, logger log.Logger, cfg Config) error {
	s, cleanup, err := initStores(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	q, queueCleanup, err := initQueue(ctx, logger, cfg.Queue)
	if err != nil {
		return err
	}
	defer queueCleanup()

	startBackgroundLoops(ctx, logger, cfg, s, q)

	return serve(ctx, logger, cfg, s, q)
}

// RunWorker starts only the retry scheduler, recovery sweeper and worker
// pool — no HTTP surface — for deployments that scale dispatch workers
// separately from the API server.
func RunWorker(ctx context.Context, logger log.Logger, cfg Config) error {
	s, cleanup, err := initStores(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	q, queueCleanup, err := initQueue(ctx, logger, cfg.Queue)
	if err != nil {
		return err
	}
	defer queueCleanup()

	startBackgroundLoops(ctx, logger, cfg, s, q)

	poolCfg := buildPoolConfig(cfg)
	pool := worker.NewPool(poolCfg, q, s.task, buildExecutor(cfg), buildHandler(cfg, s), logger)

	logger.Info("worker started", "concurrency", poolCfg.Concurrency)
	pool.Run(ctx)
	return nil
}

// startBackgroundLoops launches the retry scheduler and recovery sweeper,
// defaulting any unset period/threshold per spec §4.H/§4.I.
func startBackgroundLoops(ctx context.Context, logger log.Logger, cfg Config, s stores, q queue.Queue) {
	retryPeriod := cfg.RetrySchedulerPeriod
	if retryPeriod <= 0 {
		retryPeriod = 10 * time.Second
	}
	sweepPeriod := cfg.RecoverySweepPeriod
	if sweepPeriod <= 0 {
		sweepPeriod = 60 * time.Second
	}
	sweepThreshold := cfg.RecoveryThreshold
	if sweepThreshold <= 0 {
		sweepThreshold = 5 * time.Minute
	}

	retryScheduler := worker.NewRetryScheduler(s.task, q, retryPeriod, logger)
	go retryScheduler.Run(ctx)

	recoverySweeper := worker.NewRecoverySweeper(s.task, q, sweepPeriod, sweepThreshold, logger)
	go recoverySweeper.Run(ctx)
}

// buildPoolConfig applies cfg's worker overrides onto worker.DefaultPoolConfig.
func buildPoolConfig(cfg Config) worker.PoolConfig {
	poolCfg := worker.DefaultPoolConfig()
	if cfg.WorkerConcurrency > 0 {
		poolCfg.Concurrency = cfg.WorkerConcurrency
	}
	if cfg.WorkerPollTimeout > 0 {
		poolCfg.PollTimeout = cfg.WorkerPollTimeout
	}
	return poolCfg
}

// buildExecutor applies cfg's delivery timeout overrides onto
// delivery.DefaultExecutorConfig.
func buildExecutor(cfg Config) *delivery.Executor {
	execCfg := delivery.DefaultExecutorConfig()
	if cfg.DeliveryConnectTimeout > 0 {
		execCfg.ConnectTimeout = cfg.DeliveryConnectTimeout
	}
	if cfg.DeliveryReadTimeout > 0 {
		execCfg.ReadTimeout = cfg.DeliveryReadTimeout
	}
	return delivery.NewExecutor(execCfg)
}

// buildHandler wires cfg's retry base delay and log truncation limits into
// the Outcome Handler.
func buildHandler(cfg Config, s stores) *delivery.Handler {
	return delivery.NewHandler(s.task, s.logs, delivery.HandlerConfig{
		BaseDelay:         cfg.RetryBaseDelay,
		ResponseBodyLimit: cfg.LogResponseBodyLimit,
		ErrorMessageLimit: cfg.LogErrorMessageLimit,
	})
}

func initStores(ctx context.Context, logger log.Logger, cfg Config) (stores, func(), error) {
	if !cfg.Postgres.IsSet() {
		if cfg.SQLiteDir != "" {
			logger.Info("Postgres not configured, using file-backed SQLite", "dir", cfg.SQLiteDir)
		} else {
			logger.Warn("Postgres not configured, using in-memory SQLite (data will not persist)")
		}
		return initSQLite(ctx, cfg.SQLiteDir)
	}
	return initPostgres(ctx, cfg.Postgres)
}

func initPostgres(ctx context.Context, cfg PostgresConfig) (stores, func(), error) {
	pool, err := pgdb.Dial(ctx, cfg.User, cfg.Password, cfg.HostPort, cfg.Database)
	if err != nil {
		return stores{}, nil, fmt.Errorf("dial postgres: %w", err)
	}

	if err := pgdb.Migrate(pool, pgmigrations.FS); err != nil {
		pool.Close()
		return stores{}, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	taskRepo := postgres.NewNotificationRepository(pool)
	taskStore := notification.NewStore(taskRepo)
	logRepo := postgres.NewLogRepository(pool)

	return stores{task: taskStore, logs: logRepo}, func() { pool.Close() }, nil
}

func initSQLite(ctx context.Context, dir string) (stores, func(), error) {
	var opts []sqlitedb.OpenOption
	if dir != "" {
		opts = append(opts, sqlitedb.WithDir(dir), sqlitedb.WithDBName("relay"))
	} else {
		opts = append(opts, sqlitedb.WithInMemory())
	}
	db, err := sqlitedb.Open(ctx, opts...)
	if err != nil {
		return stores{}, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := sqlitedb.Migrate(db, litemigrations.FS); err != nil {
		_ = db.Close()
		return stores{}, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	taskRepo := sqlite.NewNotificationRepository(db)
	taskStore := notification.NewStore(taskRepo)
	logRepo := sqlite.NewLogRepository(db)

	return stores{task: taskStore, logs: logRepo}, func() { _ = db.Close() }, nil
}

func initQueue(ctx context.Context, logger log.Logger, cfg QueueConfig) (queue.Queue, func(), error) {
	if !cfg.IsRedis() {
		logger.Warn("Redis not configured, using in-process queue (not shared across worker processes)")
		return queue.NewMemory(), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("dial redis: %w", err)
	}
	return queue.NewRedis(client), func() { _ = client.Close() }, nil
}

func serve(ctx context.Context, logger log.Logger, cfg Config, s stores, q queue.Queue) error {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithRequestTimeout(server.DefaultRequestTimeout, "/v1/notifications/:taskId/logs"),
	}
	if len(cfg.CorsOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.CorsOrigins...))
	}

	srv, err := server.NewServer(cfg.Port, opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// Mounted at /v1 per spec §6's literal endpoint paths (the teacher's own
	// /api/v1 convention is its own domain's choice, not this contract's).
	srv.Register("/v1", relayapi.NewHTTPHandler(s.task, s.logs, q, cfg.DefaultMaxRetries))

	poolCfg := buildPoolConfig(cfg)
	pool := worker.NewPool(poolCfg, q, s.task, buildExecutor(cfg), buildHandler(cfg, s), logger)
	go pool.Run(ctx)

	return Serve(ctx, logger, srv)
}

// Serve starts the server and blocks until the context is cancelled.
func Serve(ctx context.Context, logger log.Logger, srv *server.Server) error {
	errs := make(chan error)

	logger.Info("starting server", "address", srv.Address())
	go func() {
		defer close(errs)
		if err := srv.Start(); err != nil {
			errs <- fmt.Errorf("start server: %w", err)
		}
	}()
	defer func() { _ = srv.Stop(ctx) }()

	if err := srv.WaitHealthy(15, time.Second); err != nil {
		return err
	}
	logger.Info("server healthy")

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		logger.Info("server stopped")
		return nil
	}
}
