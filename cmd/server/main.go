package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/urfave/cli/v2"

	"github.com/joshjon/relay/internal/app"
)

func main() {
	logger := log.NewLogger(log.WithDevelopment())

	cliApp := &cli.App{
		Name:  "relay-server",
		Usage: "HTTP notification relay API server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", EnvVars: []string{"PORT"}, Value: 7400},
			&cli.StringFlag{Name: "postgres-user", EnvVars: []string{"POSTGRES_USER"}},
			&cli.StringFlag{Name: "postgres-password", EnvVars: []string{"POSTGRES_PASSWORD"}},
			&cli.StringFlag{Name: "postgres-hostport", EnvVars: []string{"POSTGRES_HOSTPORT"}},
			&cli.StringFlag{Name: "postgres-database", EnvVars: []string{"POSTGRES_DATABASE"}},
			&cli.StringFlag{Name: "sqlite-dir", EnvVars: []string{"SQLITE_DIR"}},
			&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"REDIS_ADDR"}},
			&cli.IntFlag{Name: "redis-db", EnvVars: []string{"REDIS_DB"}},
			&cli.StringSliceFlag{Name: "cors-origin", EnvVars: []string{"CORS_ORIGINS"}},
			&cli.IntFlag{Name: "worker-concurrency", EnvVars: []string{"WORKER_CONCURRENCY"}, Value: 4},
			&cli.IntFlag{Name: "worker-poll-timeout-seconds", EnvVars: []string{"WORKER_POLL_TIMEOUT_SECONDS"}, Value: 5},
			&cli.IntFlag{Name: "delivery-connect-timeout-ms", EnvVars: []string{"DELIVERY_CONNECT_TIMEOUT_MS"}, Value: 5000},
			&cli.IntFlag{Name: "delivery-read-timeout-ms", EnvVars: []string{"DELIVERY_READ_TIMEOUT_MS"}, Value: 30000},
			&cli.IntFlag{Name: "retry-max-retries", EnvVars: []string{"RETRY_MAX_RETRIES"}, Value: 5},
			&cli.IntFlag{Name: "retry-base-delay-seconds", EnvVars: []string{"RETRY_BASE_DELAY_SECONDS"}, Value: 1},
			&cli.IntFlag{Name: "retry-scheduler-period-seconds", EnvVars: []string{"RETRY_SCHEDULER_PERIOD_SECONDS"}, Value: 10},
			&cli.IntFlag{Name: "recovery-sweep-period-seconds", EnvVars: []string{"RECOVERY_SWEEP_PERIOD_SECONDS"}, Value: 60},
			&cli.IntFlag{Name: "recovery-threshold-seconds", EnvVars: []string{"RECOVERY_THRESHOLD_SECONDS"}, Value: 300},
			&cli.IntFlag{Name: "log-response-body-limit", EnvVars: []string{"LOG_RESPONSE_BODY_LIMIT"}, Value: 2000},
			&cli.IntFlag{Name: "log-error-message-limit", EnvVars: []string{"LOG_ERROR_MESSAGE_LIMIT"}, Value: 1000},
		},
		Action: func(c *cli.Context) error {
			cfg := app.Config{
				Port: c.Int("port"),
				Postgres: app.PostgresConfig{
					User:     c.String("postgres-user"),
					Password: c.String("postgres-password"),
					HostPort: c.String("postgres-hostport"),
					Database: c.String("postgres-database"),
				},
				SQLiteDir: c.String("sqlite-dir"),
				Queue: app.QueueConfig{
					RedisAddr: c.String("redis-addr"),
					RedisDB:   c.Int("redis-db"),
				},
				CorsOrigins:            c.StringSlice("cors-origin"),
				WorkerConcurrency:      c.Int("worker-concurrency"),
				WorkerPollTimeout:      time.Duration(c.Int("worker-poll-timeout-seconds")) * time.Second,
				DeliveryConnectTimeout: time.Duration(c.Int("delivery-connect-timeout-ms")) * time.Millisecond,
				DeliveryReadTimeout:    time.Duration(c.Int("delivery-read-timeout-ms")) * time.Millisecond,
				DefaultMaxRetries:      c.Int("retry-max-retries"),
				RetryBaseDelay:         time.Duration(c.Int("retry-base-delay-seconds")) * time.Second,
				RetrySchedulerPeriod:   time.Duration(c.Int("retry-scheduler-period-seconds")) * time.Second,
				RecoverySweepPeriod:    time.Duration(c.Int("recovery-sweep-period-seconds")) * time.Second,
				RecoveryThreshold:      time.Duration(c.Int("recovery-threshold-seconds")) * time.Second,
				LogResponseBodyLimit:   c.Int("log-response-body-limit"),
				LogErrorMessageLimit:   c.Int("log-error-message-limit"),
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return app.Run(ctx, logger, cfg)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
