package app

import "time"

// Config holds the relay API server configuration.
type Config struct {
	Port        int
	Postgres    PostgresConfig // If empty, uses SQLite
	SQLiteDir   string         // Directory for SQLite DB file; if empty, uses in-memory
	CorsOrigins []string

	Queue QueueConfig

	WorkerConcurrency    int
	WorkerPollTimeout    time.Duration
	RetrySchedulerPeriod time.Duration
	RecoverySweepPeriod  time.Duration
	RecoveryThreshold    time.Duration

	DeliveryConnectTimeout time.Duration
	DeliveryReadTimeout    time.Duration

	DefaultMaxRetries int
	RetryBaseDelay    time.Duration

	LogResponseBodyLimit int
	LogErrorMessageLimit int
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	User     string
	Password string
	HostPort string
	Database string
}

// IsSet returns true if Postgres connection parameters are configured.
func (c PostgresConfig) IsSet() bool {
	return c.HostPort != ""
}

// QueueConfig selects and configures the Queue implementation.
type QueueConfig struct {
	RedisAddr string // If empty, uses the in-process Memory queue.
	RedisDB   int
}

// IsRedis returns true if a Redis address is configured.
func (c QueueConfig) IsRedis() bool {
	return c.RedisAddr != ""
}
