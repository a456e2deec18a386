package types

type RunMode string

const (
	// ModeLocal runs the API server and the in-process job trigger together
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server, jobs are triggered through the cron endpoints
	ModeAPI RunMode = "api"
	// ModeScheduler runs just the in-process job trigger
	ModeScheduler RunMode = "scheduler"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// StorageBackend selects the repository implementation
type StorageBackend string

const (
	StorageBackendMemory   StorageBackend = "memory"
	StorageBackendPostgres StorageBackend = "postgres"
)

// CacheBackend selects where conversation windows live
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)
