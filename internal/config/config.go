package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/convowin/convowin/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Redis      RedisConfig
	Cache      CacheConfig   `validate:"required"`
	Storage    StorageConfig `validate:"required"`
	Billing    BillingConfig `validate:"required"`
	Scheduler  SchedulerConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool          `mapstructure:"auto_migrate"`
	SlowQueryThreshold     time.Duration `mapstructure:"slow_query_threshold"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Timeout  time.Duration
}

type CacheConfig struct {
	Enabled bool
	Backend types.CacheBackend `validate:"omitempty,oneof=memory redis"`
}

type StorageConfig struct {
	Backend types.StorageBackend `validate:"required,oneof=memory postgres"`
}

// BillingConfig carries the knobs of the conversation window pricing model
type BillingConfig struct {
	ConversationWindowTTL time.Duration `mapstructure:"conversation_window_ttl" validate:"required"`
	VolumeTieringEnabled  bool          `mapstructure:"volume_tiering_enabled"`
	DefaultVolumeTier     uint64        `mapstructure:"default_volume_tier"`
	InvoiceDueDays        int           `mapstructure:"invoice_due_days" validate:"gte=0"`
	DefaultCurrency       string        `mapstructure:"default_currency" validate:"required,len=3"`
	BatchConcurrency      int           `mapstructure:"batch_concurrency" validate:"gte=1"`
}

type SchedulerConfig struct {
	Enabled           bool
	Interval          time.Duration
	InvoiceDayOfMonth int `mapstructure:"invoice_day_of_month"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/convowin")

	v.SetEnvPrefix("CONVOWIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("postgres.slow_query_threshold", 500*time.Millisecond)
	v.SetDefault("redis.timeout", 2*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", types.CacheBackendMemory)
	v.SetDefault("storage.backend", types.StorageBackendMemory)
	v.SetDefault("billing.conversation_window_ttl", 24*time.Hour)
	v.SetDefault("billing.volume_tiering_enabled", true)
	v.SetDefault("billing.default_volume_tier", 0)
	v.SetDefault("billing.invoice_due_days", 15)
	v.SetDefault("billing.default_currency", "USD")
	v.SetDefault("billing.batch_concurrency", 8)
	v.SetDefault("scheduler.interval", time.Hour)
	v.SetDefault("scheduler.invoice_day_of_month", 1)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests. Everything lives in memory.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true, Backend: types.CacheBackendMemory},
		Storage:    StorageConfig{Backend: types.StorageBackendMemory},
		Billing: BillingConfig{
			ConversationWindowTTL: 24 * time.Hour,
			VolumeTieringEnabled:  true,
			InvoiceDueDays:        15,
			DefaultCurrency:       "USD",
			BatchConcurrency:      4,
		},
		Scheduler: SchedulerConfig{Interval: time.Hour, InvoiceDayOfMonth: 1},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// GetURL returns the connection string in URL form, which golang-migrate expects
func (c PostgresConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}
