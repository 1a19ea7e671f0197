// Package config loads process configuration from defaults, an optional
// YAML file and SANDBOX_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bo-socayo/temporal-sandbox/pkg/cache"
	"github.com/bo-socayo/temporal-sandbox/pkg/events"
	"github.com/bo-socayo/temporal-sandbox/pkg/example"
	"github.com/bo-socayo/temporal-sandbox/pkg/orchestration"
	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
	"github.com/bo-socayo/temporal-sandbox/pkg/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. SANDBOX_SERVER_ADDR.
const EnvPrefix = "SANDBOX"

type Config struct {
	Server   ServerConfig                 `mapstructure:"server"`
	Temporal orchestration.Config         `mapstructure:"temporal"`
	Workflow WorkflowConfig               `mapstructure:"workflow"`
	Activity ActivityConfig               `mapstructure:"activity"`
	Log      LogConfig                    `mapstructure:"log"`
	Tracing  TracingConfig                `mapstructure:"tracing"`
	Storage  storage.StorageAdapterConfig `mapstructure:"storage"`
	Cache    CacheConfig                  `mapstructure:"cache"`
	Events   EventsConfig                 `mapstructure:"events"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WorkflowConfig struct {
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout"`
}

type ActivityConfig struct {
	ProcessDelay time.Duration `mapstructure:"process_delay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

// CacheConfig enables the Redis result cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// EventsConfig enables lifecycle events when AMQPURL is set.
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

func setDefaults(v *viper.Viper) {
	temporal := orchestration.DefaultConfig()
	storageDefaults := storage.DefaultStorageAdapterConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("temporal.host_port", temporal.HostPort)
	v.SetDefault("temporal.namespace", temporal.Namespace)
	v.SetDefault("temporal.task_queue", temporal.TaskQueue)
	v.SetDefault("workflow.execution_timeout", 10*time.Minute)
	v.SetDefault("activity.process_delay", example.DefaultProcessDelay)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", telemetry.LogFormatJSON)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", telemetry.ExporterNone)
	v.SetDefault("storage.enable_storage", storageDefaults.EnableStorage)
	v.SetDefault("storage.adapter_type", storageDefaults.AdapterType)
	v.SetDefault("storage.connection_string", storageDefaults.ConnectionString)
	v.SetDefault("storage.table_prefix", storageDefaults.TablePrefix)
	v.SetDefault("storage.max_retries", storageDefaults.MaxRetries)
	v.SetDefault("storage.retry_delay", storageDefaults.RetryDelay)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", events.DefaultExchange)
}

// Load reads configuration. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Temporal.ActivityDelay = cfg.Activity.ProcessDelay

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Temporal.HostPort == "" {
		errs = append(errs, errors.New("temporal.host_port must not be empty"))
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, errors.New("temporal.task_queue must not be empty"))
	}
	if c.Workflow.ExecutionTimeout <= 0 {
		errs = append(errs, errors.New("workflow.execution_timeout must be positive"))
	}
	if c.Activity.ProcessDelay < 0 {
		errs = append(errs, errors.New("activity.process_delay must not be negative"))
	}
	switch c.Log.Format {
	case telemetry.LogFormatJSON, telemetry.LogFormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log.format must be %s or %s", telemetry.LogFormatJSON, telemetry.LogFormatConsole))
	}
	switch c.Tracing.Exporter {
	case telemetry.ExporterNone, telemetry.ExporterStdout:
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be %s or %s", telemetry.ExporterNone, telemetry.ExporterStdout))
	}
	return errors.Join(errs...)
}
