package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/nat-prohmpiriya/llm-application-framework/internal/shared/config"
)

type Config struct {
	Server      sharedConfig.ServerConfig      `mapstructure:"server"`
	Database    sharedConfig.DatabaseConfig    `mapstructure:"database"`
	Logger      sharedConfig.LoggerConfig      `mapstructure:"logger"`
	Auth        sharedConfig.AuthConfig        `mapstructure:"auth"`
	Redis       sharedConfig.RedisConfig       `mapstructure:"redis"`
	Billing     sharedConfig.BillingConfig     `mapstructure:"billing"`
	Provisioner sharedConfig.ProvisionerConfig `mapstructure:"provisioner"`
	Cache       sharedConfig.CacheConfig       `mapstructure:"cache"`
	Scheduler   sharedConfig.SchedulerConfig   `mapstructure:"scheduler"`
	Telemetry   sharedConfig.TelemetryConfig   `mapstructure:"telemetry"`
	RateLimit   sharedConfig.RateLimitConfig   `mapstructure:"ratelimit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml and LLMAPP_* environment variables.
// A missing config file is not an error; defaults and env still apply.
func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvPrefix("LLMAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Billing.UnknownStatusPolicy {
	case sharedConfig.UnknownStatusPolicyActive, sharedConfig.UnknownStatusPolicyIgnore:
	default:
		return fmt.Errorf("invalid billing.unknown_status_policy: %s", c.Billing.UnknownStatusPolicy)
	}
	if c.Server.Mode == "release" && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret must be set in release mode")
	}
	return nil
}

const defaultJWTSecret = "change-me-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "llmapp_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.issuer", "llmapp")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("billing.stripe_webhook_secret", "")
	v.SetDefault("billing.unknown_status_policy", sharedConfig.UnknownStatusPolicyActive)
	v.SetDefault("billing.max_payload_bytes", 65536)

	v.SetDefault("provisioner.base_url", "")
	v.SetDefault("provisioner.api_key", "")
	v.SetDefault("provisioner.timeout", "30s")

	v.SetDefault("cache.plan_ttl", "60s")
	v.SetDefault("cache.plan_lru_size", 256)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sweep_spec", "@every 15m")
	v.SetDefault("scheduler.batch_size", 100)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "llmapp")
	v.SetDefault("telemetry.insecure", true)

	v.SetDefault("ratelimit.webhook_per_minute", 600)
}
