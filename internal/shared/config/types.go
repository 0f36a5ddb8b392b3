package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	DSN             string `mapstructure:"dsn"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the explicit DSN if set, otherwise builds a MySQL DSN.
func (d *DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	// TokenTTL is the lifetime of tokens minted by the token command.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

const (
	UnknownStatusPolicyActive = "active"
	UnknownStatusPolicyIgnore = "ignore"
)

type BillingConfig struct {
	// StripeWebhookSecret enables signature verification. Empty accepts unsigned events.
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	UnknownStatusPolicy string `mapstructure:"unknown_status_policy"`
	MaxPayloadBytes     int64  `mapstructure:"max_payload_bytes"`
}

type ProvisionerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (p *ProvisionerConfig) Enabled() bool {
	return p.BaseURL != "" && p.APIKey != ""
}

type CacheConfig struct {
	PlanTTL     time.Duration `mapstructure:"plan_ttl"`
	PlanLRUSize int           `mapstructure:"plan_lru_size"`
}

type SchedulerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SweepSpec string `mapstructure:"sweep_spec"`
	BatchSize int    `mapstructure:"batch_size"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Insecure     bool   `mapstructure:"insecure"`
}

type RateLimitConfig struct {
	// WebhookPerMinute caps webhook deliveries per client IP. Zero disables the limit.
	WebhookPerMinute int `mapstructure:"webhook_per_minute"`
}
