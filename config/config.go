package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Analytics pipeline tuning
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

type ServerConfig struct {
	// ID identifies this instance in enriched events; hostname when empty.
	ID   string `mapstructure:"id"`
	Port int    `mapstructure:"port"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Port           int    `mapstructure:"port"`
	Retention      string `mapstructure:"retention"`
	ScrapeInterval string `mapstructure:"scrape_interval"`
	Target         string `mapstructure:"target"`
}

// AnalyticsConfig carries the insight rule thresholds and realtime
// aggregation tuning. Rates are percentages, duration is seconds.
type AnalyticsConfig struct {
	LowConversionRate      float64 `mapstructure:"low_conversion_rate"`
	CriticalConversionRate float64 `mapstructure:"critical_conversion_rate"`
	LowEngagementDuration  float64 `mapstructure:"low_engagement_duration"`
	LowInteractionRatio    float64 `mapstructure:"low_interaction_ratio"`
	RealtimeTTLHours       int     `mapstructure:"realtime_ttl_hours"`
	RecentWindowSize       int64   `mapstructure:"recent_window_size"`
	InsightQueueSize       int     `mapstructure:"insight_queue_size"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("analytics.low_conversion_rate", 2.0)
	v.SetDefault("analytics.critical_conversion_rate", 1.0)
	v.SetDefault("analytics.low_engagement_duration", 30.0)
	v.SetDefault("analytics.low_interaction_ratio", 0.5)
	v.SetDefault("analytics.realtime_ttl_hours", 24)
	v.SetDefault("analytics.recent_window_size", 1000)
	v.SetDefault("analytics.insight_queue_size", 64)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.id", "SERVER_ID")
	v.BindEnv("server.port", "SERVER_PORT")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
	v.BindEnv("prometheus.retention", "PROM_RETENTION")
	v.BindEnv("prometheus.scrape_interval", "PROM_SCRAPE_INTERVAL")
	v.BindEnv("prometheus.target", "PROM_TARGET")

	// Analytics
	v.BindEnv("analytics.low_conversion_rate", "ANALYTICS_LOW_CONVERSION_RATE")
	v.BindEnv("analytics.critical_conversion_rate", "ANALYTICS_CRITICAL_CONVERSION_RATE")
	v.BindEnv("analytics.low_engagement_duration", "ANALYTICS_LOW_ENGAGEMENT_DURATION")
	v.BindEnv("analytics.low_interaction_ratio", "ANALYTICS_LOW_INTERACTION_RATIO")
	v.BindEnv("analytics.realtime_ttl_hours", "ANALYTICS_REALTIME_TTL_HOURS")
	v.BindEnv("analytics.recent_window_size", "ANALYTICS_RECENT_WINDOW_SIZE")
	v.BindEnv("analytics.insight_queue_size", "ANALYTICS_INSIGHT_QUEUE_SIZE")
}
