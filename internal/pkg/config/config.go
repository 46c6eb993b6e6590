package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	POI       POIConfig       `mapstructure:"poi"`
	RoundTrip RoundTripConfig `mapstructure:"roundtrip"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    int           `mapstructure:"read_timeout"`
	WriteTimeout   int           `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

// RoutingConfig selects the engine that realizes waypoints into routes.
type RoutingConfig struct {
	Provider     string        `mapstructure:"provider"` // valhalla | googlemaps
	ValhallaURL  string        `mapstructure:"valhalla_url"`
	GoogleAPIKey string        `mapstructure:"google_api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// OverpassConfig configures the road-attribute and point-feature service.
type OverpassConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	RPS       float64       `mapstructure:"rps"`
	Burst     int           `mapstructure:"burst"`
}

type AnalysisConfig struct {
	SegmentLengthMeters float64       `mapstructure:"segment_length_m"`
	BatchSize           int           `mapstructure:"batch_size"`
	BatchInterval       time.Duration `mapstructure:"batch_interval"`
	BBoxBufferDegrees   float64       `mapstructure:"bbox_buffer_deg"`
	QueryTimeout        time.Duration `mapstructure:"query_timeout"`
	CacheSize           int           `mapstructure:"cache_size"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

type POIConfig struct {
	DefaultRadiusMeters float64       `mapstructure:"default_radius_m"`
	MaxResults          int           `mapstructure:"max_results"`
	Source              string        `mapstructure:"source"` // overpass | postgis
	QueryTimeout        time.Duration `mapstructure:"query_timeout"`
}

type RoundTripConfig struct {
	Tolerance    float64       `mapstructure:"tolerance"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RouteTimeout time.Duration `mapstructure:"route_timeout"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 35)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ridekit")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "ridekit")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ridekit-roundtrip")
	v.SetDefault("temporal.enabled", true)
	v.SetDefault("routing.provider", "valhalla")
	v.SetDefault("routing.valhalla_url", "http://localhost:8002")
	v.SetDefault("routing.google_api_key", "")
	v.SetDefault("routing.timeout", 20*time.Second)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout", 25*time.Second)
	v.SetDefault("overpass.user_agent", "ridekit/1.0")
	v.SetDefault("overpass.rps", 2.0)
	v.SetDefault("overpass.burst", 10)
	v.SetDefault("analysis.segment_length_m", 100.0)
	v.SetDefault("analysis.batch_size", 10)
	v.SetDefault("analysis.batch_interval", time.Second)
	v.SetDefault("analysis.bbox_buffer_deg", 0.0001)
	v.SetDefault("analysis.query_timeout", 10*time.Second)
	v.SetDefault("analysis.cache_size", 4096)
	v.SetDefault("analysis.cache_ttl", time.Hour)
	v.SetDefault("poi.default_radius_m", 1000.0)
	v.SetDefault("poi.max_results", 100)
	v.SetDefault("poi.source", "overpass")
	v.SetDefault("poi.query_timeout", 20*time.Second)
	v.SetDefault("roundtrip.tolerance", 0.1)
	v.SetDefault("roundtrip.max_attempts", 10)
	v.SetDefault("roundtrip.route_timeout", 20*time.Second)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: RIDEKIT_ROUTING_PROVIDER → routing.provider
	v.SetEnvPrefix("RIDEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	switch c.Routing.Provider {
	case "valhalla":
		if c.Routing.ValhallaURL == "" {
			errs = append(errs, "routing.valhalla_url is required for the valhalla provider")
		}
	case "googlemaps":
		if c.Routing.GoogleAPIKey == "" {
			errs = append(errs, "routing.google_api_key is required for the googlemaps provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("routing.provider must be valhalla or googlemaps, got %q", c.Routing.Provider))
	}
	if c.Overpass.URL == "" {
		errs = append(errs, "overpass.url is required")
	}
	if c.Analysis.BatchSize <= 0 {
		errs = append(errs, "analysis.batch_size must be positive")
	}
	if c.Analysis.BBoxBufferDegrees < 0 {
		errs = append(errs, "analysis.bbox_buffer_deg must not be negative")
	}
	if c.POI.DefaultRadiusMeters <= 0 {
		errs = append(errs, "poi.default_radius_m must be positive")
	}
	if c.POI.MaxResults <= 0 {
		errs = append(errs, "poi.max_results must be positive")
	}
	if c.POI.Source != "overpass" && c.POI.Source != "postgis" {
		errs = append(errs, fmt.Sprintf("poi.source must be overpass or postgis, got %q", c.POI.Source))
	}
	if c.RoundTrip.Tolerance <= 0 || c.RoundTrip.Tolerance >= 1 {
		errs = append(errs, fmt.Sprintf("roundtrip.tolerance must be in (0,1), got %v", c.RoundTrip.Tolerance))
	}
	if c.RoundTrip.MaxAttempts <= 0 {
		errs = append(errs, "roundtrip.max_attempts must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
