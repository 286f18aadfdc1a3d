package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the usage service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Upstream      UpstreamConfig      `mapstructure:"upstream"`
	Credits       CreditsConfig       `mapstructure:"credits"`
	ReportCache   ReportCacheConfig   `mapstructure:"report_cache"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	RateLimits    RateLimitConfig     `mapstructure:"rate_limits"`
	Health        HealthConfig        `mapstructure:"health"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
	CORSOrigins           []string      `mapstructure:"cors_origins"`
}

type UpstreamConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

type CreditsConfig struct {
	BaseRate           float64 `mapstructure:"base_rate"`
	CharactersPerToken float64 `mapstructure:"characters_per_token"`
	Minimum            float64 `mapstructure:"minimum"`
	TokenBasis         string  `mapstructure:"token_basis"`
}

type ReportCacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MinConns        int32         `mapstructure:"min_conns"`
}

// Enabled reports whether a Postgres-backed report cache was configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.URL) != ""
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Enabled reports whether a Redis report cache was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// HealthConfig controls the background upstream probe. A zero interval disables it.
type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Token basis values accepted by credits.token_basis.
const (
	TokenBasisCharacters     = "characters"
	TokenBasisWordCharacters = "word_characters"
)

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else if cfg := os.Getenv("USAGE_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
		explicitFile = true
	}

	if !explicitFile {
		v.SetConfigName("usage")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("USAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeStringToDurationHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and normalizes optional ones.
func (c *Config) Validate() error {
	if err := c.Upstream.validate(); err != nil {
		return err
	}
	if err := c.Credits.validate(); err != nil {
		return err
	}
	if c.ReportCache.TTL <= 0 {
		c.ReportCache.TTL = time.Hour
	}
	if c.ReportCache.SweepInterval <= 0 {
		c.ReportCache.SweepInterval = 15 * time.Minute
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}
	if c.Health.CheckInterval < 0 {
		return fmt.Errorf("health.check_interval must be >= 0")
	}
	if c.Health.Timeout <= 0 {
		c.Health.Timeout = 5 * time.Second
	}
	if c.Health.CheckInterval > 0 && c.Health.Timeout > c.Health.CheckInterval {
		c.Health.Timeout = c.Health.CheckInterval
	}
	if c.RateLimits.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limits.requests_per_minute must be >= 0")
	}
	c.Server.CORSOrigins = normalizeStringSlice(c.Server.CORSOrigins)
	return c.Logging.validate()
}

func (u *UpstreamConfig) validate() error {
	base := strings.TrimSpace(u.BaseURL)
	if base == "" {
		return fmt.Errorf("missing required configuration: USAGE_UPSTREAM_BASE_URL")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL")
	}
	u.BaseURL = strings.TrimRight(base, "/")
	if u.Timeout <= 0 {
		u.Timeout = 30 * time.Second
	}
	if u.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must be >= 0")
	}
	if u.RetryBackoff <= 0 {
		u.RetryBackoff = 200 * time.Millisecond
	}
	if u.MaxConcurrency <= 0 {
		u.MaxConcurrency = 8
	}
	return nil
}

func (c *CreditsConfig) validate() error {
	if c.BaseRate <= 0 {
		return fmt.Errorf("credits.base_rate must be > 0")
	}
	if c.CharactersPerToken <= 0 {
		return fmt.Errorf("credits.characters_per_token must be > 0")
	}
	if c.Minimum < 0 {
		return fmt.Errorf("credits.minimum must be >= 0")
	}
	basis := strings.ToLower(strings.TrimSpace(c.TokenBasis))
	switch basis {
	case "":
		basis = TokenBasisCharacters
	case TokenBasisCharacters, TokenBasisWordCharacters:
	default:
		return fmt.Errorf("credits.token_basis must be %s or %s", TokenBasisCharacters, TokenBasisWordCharacters)
	}
	c.TokenBasis = basis
	return nil
}

func (l *LoggingConfig) validate() error {
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	if _, err := l.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts logging.level into a slog level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	level := strings.TrimSpace(l.Level)
	if level == "" {
		return slog.LevelInfo, nil
	}
	var out slog.Level
	if err := out.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level: %w", err)
	}
	return out, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	})

	v.SetDefault("upstream.base_url", "https://owpublic.blob.core.windows.net/tech-task")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.retry_backoff", "200ms")
	v.SetDefault("upstream.max_concurrency", 8)

	v.SetDefault("credits.base_rate", 40.0)
	v.SetDefault("credits.characters_per_token", 4.0)
	v.SetDefault("credits.minimum", 1.0)
	v.SetDefault("credits.token_basis", TokenBasisCharacters)

	v.SetDefault("report_cache.ttl", "1h")
	v.SetDefault("report_cache.sweep_interval", "15m")

	v.SetDefault("database.url", "")
	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rate_limits.requests_per_minute", 0)

	v.SetDefault("health.check_interval", "1m")
	v.SetDefault("health.timeout", "5s")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func normalizeStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
