package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zpgpf/gpf-ledger/internal/data/db"
	"github.com/zpgpf/gpf-ledger/internal/platform/envutil"
)

// Duration accepts "5s" style strings or integer seconds in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" {
		d.Duration = 0
		return nil
	}
	if dd, err := time.ParseDuration(s); err == nil {
		d.Duration = dd
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be like \"5s\" or integer seconds, got %q", s)
	}
	d.Duration = time.Duration(n) * time.Second
	return nil
}

type HTTPConfig struct {
	Addr             string   `yaml:"addr"`
	ReadTimeout      Duration `yaml:"read_timeout"`
	WriteTimeout     Duration `yaml:"write_timeout"`
	ShutdownTimeout  Duration `yaml:"shutdown_timeout"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

type DBConfig struct {
	Driver       string   `yaml:"driver"`
	SQLitePath   string   `yaml:"sqlite_path"`
	PostgresDSN  string   `yaml:"postgres_dsn"`
	MaxOpenConns int      `yaml:"max_open_conns"`
	SlowQuery    Duration `yaml:"slow_query"`
}

type LedgerConfig struct {
	FetchConcurrency int `yaml:"fetch_concurrency"`
}

// LockConfig selects the per-employee write lock. An empty RedisAddr keeps
// the lock in process.
type LockConfig struct {
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	TTL           Duration `yaml:"ttl"`
	WaitTimeout   Duration `yaml:"wait_timeout"`
}

type MetricsConfig struct {
	Enabled        bool     `yaml:"enabled"`
	ScrapeInterval Duration `yaml:"scrape_interval"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	Headers     string  `yaml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	Env     string        `yaml:"env"`
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Lock    LockConfig    `yaml:"lock"`
	Metrics MetricsConfig `yaml:"metrics"`
	Otel    OtelConfig    `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:             ":3000",
			ReadTimeout:      Duration{30 * time.Second},
			WriteTimeout:     Duration{30 * time.Second},
			ShutdownTimeout:  Duration{10 * time.Second},
			CORSAllowOrigins: []string{"*"},
		},
		DB: DBConfig{
			Driver:     db.DriverSQLite,
			SQLitePath: "./zp_gpf_database.db",
			SlowQuery:  Duration{time.Second},
		},
		Ledger: LedgerConfig{FetchConcurrency: 8},
		Lock: LockConfig{
			TTL:         Duration{30 * time.Second},
			WaitTimeout: Duration{10 * time.Second},
		},
		Metrics: MetricsConfig{ScrapeInterval: Duration{10 * time.Second}},
		Otel: OtelConfig{
			ServiceName: "gpf-ledger",
			SampleRatio: 0.1,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file (GPF_CONFIG_PATH) and
// environment variables, in that order. A .env file in the working
// directory is loaded into the environment first when present.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("GPF_CONFIG_PATH")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.HTTP.Addr = envutil.String("GPF_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ShutdownTimeout.Duration = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout.Duration)
	cfg.HTTP.CORSAllowOrigins = envutil.List("CORS_ALLOW_ORIGINS", cfg.HTTP.CORSAllowOrigins)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)
	cfg.DB.PostgresDSN = envutil.String("POSTGRES_DSN", cfg.DB.PostgresDSN)
	cfg.DB.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	if ms := envutil.Int("DB_SLOW_QUERY_MS", 0); ms > 0 {
		cfg.DB.SlowQuery.Duration = time.Duration(ms) * time.Millisecond
	}

	cfg.Ledger.FetchConcurrency = envutil.Int("LEDGER_FETCH_CONCURRENCY", cfg.Ledger.FetchConcurrency)

	cfg.Lock.RedisAddr = envutil.String("REDIS_ADDR", cfg.Lock.RedisAddr)
	cfg.Lock.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.Lock.RedisPassword)
	cfg.Lock.RedisDB = envutil.Int("REDIS_DB", cfg.Lock.RedisDB)
	cfg.Lock.TTL.Duration = envutil.Duration("LOCK_TTL", cfg.Lock.TTL.Duration)
	cfg.Lock.WaitTimeout.Duration = envutil.Duration("LOCK_WAIT_TIMEOUT", cfg.Lock.WaitTimeout.Duration)

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ScrapeInterval.Duration = envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", cfg.Metrics.ScrapeInterval.Duration)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Otel.SampleRatio = f
		}
	}
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case db.DriverSQLite, "sqlite3":
		if strings.TrimSpace(c.DB.SQLitePath) == "" {
			return errors.New("config: SQLITE_PATH is required for the sqlite driver")
		}
	case db.DriverPostgres, "postgresql", "pg":
		if strings.TrimSpace(c.DB.PostgresDSN) == "" {
			return errors.New("config: POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("config: http address is empty")
	}
	if c.Ledger.FetchConcurrency <= 0 {
		return fmt.Errorf("config: LEDGER_FETCH_CONCURRENCY must be positive, got %d", c.Ledger.FetchConcurrency)
	}
	return nil
}

func (c Config) dbConfig() db.Config {
	return db.Config{
		Driver:       c.DB.Driver,
		SQLitePath:   c.DB.SQLitePath,
		PostgresDSN:  c.DB.PostgresDSN,
		MaxOpenConns: c.DB.MaxOpenConns,
		SlowQuery:    c.DB.SlowQuery.Duration,
	}
}
