package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalDesk/pkg/logger"
	"SignalDesk/pkg/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIGNALDESK_"

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Logger      logger.Config    `yaml:"logger"`
	Engine      EngineConfig     `yaml:"engine"`
	Risk        RiskConfig       `yaml:"risk"`
	Store       StoreConfig      `yaml:"store"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}

type EngineConfig struct {
	Strategy       string        `yaml:"strategy" default:"ma_crossover"`
	Instruments    []string      `yaml:"instruments" default:"[\"BTC\",\"ETH\"]" validate:"min=1,dive,required"`
	Timeframe      string        `yaml:"timeframe" default:"1h" validate:"oneof=1m 5m 15m 1h"`
	BarLimit       int           `yaml:"bar_limit" default:"250" validate:"gte=50,lte=5000"`
	SnapshotLimit  int           `yaml:"snapshot_limit" default:"100" validate:"gte=1"`
	TickInterval   time.Duration `yaml:"tick_interval" default:"1m" validate:"gt=0"`
	ReportInterval time.Duration `yaml:"report_interval" default:"1h" validate:"gt=0"`
	TickTimeout    time.Duration `yaml:"tick_timeout" default:"30s" validate:"gt=0"`
}

type RiskConfig struct {
	Level       string  `yaml:"level" default:"medium" validate:"oneof=low medium high"`
	MaxNotional float64 `yaml:"max_notional" default:"1000" validate:"gt=0"`
}

type StoreConfig struct {
	Backend       string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	Prefix        string        `yaml:"prefix" default:"signaldesk"`
	MemoryMaxSize int           `yaml:"memory_max_size" default:"1000" validate:"gte=1"`
	Redis         RedisConfig   `yaml:"redis"`
	Breaker       BreakerConfig `yaml:"breaker"`
}

type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379" validate:"gt=0,lte=65535"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	PoolSize int    `yaml:"pool_size" default:"10" validate:"gte=1"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"3" validate:"gte=1"`
	OpenTimeout         time.Duration `yaml:"open_timeout" default:"30s"`
	Interval            time.Duration `yaml:"interval" default:"1m"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost" validate:"required"`
	Port             int           `yaml:"port" default:"9000" validate:"gt=0,lte=65535"`
	Database         string        `yaml:"database" default:"signaldesk" validate:"required"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	BarsTable        string        `yaml:"bars_table" default:"bars" validate:"required"`
	SnapshotsTable   string        `yaml:"snapshots_table" default:"market_snapshots" validate:"required"`
	SignalsTable     string        `yaml:"signals_table" default:"signals" validate:"required"`
	InitSchema       bool          `yaml:"init_schema" default:"true"`
}

type MetricsConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Addr            string        `yaml:"addr" default:":9090"`
	Path            string        `yaml:"path" default:"/metrics"`
	// ShutdownTimeout bounds the graceful stop of the ops server.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
}

// Load fills defaults, overlays a YAML configuration file, applies SIGNALDESK_*
// environment overrides and validates the result. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	var c Config
	// defaults first so an explicit false or zero in YAML is kept
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads variables from envFile (when it exists) into the process
// environment, then calls Load.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	return Load(path)
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	str("ENVIRONMENT", &c.Environment)
	str("LOG_LEVEL", &c.Logger.Level)
	str("LOG_FORMAT", &c.Logger.Format)
	str("STRATEGY", &c.Engine.Strategy)
	str("TIMEFRAME", &c.Engine.Timeframe)
	str("RISK_LEVEL", &c.Risk.Level)
	str("STORE_BACKEND", &c.Store.Backend)
	str("REDIS_HOST", &c.Store.Redis.Host)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CLICKHOUSE_USER", &c.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	str("METRICS_ADDR", &c.Metrics.Addr)

	if v := getenv(EnvPrefix + "INSTRUMENTS"); v != "" {
		c.Engine.Instruments = util.SplitSymbols(v)
	}
	if v := getenv(EnvPrefix + "RISK_MAX_NOTIONAL"); v != "" {
		c.Risk.MaxNotional = util.ParseFloatDefault(v, c.Risk.MaxNotional)
	}
	if v := getenv(EnvPrefix + "BAR_LIMIT"); v != "" {
		c.Engine.BarLimit = util.ParseIntDefault(v, c.Engine.BarLimit)
	}
	if v := getenv(EnvPrefix + "REDIS_PORT"); v != "" {
		c.Store.Redis.Port = util.ParseIntDefault(v, c.Store.Redis.Port)
	}
	if v := getenv(EnvPrefix + "CLICKHOUSE_PORT"); v != "" {
		c.ClickHouse.Port = util.ParseIntDefault(v, c.ClickHouse.Port)
	}
}
