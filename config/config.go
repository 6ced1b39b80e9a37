package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable, e.g. THANWIA_SERVER_PORT
const EnvPrefix = "THANWIA"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Redis   RedisConfig   `yaml:"redis" envconfig:"REDIS"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432" validate:"min=1"`
	UploadRPS       float64       `yaml:"upload_rps" envconfig:"UPLOAD_RPS" default:"5" validate:"gt=0"`
	UploadBurst     int           `yaml:"upload_burst" envconfig:"UPLOAD_BURST" default:"10" validate:"min=1"`
	Mode            string        `yaml:"mode" envconfig:"MODE" default:"release" validate:"oneof=debug release test"`
}

// RedisConfig enables the shared dataset cache
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Addr     string        `yaml:"addr" envconfig:"ADDR" default:"127.0.0.1:6379" validate:"required_if=Enabled true"`
	Password string        `yaml:"password" envconfig:"PASSWORD"`
	DB       int           `yaml:"db" envconfig:"DB" default:"8" validate:"min=0,max=15"`
	TTL      time.Duration `yaml:"ttl" envconfig:"TTL" default:"24h"`
}

// DataConfig controls loading and dashboard defaults
type DataConfig struct {
	SeedFile       string        `yaml:"seed_file" envconfig:"SEED_FILE"`
	MemoryDatasets int           `yaml:"memory_datasets" envconfig:"MEMORY_DATASETS" default:"16" validate:"min=1"`
	MaxSessions    int           `yaml:"max_sessions" envconfig:"MAX_SESSIONS" default:"10000" validate:"min=1"`
	SessionTTL     time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL" default:"24h" validate:"gt=0"`
	SeatingColumns []string      `yaml:"seating_columns" envconfig:"SEATING_COLUMNS"`
	NameColumns    []string      `yaml:"name_columns" envconfig:"NAME_COLUMNS"`
	ScoreColumns   []string      `yaml:"score_columns" envconfig:"SCORE_COLUMNS"`
	HistogramBins  int           `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS" default:"50" validate:"min=1,max=500"`
	TopN           int           `yaml:"top_n" envconfig:"TOP_N" default:"10" validate:"min=1,max=1000"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

// Load reads an optional .env, then the environment, then overlays the YAML file at path.
// Environment variables win over the file for fields they set.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path != "" {
		fileCfg, keys, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, keys, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// fileKeys records which section/key pairs the YAML file sets
type fileKeys map[string]map[string]interface{}

// loadFromFile loads configuration from YAML file
func loadFromFile(path string) (*Config, fileKeys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, err
	}
	var keys fileKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, nil, err
	}
	return &cfg, keys, nil
}

// mergeConfigs takes the file value for every key the file sets, unless the
// matching environment variable is set too. Zero values in the file count.
func mergeConfigs(file Config, keys fileKeys, env Config) Config {
	out := env
	use := func(section, key string) bool {
		if _, ok := keys[section][key]; !ok {
			return false
		}
		_, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(section+"_"+key))
		return !ok
	}

	if use("server", "port") {
		out.Server.Port = file.Server.Port
	}
	if use("server", "read_timeout") {
		out.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if use("server", "write_timeout") {
		out.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if use("server", "shutdown_timeout") {
		out.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}
	if use("server", "max_upload_bytes") {
		out.Server.MaxUploadBytes = file.Server.MaxUploadBytes
	}
	if use("server", "upload_rps") {
		out.Server.UploadRPS = file.Server.UploadRPS
	}
	if use("server", "upload_burst") {
		out.Server.UploadBurst = file.Server.UploadBurst
	}
	if use("server", "mode") {
		out.Server.Mode = file.Server.Mode
	}

	if use("redis", "enabled") {
		out.Redis.Enabled = file.Redis.Enabled
	}
	if use("redis", "addr") {
		out.Redis.Addr = file.Redis.Addr
	}
	if use("redis", "password") {
		out.Redis.Password = file.Redis.Password
	}
	if use("redis", "db") {
		out.Redis.DB = file.Redis.DB
	}
	if use("redis", "ttl") {
		out.Redis.TTL = file.Redis.TTL
	}

	if use("data", "seed_file") {
		out.Data.SeedFile = file.Data.SeedFile
	}
	if use("data", "memory_datasets") {
		out.Data.MemoryDatasets = file.Data.MemoryDatasets
	}
	if use("data", "max_sessions") {
		out.Data.MaxSessions = file.Data.MaxSessions
	}
	if use("data", "session_ttl") {
		out.Data.SessionTTL = file.Data.SessionTTL
	}
	if use("data", "seating_columns") {
		out.Data.SeatingColumns = file.Data.SeatingColumns
	}
	if use("data", "name_columns") {
		out.Data.NameColumns = file.Data.NameColumns
	}
	if use("data", "score_columns") {
		out.Data.ScoreColumns = file.Data.ScoreColumns
	}
	if use("data", "histogram_bins") {
		out.Data.HistogramBins = file.Data.HistogramBins
	}
	if use("data", "top_n") {
		out.Data.TopN = file.Data.TopN
	}

	if use("logging", "level") {
		out.Logging.Level = file.Logging.Level
	}
	if use("logging", "format") {
		out.Logging.Format = file.Logging.Format
	}
	return out
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
