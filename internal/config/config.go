// Package config loads service settings from YAML and EWASTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Classifier backends.
const (
	BackendONNX = "onnx"
	BackendGRPC = "grpc"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EWASTE"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	ResultTTL time.Duration `mapstructure:"result_ttl"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Audience  string `mapstructure:"audience"`
	AdminRole string `mapstructure:"admin_role"`
}

// ClassifierConfig selects and tunes the image classifier.
type ClassifierConfig struct {
	Backend           string `mapstructure:"backend"`
	ModelPath         string `mapstructure:"model_path"`
	LabelsPath        string `mapstructure:"labels_path"`
	SharedLibraryPath string `mapstructure:"shared_library_path"`
	InputName         string `mapstructure:"input_name"`
	OutputName        string `mapstructure:"output_name"`
	InputWidth        int    `mapstructure:"input_width"`
	InputHeight       int    `mapstructure:"input_height"`
	Addr              string `mapstructure:"addr"`
	MaxConcurrent     int    `mapstructure:"max_concurrent"`
	ServeAddr         string `mapstructure:"serve_addr"`
}

// Load reads configPath when it exists, applies defaults, and lets
// EWASTE_SECTION_KEY environment variables override any key.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the selected backend depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	switch c.Classifier.Backend {
	case BackendONNX:
		if c.Classifier.ModelPath == "" {
			errs = append(errs, errors.New("classifier.model_path is required for the onnx backend"))
		}
		if c.Classifier.LabelsPath == "" {
			errs = append(errs, errors.New("classifier.labels_path is required for the onnx backend"))
		}
		if c.Classifier.InputWidth <= 0 || c.Classifier.InputHeight <= 0 {
			errs = append(errs, errors.New("classifier input size must be positive"))
		}
	case BackendGRPC:
		if c.Classifier.Addr == "" {
			errs = append(errs, errors.New("classifier.addr is required for the grpc backend"))
		}
		if c.Classifier.ServeAddr != "" {
			errs = append(errs, errors.New("classifier.serve_addr requires the onnx backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown classifier backend %q", c.Classifier.Backend))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("database.dsn", "host=postgres user=postgres password=postgres dbname=ewaste port=5432 sslmode=disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.result_ttl", 24*time.Hour)

	v.SetDefault("auth.jwt_secret", "dev-secret")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.admin_role", "admin")

	v.SetDefault("classifier.backend", BackendONNX)
	v.SetDefault("classifier.model_path", "models/ewaste.onnx")
	v.SetDefault("classifier.labels_path", "models/labels.txt")
	v.SetDefault("classifier.shared_library_path", "")
	v.SetDefault("classifier.input_name", "input")
	v.SetDefault("classifier.output_name", "output")
	v.SetDefault("classifier.input_width", 224)
	v.SetDefault("classifier.input_height", 224)
	v.SetDefault("classifier.addr", "classifier:50051")
	v.SetDefault("classifier.max_concurrent", 2)
	v.SetDefault("classifier.serve_addr", "")
}
