// Package config loads fstore's configuration from a YAML file, environment
// variables, and built-in defaults, narrowed from the teacher's
// pkg/config.Load/Validate pipeline down to the sections an object store
// server needs: logging, the Postgres metadata store, the filesystem home,
// the optional archive destination, the listen endpoint, the HTTP API, and
// Prometheus metrics.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/fstore/internal/bytesize"
	"github.com/marmos91/fstore/internal/telemetry"
	"github.com/marmos91/fstore/pkg/api"
	"github.com/marmos91/fstore/pkg/listen"
	"github.com/marmos91/fstore/pkg/metadata/postgres"
	"github.com/marmos91/fstore/pkg/objectstore/archive"
)

// Config is fstore's complete runtime configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Home is the filesystem root holding the objects/ and parts/ trees
	// (C6's Filesystem root, spec.md §4.6).
	Home string `mapstructure:"home" validate:"required" yaml:"home"`

	Database postgres.Config `mapstructure:"database" yaml:"database"`

	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`

	Listen ListenConfig `mapstructure:"listen" yaml:"listen"`

	API api.APIConfig `mapstructure:"api" yaml:"api"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`

	// ShutdownTimeout is defaulted but not read by the server; api.Server
	// bounds its graceful shutdown at a fixed 5s.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ArchiveConfig configures the archive() background task (spec.md §4.9).
type ArchiveConfig struct {
	// Dir is the destination root objects are copied into when S3 is not
	// set. Empty (with S3 also unset) disables the archive subcommand and
	// HTTP endpoint. Always used as the staging directory for the database
	// dump file, regardless of which backend serves the copy step.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// DumpTool is the path to the external database-dump binary invoked as
	// an opaque subprocess before the copy phase. Empty skips the dump step.
	DumpTool string `mapstructure:"dump_tool" yaml:"dump_tool"`

	// S3 routes the copy phase to an S3-compatible bucket instead of Dir.
	S3 *ArchiveS3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// ArchiveS3Config configures an S3-compatible archive destination (AWS S3,
// MinIO, and similar).
type ArchiveS3Config struct {
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region          string `mapstructure:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" validate:"required" yaml:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

func (c *ArchiveS3Config) toBackendConfig() archive.S3Config {
	return archive.S3Config{
		Endpoint:        c.Endpoint,
		Region:          c.Region,
		Bucket:          c.Bucket,
		KeyPrefix:       c.KeyPrefix,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		ForcePathStyle:  c.ForcePathStyle,
	}
}

// ArchiveS3Config returns the archive.S3Config derived from this section, or
// nil if S3 archiving is not configured.
func (c *Config) ArchiveS3Config() *archive.S3Config {
	if c.Archive.S3 == nil {
		return nil
	}
	cfg := c.Archive.S3.toBackendConfig()
	return &cfg
}

// ListenConfig describes the API server's bind endpoint: a bare TCP address,
// or a Unix domain socket with an optional mode/owner/group, per spec.md §6.
type ListenConfig struct {
	// Address is either "host:port", or, when Unix is true, a filesystem
	// path for the socket.
	Address string `mapstructure:"address" validate:"required" yaml:"address"`
	Unix    bool   `mapstructure:"unix" yaml:"unix"`

	// Mode is the octal permission bits applied to the socket file after
	// bind, e.g. 0o660. Ignored when Unix is false.
	Mode bytesize.ByteSize `mapstructure:"mode" yaml:"mode,omitempty"`
	// Owner/Group are a username/group name or numeric id; empty leaves
	// ownership unchanged. Ignored when Unix is false.
	Owner string `mapstructure:"owner" yaml:"owner,omitempty"`
	Group string `mapstructure:"group" yaml:"group,omitempty"`
}

// toListenConfig adapts the on-disk shape to pkg/listen.Config.
func (c ListenConfig) toListenConfig() listen.Config {
	return listen.Config{
		Address: c.Address,
		Unix:    c.Unix,
		Mode:    os.FileMode(c.Mode.Uint64()),
		Owner:   c.Owner,
		Group:   c.Group,
	}
}

// ListenConfig returns the pkg/listen.Config derived from this section.
func (c *Config) ListenConfig() listen.Config {
	return c.Listen.toListenConfig()
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// TracingConfig configures OpenTelemetry span export over OTLP/gRPC.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,min=0,max=1" yaml:"sample_rate"`
}

// toTelemetryConfig adapts the on-disk shape to internal/telemetry.Config.
func (c TracingConfig) toTelemetryConfig(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Enabled,
		ServiceName:    "fstore",
		ServiceVersion: serviceVersion,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}

// TelemetryConfig returns the internal/telemetry.Config derived from this
// section, tagging spans with serviceVersion (typically the build version).
func (c *Config) TelemetryConfig(serviceVersion string) telemetry.Config {
	return c.Tracing.toTelemetryConfig(serviceVersion)
}

// ProfilingConfig configures Grafana Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

func (c ProfilingConfig) toProfilingConfig(serviceVersion string) telemetry.ProfilingConfig {
	return telemetry.ProfilingConfig{
		Enabled:        c.Enabled,
		ServiceName:    "fstore",
		ServiceVersion: serviceVersion,
		Endpoint:       c.Endpoint,
		ProfileTypes:   c.ProfileTypes,
	}
}

// ProfilingConfig returns the internal/telemetry.ProfilingConfig derived from
// this section.
func (c *Config) ProfilingConfig(serviceVersion string) telemetry.ProfilingConfig {
	return c.Profiling.toProfilingConfig(serviceVersion)
}

// Load loads configuration from file, environment, and defaults.
//
// Precedence, highest to lowest: environment variables (FSTORE_*),
// configuration file, built-in defaults. An environment variable only
// overrides a key the configuration file sets; when no file is found the
// built-in defaults are used and the environment is not read.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error when the
// config file is missing instead of silently falling back to defaults.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  fstore init\n\n"+
				"Or specify a custom config file:\n"+
				"  fstore <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  fstore init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// InitConfigToPath writes a sample configuration at path. It refuses to
// overwrite an existing file unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}
	return SaveConfig(GetDefaultConfig(), path)
}

// InitConfig writes a sample configuration at the default location.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate runs struct-tag validation plus the cross-field checks that
// validator tags can't express (e.g. the Postgres pool invariant).
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	return cfg.Database.Validate()
}

// setupViper wires environment variable support (FSTORE_ prefix, "_" joins
// nested keys) and config file discovery.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("FSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the ByteSize and time.Duration decode hooks so
// config files can write "1Gi"/"660" and "30s" instead of raw integers.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/fstore, or ~/.config/fstore, or "."
// if the home directory can't be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fstore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "fstore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir exposes the configuration directory path for the CLI.
func GetConfigDir() string {
	return getConfigDir()
}
