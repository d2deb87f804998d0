// Package config provides YAML/environment configuration for flowlens.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/flowlens/pkg/dataset"
	"github.com/Sumatoshi-tech/flowlens/pkg/filter"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidYearRange   = errors.New("flow year_start is after year_end")
	ErrNoTimestampColumn  = errors.New("dataset timestamp_column is required")
	ErrInvalidMaxSize     = errors.New("invalid dataset max_size")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidClockColumn = errors.New("dataset clock_column must be a categorical column")
	ErrInvalidMaxPoints   = errors.New("map max_points must not be negative")
)

// Config holds all configuration for flowlens.
type Config struct {
	Dataset       DatasetConfig       `mapstructure:"dataset"       yaml:"dataset"`
	Flow          FlowConfig          `mapstructure:"flow"          yaml:"flow"`
	Histogram     HistogramConfig     `mapstructure:"histogram"     yaml:"histogram"`
	Map           MapConfig           `mapstructure:"map"           yaml:"map"`
	Server        ServerConfig        `mapstructure:"server"        yaml:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"       yaml:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// DatasetConfig describes the record export and its schema.
type DatasetConfig struct {
	Path             string   `mapstructure:"path"              yaml:"path"`
	MaxSize          string   `mapstructure:"max_size"          yaml:"max_size"`
	TimestampColumn  string   `mapstructure:"timestamp_column"  yaml:"timestamp_column"`
	TimestampLayouts []string `mapstructure:"timestamp_layouts" yaml:"timestamp_layouts"`
	RegionColumn     string   `mapstructure:"region_column"     yaml:"region_column"`
	ClockColumn      string   `mapstructure:"clock_column"      yaml:"clock_column"`
	Categorical      []string `mapstructure:"categorical"       yaml:"categorical"`
	Numeric          []string `mapstructure:"numeric"           yaml:"numeric"`
	Normalize        bool     `mapstructure:"normalize"         yaml:"normalize"`
}

// FlowConfig holds default flow graph query parameters.
// Zero years mean "use the dataset's own bounds".
type FlowConfig struct {
	Columns   []string `mapstructure:"columns"    yaml:"columns"`
	Regions   []string `mapstructure:"regions"    yaml:"regions"`
	YearStart int      `mapstructure:"year_start" yaml:"year_start"`
	YearEnd   int      `mapstructure:"year_end"   yaml:"year_end"`
}

// HistogramConfig holds default histogram columns.
type HistogramConfig struct {
	Columns []string `mapstructure:"columns" yaml:"columns"`
}

// MapConfig names the coordinate columns of the region map.
// MaxPoints caps the points returned per query; zero means no cap.
type MapConfig struct {
	Latitude  string `mapstructure:"latitude"   yaml:"latitude"`
	Longitude string `mapstructure:"longitude"  yaml:"longitude"`
	Label     string `mapstructure:"label"      yaml:"label"`
	MaxPoints int    `mapstructure:"max_points" yaml:"max_points"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"          yaml:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"  yaml:"idle_timeout"`
	Port         int           `mapstructure:"port"          yaml:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"  yaml:"otlp_headers"`
	Environment  string `mapstructure:"environment"   yaml:"environment"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`
	// Prometheus exposes /metrics in serve mode.
	Prometheus bool `mapstructure:"prometheus" yaml:"prometheus"`
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// FLOWLENS_* environment variables, in increasing precedence. When
// configPath is empty, flowlens.yaml is searched in ., ./config and
// /etc/flowlens; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/flowlens")
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Dataset.TimestampColumn == "" {
		return ErrNoTimestampColumn
	}

	if c.Dataset.ClockColumn != "" && c.Schema().KindOf(c.Dataset.ClockColumn) != record.KindCategorical {
		return fmt.Errorf("%w: %q", ErrInvalidClockColumn, c.Dataset.ClockColumn)
	}

	if c.Flow.YearStart != 0 && c.Flow.YearEnd != 0 && c.Flow.YearStart > c.Flow.YearEnd {
		return fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, c.Flow.YearStart, c.Flow.YearEnd)
	}

	if c.Map.MaxPoints < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxPoints, c.Map.MaxPoints)
	}

	_, err := c.MaxBytes()
	if err != nil {
		return err
	}

	_, err = c.LogLevel()

	return err
}

// Schema returns the record schema described by the dataset section.
func (c *Config) Schema() record.Schema {
	return record.Schema{
		TimestampColumn: c.Dataset.TimestampColumn,
		RegionColumn:    c.Dataset.RegionColumn,
		Categorical:     c.Dataset.Categorical,
		Numeric:         c.Dataset.Numeric,
	}
}

// MapColumns returns the region map columns.
func (c *Config) MapColumns() regionmap.Columns {
	return regionmap.Columns{
		Latitude:  c.Map.Latitude,
		Longitude: c.Map.Longitude,
		Label:     c.Map.Label,
	}
}

// MaxBytes parses dataset.max_size ("512MB", "1GiB"). Empty means unlimited.
func (c *Config) MaxBytes() (int64, error) {
	if strings.TrimSpace(c.Dataset.MaxSize) == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(c.Dataset.MaxSize)
	if err != nil || n > uint64(maxInt64) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxSize, c.Dataset.MaxSize)
	}

	return int64(n), nil
}

// DatasetOptions returns loader options for the dataset section.
func (c *Config) DatasetOptions() (dataset.Options, error) {
	maxBytes, err := c.MaxBytes()
	if err != nil {
		return dataset.Options{}, err
	}

	return dataset.Options{
		Layouts:     c.Dataset.TimestampLayouts,
		Normalize:   c.Dataset.Normalize,
		ClockColumn: c.Dataset.ClockColumn,
		MaxBytes:    maxBytes,
	}, nil
}

// Criteria returns the default flow filter, filling zero years from the
// given dataset bounds.
func (c *Config) Criteria(firstYear, lastYear int) filter.Criteria {
	crit := filter.Criteria{
		YearStart: c.Flow.YearStart,
		YearEnd:   c.Flow.YearEnd,
		Regions:   c.Flow.Regions,
	}

	if crit.YearStart == 0 {
		crit.YearStart = firstYear
	}

	if crit.YearEnd == 0 {
		crit.YearEnd = lastYear
	}

	return crit
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// WriteYAML writes the effective configuration as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return enc.Close()
}

// Telemetry returns the observability settings for the given launch mode.
// Prometheus is only attached in serve mode, where /metrics is reachable.
func (c *Config) Telemetry(mode observability.AppMode, version string) (observability.Config, error) {
	level, err := c.LogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Environment = c.Observability.Environment
	cfg.Mode = mode
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.Prometheus = c.Observability.Prometheus && mode == observability.ModeServe
	cfg.LogLevel = level
	cfg.LogJSON = c.Logging.Format == logFormatJSON

	return cfg, nil
}
