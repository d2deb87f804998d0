package config

import (
	"math"

	"github.com/spf13/viper"
)

const (
	configName       = "flowlens"
	configType       = "yaml"
	envPrefix        = "FLOWLENS"
	envKeySeparator  = "_"
	maxPort          = 65535
	maxInt64         = math.MaxInt64
	yamlIndent       = 2
	defaultPort      = 8080
	defaultMaxPoints = 5000
	defaultHost      = "127.0.0.1"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	logFormatJSON    = "json"
)

// Dataset defaults describe the NYC motor vehicle collisions export.
var (
	DefaultTimestampColumn = "crash_date"
	DefaultRegionColumn    = "borough"
	DefaultClockColumn     = "crash_time"
	DefaultCategorical     = []string{
		"crash_time",
		"on_street_name",
		"contributing_factor_vehicle_1",
		"vehicle_type_code1",
	}
	DefaultNumeric = []string{
		"number_of_persons_injured",
		"number_of_persons_killed",
		"latitude",
		"longitude",
	}
	DefaultFlowColumns      = []string{"contributing_factor_vehicle_1", "vehicle_type_code1"}
	DefaultHistogramColumns = []string{"number_of_persons_injured", "number_of_persons_killed"}
)

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("dataset.path", "")
	viperCfg.SetDefault("dataset.max_size", "1GB")
	viperCfg.SetDefault("dataset.timestamp_column", DefaultTimestampColumn)
	viperCfg.SetDefault("dataset.timestamp_layouts", []string{})
	viperCfg.SetDefault("dataset.region_column", DefaultRegionColumn)
	viperCfg.SetDefault("dataset.clock_column", DefaultClockColumn)
	viperCfg.SetDefault("dataset.categorical", DefaultCategorical)
	viperCfg.SetDefault("dataset.numeric", DefaultNumeric)
	viperCfg.SetDefault("dataset.normalize", true)

	viperCfg.SetDefault("flow.columns", DefaultFlowColumns)
	viperCfg.SetDefault("flow.regions", []string{})
	viperCfg.SetDefault("flow.year_start", 0)
	viperCfg.SetDefault("flow.year_end", 0)

	viperCfg.SetDefault("histogram.columns", DefaultHistogramColumns)

	viperCfg.SetDefault("map.latitude", "latitude")
	viperCfg.SetDefault("map.longitude", "longitude")
	viperCfg.SetDefault("map.label", "on_street_name")
	viperCfg.SetDefault("map.max_points", defaultMaxPoints)

	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "60s")

	viperCfg.SetDefault("logging.level", defaultLogLevel)
	viperCfg.SetDefault("logging.format", defaultLogFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.prometheus", true)
}
