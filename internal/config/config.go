package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "mortgagepulse/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. MPULSE_LOGGING_LEVEL.
const EnvPrefix = "MPULSE"

// ConfigFileEnv names the variable that points at an explicit YAML file.
const ConfigFileEnv = "MPULSE_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Ingestion   IngestionConfig   `yaml:"ingestion" envconfig:"INGESTION"`
	Aggregation AggregationConfig `yaml:"aggregation" envconfig:"AGGREGATION"`
	CrossTab    CrossTabConfig    `yaml:"cross_tab" envconfig:"CROSS_TAB"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// IngestionConfig controls how source rows become records.
type IngestionConfig struct {
	Deduplicate        bool `yaml:"deduplicate" envconfig:"DEDUPLICATE"`
	OptionsSampleLimit int  `yaml:"options_sample_limit" envconfig:"OPTIONS_SAMPLE_LIMIT" validate:"gte=0"`
	MaxConcurrentFiles int  `yaml:"max_concurrent_files" envconfig:"MAX_CONCURRENT_FILES" validate:"gte=1"`
}

// AggregationConfig controls the band by month and weighted average passes.
type AggregationConfig struct {
	SampleSize      int      `yaml:"sample_size" envconfig:"SAMPLE_SIZE" validate:"gte=0"`
	IncludeMonthly  bool     `yaml:"include_monthly" envconfig:"INCLUDE_MONTHLY"`
	WeightedMetrics []string `yaml:"weighted_metrics" envconfig:"WEIGHTED_METRICS" validate:"dive,oneof=ltv term initial_rate swap_rate gross_margin flat_fees percentage_fees"`
}

// CrossTabConfig controls the lender market-share cross-tab.
type CrossTabConfig struct {
	UnknownLTVPolicy string `yaml:"unknown_ltv_policy" envconfig:"UNKNOWN_LTV_POLICY" validate:"oneof=bucket_over_80 exclude"`
	SortKey          string `yaml:"sort_key" envconfig:"SORT_KEY" validate:"oneof=total_desc name"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// TelemetryConfig selects the metric and trace exporters.
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	MetricsExporter string `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER" validate:"oneof=prometheus none"`
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	// MetricsFile receives a Prometheus text dump at the end of a run. Empty disables it.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFile(configFilePath())
}

// LoadFile is Load with an explicit YAML file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	// Unset variables leave the file and default values untouched.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile unmarshals a YAML file over c. Keys absent from the file keep their current value.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.NewConfigError("failed to parse config file", err).WithContext("path", path)
	}
	return nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))
	for i, m := range c.Aggregation.WeightedMetrics {
		c.Aggregation.WeightedMetrics[i] = strings.ToLower(strings.TrimSpace(m))
	}
}

var validate = validator.New()

// Validate checks every section against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		msg := "config validation failed"
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			msg = fmt.Sprintf("%s: %s", msg, strings.Join(fields, ", "))
		}
		return apperrors.NewConfigError(msg, err)
	}
	return nil
}

// configFilePath returns MPULSE_CONFIG_FILE or the first config file found in
// the usual locations, or "" when there is none.
func configFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/mortgage-report.log",
		},
		Ingestion: IngestionConfig{
			Deduplicate:        false,
			OptionsSampleLimit: DefaultOptionsSampleLimit,
			MaxConcurrentFiles: DefaultMaxConcurrentFiles,
		},
		Aggregation: AggregationConfig{
			SampleSize:      0,
			IncludeMonthly:  true,
			WeightedMetrics: []string{"ltv", "initial_rate", "gross_margin"},
		},
		CrossTab: CrossTabConfig{
			UnknownLTVPolicy: "bucket_over_80",
			SortKey:          "total_desc",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
		Telemetry: TelemetryConfig{
			ServiceName:     AppName,
			MetricsExporter: "prometheus",
			TraceExporter:   "none",
		},
	}
}
