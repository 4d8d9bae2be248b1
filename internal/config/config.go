package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Precedence: defaults,
// then the optional YAML file, then CLAIMS_* environment variables.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	KPI     KPIConfig     `yaml:"kpi" envconfig:"KPI"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"min=1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// KPIConfig carries the reporting policy constants injected into the
// classification engine. These are configuration, not code: policy changes
// must not require recompiling the pipeline.
type KPIConfig struct {
	ExcludedProvider    string  `yaml:"excluded_provider" envconfig:"EXCLUDED_PROVIDER"`
	DOSCutoff           string  `yaml:"dos_cutoff" envconfig:"DOS_CUTOFF" validate:"datetime=2006-01-02"`
	MinorClaimThreshold int     `yaml:"minor_claim_threshold" envconfig:"MINOR_CLAIM_THRESHOLD" validate:"min=0"`
	MinorAmountQuantile float64 `yaml:"minor_amount_quantile" envconfig:"MINOR_AMOUNT_QUANTILE" validate:"gte=0,lte=1"`
	AgingBoundaries     []int   `yaml:"aging_boundaries" envconfig:"AGING_BOUNDARIES" validate:"len=4"`
}

// ExportConfig contains output locations for the CLI exporter.
type ExportConfig struct {
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	WorkbookName string `yaml:"workbook_name" envconfig:"WORKBOOK_NAME"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  32 << 20,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		KPI: KPIConfig{
			ExcludedProvider:    "salah, ahmad",
			DOSCutoff:           "2024-11-01",
			MinorClaimThreshold: 10,
			MinorAmountQuantile: 0.10,
			AgingBoundaries:     []int{30, 60, 90, 120},
		},
		Export: ExportConfig{
			OutputDir:    "reports",
			WorkbookName: "weekly_kpis.xlsx",
		},
	}
}

// DOSCutoffDate parses the configured cutoff into a time. Load validates the
// format, so parse failures cannot occur after a successful Load.
func (c KPIConfig) DOSCutoffDate() time.Time {
	t, _ := time.Parse("2006-01-02", c.DOSCutoff)
	return t
}

// Load builds the configuration from defaults, the optional YAML file at
// path (ignored when blank or absent), and CLAIMS_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := envconfig.Process("CLAIMS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	// Boundaries must be strictly increasing for the half-open aging
	// ranges to stay well defined.
	for i := 1; i < len(c.KPI.AgingBoundaries); i++ {
		if c.KPI.AgingBoundaries[i] <= c.KPI.AgingBoundaries[i-1] {
			return fmt.Errorf("aging boundaries must be strictly increasing, got %v", c.KPI.AgingBoundaries)
		}
	}
	return nil
}
