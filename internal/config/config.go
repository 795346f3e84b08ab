// Package config loads service settings from an optional YAML file and
// INTEGRAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gointegral/steps"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Steps      StepsConfig      `yaml:"steps"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Plot       PlotConfig       `yaml:"plot"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"min=1"`
	RateLimit       float64       `yaml:"rate_limit" validate:"min=0"`
	RateBurst       int           `yaml:"rate_burst" validate:"min=1"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
}

type StepsConfig struct {
	Language string `yaml:"language" validate:"language"`
}

type PreprocessConfig struct {
	ReplaceLn bool `yaml:"replace_ln"`
}

type PlotConfig struct {
	Points                int  `yaml:"points" validate:"min=2,max=100000"`
	AreaPoints            int  `yaml:"area_points" validate:"min=2,max=100000"`
	IncludeAntiderivative bool `yaml:"include_antiderivative"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// TracingConfig selects where spans are exported. "none" leaves the global
// no-op provider in place.
type TracingConfig struct {
	Exporter     string  `yaml:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" validate:"required_if=Exporter otlp"`
	OTLPInsecure bool    `yaml:"otlp_insecure"`
	SampleRatio  float64 `yaml:"sample_ratio" validate:"min=0,max=1"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodyBytes:    1 << 20,
			RateLimit:       50,
			RateBurst:       100,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Steps:      StepsConfig{Language: "en"},
		Preprocess: PreprocessConfig{ReplaceLn: true},
		Plot:       PlotConfig{Points: 400, AreaPoints: 150, IncludeAntiderivative: true},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
		Tracing: TracingConfig{
			Exporter:     "none",
			OTLPEndpoint: "localhost:4317",
			OTLPInsecure: true,
			SampleRatio:  1,
		},
	}
}

// Load reads path on top of Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return steps.Supported(steps.Language(fl.Field().String()))
	})
	return v
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("INTEGRAL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INTEGRAL_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("INTEGRAL_LANGUAGE"); ok {
		cfg.Steps.Language = v
	}
	if v, ok := lookup("INTEGRAL_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("INTEGRAL_LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := lookup("OTEL_TRACES_EXPORTER"); ok {
		cfg.Tracing.Exporter = v
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		cfg.Tracing.OTLPEndpoint = v
	}
	for key, dst := range map[string]*bool{
		"INTEGRAL_REPLACE_LN":              &cfg.Preprocess.ReplaceLn,
		"INTEGRAL_INCLUDE_ANTIDERIVATIVE": &cfg.Plot.IncludeAntiderivative,
	} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	return nil
}
