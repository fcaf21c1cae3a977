// Package config defines the application configuration and deal files and
// includes functions for loading and normalizing them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/iwvelando/cre-underwriter/internal/projection"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/irr"
	"github.com/iwvelando/cre-underwriter/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds the application settings for cre-underwriter.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
	Server  ServerConfig  `yaml:"server,omitempty" mapstructure:"server"`
	Engine  EngineConfig  `yaml:"engine,omitempty" mapstructure:"engine"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	Address        string   `yaml:"address,omitempty" mapstructure:"address"`
	MaxBodySize    string   `yaml:"maxBodySize,omitempty" mapstructure:"maxBodySize"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" mapstructure:"allowedOrigins"`
}

// EngineConfig tunes calculator defaults.
type EngineConfig struct {
	DefaultHoldYears int     `yaml:"defaultHoldYears,omitempty" mapstructure:"defaultHoldYears"`
	SellingCostRate  float64 `yaml:"sellingCostRate,omitempty" mapstructure:"sellingCostRate"`
	IRRGuess         float64 `yaml:"irrGuess,omitempty" mapstructure:"irrGuess"`
	IRRTolerance     float64 `yaml:"irrTolerance,omitempty" mapstructure:"irrTolerance"`
	IRRMaxIterations int     `yaml:"irrMaxIterations,omitempty" mapstructure:"irrMaxIterations"`
	GridWorkers      int     `yaml:"gridWorkers,omitempty" mapstructure:"gridWorkers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("engine.defaultHoldYears", constants.DefaultHoldPeriodYears)
	v.SetDefault("engine.sellingCostRate", constants.DefaultSellingCostRate)
	v.SetDefault("engine.irrGuess", constants.DefaultIRRGuess)
	v.SetDefault("engine.irrTolerance", constants.DefaultIRRTolerance)
	v.SetDefault("engine.irrMaxIterations", constants.DefaultIRRMaxIterations)
	v.SetDefault("engine.gridWorkers", constants.DefaultGridWorkers)
}

// LoadConfiguration loads the YAML application configuration at configPath.
// Every key can be overridden from the environment with the CRE_ prefix
// (CRE_LOGGING_LEVEL, CRE_SERVER_ADDRESS). An empty path yields the defaults
// plus environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// LoadDotEnv loads environment variables from the given .env files. Missing
// files are skipped; variables already in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the enumerated settings.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("expected logging format of json or console, got %s", c.Logging.Format)
	}
	if c.Engine.SellingCostRate < 0 || c.Engine.SellingCostRate >= 1 {
		return fmt.Errorf("engine sellingCostRate must be within [0, 1), got %g", c.Engine.SellingCostRate)
	}
	if c.Engine.DefaultHoldYears < 0 || c.Engine.DefaultHoldYears > constants.MaxHoldPeriodYears {
		return fmt.Errorf("engine defaultHoldYears must be within [0, %d], got %d",
			constants.MaxHoldPeriodYears, c.Engine.DefaultHoldYears)
	}
	if c.Engine.GridWorkers < 0 {
		return fmt.Errorf("engine gridWorkers must not be negative, got %d", c.Engine.GridWorkers)
	}
	return nil
}

// IRROptions returns the solver settings, falling back to the engine defaults.
func (e EngineConfig) IRROptions() irr.Options {
	opts := irr.DefaultOptions()
	if e.IRRGuess != 0 {
		opts.Guess = e.IRRGuess
	}
	if e.IRRTolerance > 0 {
		opts.Tolerance = e.IRRTolerance
	}
	if e.IRRMaxIterations > 0 {
		opts.MaxIterations = e.IRRMaxIterations
	}
	return opts
}

// ProjectionOptions returns the projector settings.
func (e EngineConfig) ProjectionOptions() projection.Options {
	opts := projection.DefaultOptions()
	if e.DefaultHoldYears > 0 {
		opts.DefaultHoldYears = e.DefaultHoldYears
	}
	if e.SellingCostRate > 0 {
		rate := e.SellingCostRate
		opts.DefaultSellingCostRate = &rate
	}
	opts.IRR = e.IRROptions()
	return opts
}

// SensitivityConfig returns runner settings, optionally with a waterfall.
func (e EngineConfig) SensitivityConfig(structure *waterfall.Structure) sensitivity.Config {
	return sensitivity.Config{
		Workers:    e.GridWorkers,
		Projection: e.ProjectionOptions(),
		Waterfall:  structure,
	}
}
