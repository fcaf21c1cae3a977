package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, constants.OutputFormatPretty, cfg.Output.Format)
	assert.Equal(t, constants.DefaultServerAddress, cfg.Server.Address)
	assert.Equal(t, constants.DefaultHoldPeriodYears, cfg.Engine.DefaultHoldYears)
	assert.Equal(t, constants.DefaultGridWorkers, cfg.Engine.GridWorkers)
}

func TestLoadConfigurationFile(t *testing.T) {
	path := writeFile(t, "cre-underwriter.yaml", `
logging:
  level: debug
  format: json
output:
  format: csv
server:
  address: ":9090"
  maxBodySize: 1M
  allowedOrigins:
    - https://app.example.com
engine:
  defaultHoldYears: 7
  sellingCostRate: 0.03
  irrTolerance: 0.000001
  gridWorkers: 8
`)
	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, constants.OutputFormatCSV, cfg.Output.Format)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "1M", cfg.Server.MaxBodySize)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)

	opts := cfg.Engine.ProjectionOptions()
	assert.Equal(t, 7, opts.DefaultHoldYears)
	require.NotNil(t, opts.DefaultSellingCostRate)
	assert.Equal(t, 0.03, *opts.DefaultSellingCostRate)
	assert.Equal(t, 1e-6, opts.IRR.Tolerance)
	assert.Equal(t, constants.DefaultIRRMaxIterations, opts.IRR.MaxIterations)

	sc := cfg.Engine.SensitivityConfig(nil)
	assert.Equal(t, 8, sc.Workers)
	assert.Nil(t, sc.Waterfall)
}

func TestLoadConfigurationEnvironmentOverride(t *testing.T) {
	t.Setenv("CRE_LOGGING_LEVEL", "warn")
	t.Setenv("CRE_OUTPUT_FORMAT", "json")

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, constants.OutputFormatJSON, cfg.Output.Format)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := LoadConfiguration("nonexistent.yaml")
	assert.Error(t, err)

	path := writeFile(t, "bad.yaml", "output:\n  format: xml\n")
	_, err = LoadConfiguration(path)
	assert.ErrorContains(t, err, "expected output format")

	path = writeFile(t, "bad-logging.yaml", "logging:\n  format: logfmt\n")
	_, err = LoadConfiguration(path)
	assert.ErrorContains(t, err, "logging format")

	path = writeFile(t, "bad-engine.yaml", "engine:\n  sellingCostRate: 1.5\n")
	_, err = LoadConfiguration(path)
	assert.ErrorContains(t, err, "sellingCostRate")

	path = writeFile(t, "long-hold.yaml", "engine:\n  defaultHoldYears: 500\n")
	_, err = LoadConfiguration(path)
	assert.ErrorContains(t, err, "defaultHoldYears")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CRE_SERVER_ADDRESS=:7070\n")
	t.Setenv("CRE_SERVER_ADDRESS", "")
	require.NoError(t, os.Unsetenv("CRE_SERVER_ADDRESS"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, ":7070", os.Getenv("CRE_SERVER_ADDRESS"))

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
}

func TestCanonicalField(t *testing.T) {
	tests := map[string]string{
		"exitcaprate":       "exitCapRate",
		"EXIT_CAP_RATE":     "exitCapRate",
		" hold-period-years": "holdPeriodYears",
		"purchasePrice":     "purchasePrice",
		"bogus":             "bogus",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalField(in), in)
	}
	assert.Equal(t, sensitivity.MetricLPIRR, CanonicalMetric("lpirr"))
	assert.Equal(t, sensitivity.MetricEquityMultiple, CanonicalMetric("equity_multiple"))
}

func TestNormalizeTarget(t *testing.T) {
	target := sensitivity.Target{Param: "purchase_price", Value: 0.15, Min: 1, Max: 2}
	NormalizeTarget(&target)
	assert.Equal(t, "purchasePrice", target.Param)
	assert.Equal(t, sensitivity.MetricIRR, target.Metric)
	assert.Equal(t, sensitivity.EngineProjection, target.Engine)
	assert.Equal(t, "purchasePrice for irr 0.15", target.Name)

	target = sensitivity.Target{Name: "Bid", Param: "loanAmount", Metric: "DSCR", Engine: " Underwriting "}
	NormalizeTarget(&target)
	assert.Equal(t, "Bid", target.Name)
	assert.Equal(t, sensitivity.MetricDSCR, target.Metric)
	assert.Equal(t, sensitivity.EngineUnderwriting, target.Engine)

	NormalizeTarget(nil)
}
