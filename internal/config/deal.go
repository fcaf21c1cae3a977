package config

import (
	"fmt"
	"os"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/sector"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
	"github.com/iwvelando/cre-underwriter/pkg/validation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Deal is one underwriting file: the model inputs plus everything the
// commands and API evaluate around them.
type Deal struct {
	Name          string                 `json:"name" yaml:"name" mapstructure:"name"`
	Sector        string                 `json:"sector,omitempty" yaml:"sector,omitempty" mapstructure:"sector"`
	SectorProfile sector.Profile         `json:"sectorProfile,omitempty" yaml:"sectorProfile,omitempty" mapstructure:"sectorProfile"`
	Inputs        model.Inputs           `json:"inputs" yaml:"inputs" mapstructure:"inputs"`
	Waterfall     *waterfall.Structure   `json:"waterfall,omitempty" yaml:"waterfall,omitempty" mapstructure:"waterfall"`
	Scenarios     []sensitivity.Scenario `json:"scenarios,omitempty" yaml:"scenarios,omitempty" mapstructure:"scenarios"`
	Sensitivity   *sensitivity.Grid      `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty" mapstructure:"sensitivity"`
	Targets       []sensitivity.Target   `json:"targets,omitempty" yaml:"targets,omitempty" mapstructure:"targets"`
}

// LoadDeal reads a YAML deal file.
func LoadDeal(path string) (*Deal, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading deal file, %s", err)
	}

	var deal Deal
	if err := v.Unmarshal(&deal); err != nil {
		return nil, fmt.Errorf("unable to decode deal into struct, %s", err)
	}
	if err := deal.Normalize(); err != nil {
		return nil, fmt.Errorf("deal %s: %w", path, err)
	}
	return &deal, nil
}

// Normalize canonicalizes parameter names (viper folds map keys to lower
// case) and applies target defaults.
func (d *Deal) Normalize() error {
	if d.Sector != "" {
		s, err := sector.Parse(d.Sector)
		if err != nil {
			return err
		}
		d.Sector = string(s)
	}

	for i := range d.Scenarios {
		overrides, err := canonicalOverrides(d.Scenarios[i].Overrides)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", d.Scenarios[i].Name, err)
		}
		d.Scenarios[i].Overrides = overrides
	}

	if g := d.Sensitivity; g != nil {
		if g.RowParam != "" {
			g.RowParam = CanonicalField(g.RowParam)
		}
		if g.ColParam != "" {
			g.ColParam = CanonicalField(g.ColParam)
		}
		if g.Metric != "" {
			g.Metric = CanonicalMetric(string(g.Metric))
		}
	}

	for i := range d.Targets {
		NormalizeTarget(&d.Targets[i])
	}
	return nil
}

// SectorOverride returns the explicit sector, empty when the deal relies on
// classification.
func (d *Deal) SectorOverride() sector.Sector {
	return sector.Sector(d.Sector)
}

// ValidateDeal returns advisory warnings for the deal. Hard errors in the
// waterfall structure surface when the waterfall runs.
func (d *Deal) ValidateDeal() []string {
	var warnings []string
	if d.Name == "" {
		warnings = append(warnings, "deal has no name")
	}
	warnings = append(warnings, validation.CheckInputs(d.Inputs)...)

	active := 0
	for _, s := range d.Scenarios {
		if s.Active {
			active++
		}
	}
	if len(d.Scenarios) > 0 && active == 0 {
		warnings = append(warnings, "no scenarios are active")
	}

	if d.Waterfall != nil && d.Inputs.PurchasePrice != nil {
		equity := *d.Inputs.PurchasePrice
		if d.Inputs.LoanAmount != nil {
			equity -= *d.Inputs.LoanAmount
		}
		committed := d.Waterfall.LPEquity + d.Waterfall.GPEquity
		if equity > 0 && committed > 0 && !mathutil.WithinTolerance(committed, equity, equity*0.01) {
			warnings = append(warnings, fmt.Sprintf("waterfall equity of %.0f differs from deal equity of %.0f", committed, equity))
		}
	}
	return warnings
}

// WriteDeal writes the deal as YAML.
func WriteDeal(path string, d *Deal) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode deal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write deal: %w", err)
	}
	return nil
}
