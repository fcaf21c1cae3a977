package sector

import (
	"errors"
	"fmt"

	"github.com/iwvelando/cre-underwriter/internal/model"
)

// Source records how the sector was chosen.
type Source string

const (
	SourceOverride   Source = "override"
	SourceClassified Source = "classified"
	SourceDefault    Source = "default"
)

// Result is the sector metrics output.
type Result struct {
	Sector         Sector   `json:"sector"`
	Source         Source   `json:"source"`
	Metrics        Metrics  `json:"metrics"`
	Warnings       []string `json:"warnings"`
	RiskFactors    []string `json:"riskFactors"`
	PrimaryMetrics []string `json:"primaryMetrics"`
	MissingFields  []string `json:"missingFields,omitempty"`
}

// ErrNoCatalog is returned when no catalog is supplied.
var ErrNoCatalog = errors.New("sector catalog is required")

// Resolve picks the override when given, otherwise classifies the profile and
// falls back to Default.
func Resolve(p Profile, override Sector) (Sector, Source) {
	if override != "" {
		return override, SourceOverride
	}
	if s := Classify(p.PropertyType, p.AssetType); s != "" {
		return s, SourceClassified
	}
	return Default, SourceDefault
}

// CalculateSectorMetrics classifies the deal (unless override is set),
// computes its sector metrics and checks them against catalog benchmarks.
// Errors are limited to an unknown override or a catalog without the sector.
func CalculateSectorMetrics(in model.Inputs, p Profile, override Sector, catalog *Catalog) (Result, error) {
	if catalog == nil {
		return Result{}, ErrNoCatalog
	}
	if override != "" && !override.Valid() {
		return Result{}, fmt.Errorf("unknown sector %q", override)
	}

	s, source := Resolve(p, override)
	cfg, ok := catalog.Lookup(s)
	if !ok {
		return Result{}, fmt.Errorf("sector catalog has no entry for %s", s)
	}
	calc, ok := calculators[s]
	if !ok {
		return Result{}, fmt.Errorf("no metric calculator for %s", s)
	}

	res := Result{
		Sector:         s,
		Source:         source,
		Metrics:        calc(NewBase(in), p),
		Warnings:       []string{},
		RiskFactors:    append([]string{}, cfg.RiskFactors...),
		PrimaryMetrics: append([]string{}, cfg.PrimaryMetrics...),
	}
	if source == SourceDefault {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"property type %q could not be classified; using %s", p.PropertyType, s))
	}
	res.Warnings = append(res.Warnings, CheckBenchmarks(res.Metrics, cfg)...)

	for _, field := range cfg.RequiredFields {
		if !p.Has(field) && !inputPresent(in, field) {
			res.MissingFields = append(res.MissingFields, field)
		}
	}
	return res, nil
}

// CheckBenchmarks returns a warning for every metric outside its range.
func CheckBenchmarks(m Metrics, cfg Config) []string {
	var warnings []string
	for _, name := range sortedMetricNames(m) {
		b, ok := cfg.Benchmarks[name]
		if !ok {
			continue
		}
		v := m[name]
		switch {
		case b.Min != nil && v < *b.Min:
			warnings = append(warnings, fmt.Sprintf("%s of %.4g is below typical range (min %.4g)", name, v, *b.Min))
		case b.Max != nil && v > *b.Max:
			warnings = append(warnings, fmt.Sprintf("%s of %.4g is above typical range (max %.4g)", name, v, *b.Max))
		}
	}
	return warnings
}

func inputPresent(in model.Inputs, field string) bool {
	if !model.IsField(field) {
		return false
	}
	v, err := in.Get(field)
	return err == nil && v != nil
}
