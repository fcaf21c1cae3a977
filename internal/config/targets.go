package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
)

const (
	defaultTargetMetric = sensitivity.MetricIRR
	defaultTargetEngine = sensitivity.EngineProjection
)

// CanonicalField returns the model field matching value regardless of case,
// underscores or hyphens. Unknown names are returned trimmed.
func CanonicalField(value string) string {
	trimmed := strings.TrimSpace(value)
	folded := fold(trimmed)
	for _, name := range model.FieldNames() {
		if fold(name) == folded {
			return name
		}
	}
	return trimmed
}

// CanonicalMetric returns the sensitivity metric matching value regardless of case.
func CanonicalMetric(value string) sensitivity.Metric {
	trimmed := strings.TrimSpace(value)
	folded := fold(trimmed)
	for _, m := range sensitivity.Metrics() {
		if fold(string(m)) == folded {
			return m
		}
	}
	return sensitivity.Metric(trimmed)
}

func fold(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
}

func canonicalOverrides(overrides map[string]float64) (map[string]float64, error) {
	if len(overrides) == 0 {
		return overrides, nil
	}
	out := make(map[string]float64, len(overrides))
	for name, v := range overrides {
		canonical := CanonicalField(name)
		if !model.IsField(canonical) {
			return nil, fmt.Errorf("override field %q is not supported", name)
		}
		if _, dup := out[canonical]; dup {
			return nil, fmt.Errorf("override field %q is given more than once", canonical)
		}
		out[canonical] = v
	}
	return out, nil
}

// NormalizeTarget ensures defaults and canonical values are applied before validation.
func NormalizeTarget(t *sensitivity.Target) {
	if t == nil {
		return
	}
	t.Param = CanonicalField(t.Param)
	if strings.TrimSpace(string(t.Metric)) == "" {
		t.Metric = defaultTargetMetric
	} else {
		t.Metric = CanonicalMetric(string(t.Metric))
	}
	t.Engine = sensitivity.Engine(strings.ToLower(strings.TrimSpace(string(t.Engine))))
	if t.Engine == "" {
		t.Engine = defaultTargetEngine
	}
	if strings.TrimSpace(t.Name) == "" {
		t.Name = fmt.Sprintf("%s for %s %g", t.Param, t.Metric, t.Value)
	}
}
