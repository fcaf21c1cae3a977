package sensitivity

import (
	"context"
	"fmt"
	"math"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
	"github.com/iwvelando/cre-underwriter/pkg/optimization"
	"go.uber.org/zap"
)

// Target asks for the value of Param within [Min, Max] at which Metric
// reaches Value.
type Target struct {
	Name          string  `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Param         string  `json:"param" yaml:"param" mapstructure:"param"`
	Metric        Metric  `json:"metric" yaml:"metric" mapstructure:"metric"`
	Value         float64 `json:"value" yaml:"value" mapstructure:"value"`
	Min           float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max           float64 `json:"max" yaml:"max" mapstructure:"max"`
	Tolerance     float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int     `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
	Engine        Engine  `json:"engine,omitempty" yaml:"engine,omitempty" mapstructure:"engine"`
}

// Validate checks the target definition.
func (t Target) Validate() error {
	if err := checkParam(t.Param); err != nil {
		return err
	}
	if math.IsNaN(t.Min) || math.IsNaN(t.Max) || math.IsInf(t.Min, 0) || math.IsInf(t.Max, 0) {
		return invalidRequest("bounds must be finite")
	}
	if t.Min >= t.Max {
		return invalidRequest("min must be below max")
	}
	if t.Tolerance < 0 || t.MaxIterations < 0 {
		return invalidRequest("tolerance and maxIterations must not be negative")
	}
	return nil
}

type probe struct {
	value float64
	gap   *float64
}

func (r *Runner) probe(base model.Inputs, t Target, engine Engine, x float64) (probe, error) {
	in, err := base.WithOverrides(map[string]float64{t.Param: x})
	if err != nil {
		return probe{}, invalidRequest("%v", err)
	}
	ev, err := r.Evaluate(in, engine)
	if err != nil {
		return probe{}, err
	}
	p := probe{value: x}
	if v := ev.Value(t.Metric); v != nil {
		gap := *v - t.Value
		p.gap = &gap
	}
	return p, nil
}

// Solve bisects Param between the bounds. When the bounds do not bracket the
// target, the bound closest to it is reported as unconverged.
func (r *Runner) Solve(ctx context.Context, base model.Inputs, t Target) (optimization.Summary, error) {
	if err := t.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	if err := r.checkMetric(t.Metric); err != nil {
		return optimization.Summary{}, err
	}
	engine := t.Engine
	if engine == "" {
		engine = EngineProjection
	}
	tolerance := t.Tolerance
	if tolerance == 0 {
		tolerance = (t.Max - t.Min) * constants.DefaultSolverTolerance
	}
	maxIterations := t.MaxIterations
	if maxIterations == 0 {
		maxIterations = constants.DefaultSolverMaxIterations
	}

	summary := optimization.Summary{
		Scope:      "deal",
		TargetName: t.Name,
		Field:      t.Param,
		Metric:     string(t.Metric),
		Target:     t.Value,
	}
	if original, _ := base.Get(t.Param); original != nil {
		summary.Original = original
		summary.OriginalDisplay = DisplayValue(t.Param, *original)
	}

	lower, err := r.probe(base, t, engine, t.Min)
	if err != nil {
		return optimization.Summary{}, err
	}
	upper, err := r.probe(base, t, engine, t.Max)
	if err != nil {
		return optimization.Summary{}, err
	}

	var best probe
	switch {
	case lower.gap == nil || upper.gap == nil:
		best = lower
		if lower.gap == nil {
			best = upper
		}
		summary.Notes = append(summary.Notes, fmt.Sprintf("%s is unavailable at one or both bounds", t.Metric))
	case *lower.gap == 0:
		best = lower
		summary.Converged = true
	case *upper.gap == 0:
		best = upper
		summary.Converged = true
	case (*lower.gap > 0) == (*upper.gap > 0):
		best = lower
		if math.Abs(*upper.gap) < math.Abs(*lower.gap) {
			best = upper
		}
		summary.Notes = append(summary.Notes, fmt.Sprintf("unable to reach %s of %g between %s and %s",
			t.Metric, t.Value, DisplayValue(t.Param, t.Min), DisplayValue(t.Param, t.Max)))
	default:
		best, summary.Iterations, summary.Converged, err = r.bisect(ctx, base, t, engine, lower, upper, tolerance, maxIterations)
		if err != nil {
			return optimization.Summary{}, err
		}
		if !summary.Converged {
			summary.Notes = append(summary.Notes, fmt.Sprintf("stopped after %d iterations", summary.Iterations))
		}
	}

	summary.Value = best.value
	summary.ValueDisplay = DisplayValue(t.Param, best.value)
	if best.gap != nil {
		achieved := t.Value + *best.gap
		gap := *best.gap
		summary.Achieved = &achieved
		summary.Gap = &gap
	}

	r.logger.Info("solver finished",
		zap.String("op", "sensitivity.Solve"),
		zap.String("field", t.Param),
		zap.String("metric", string(t.Metric)),
		zap.Float64("target", t.Value),
		zap.Float64("value", summary.Value),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}

func (r *Runner) bisect(ctx context.Context, base model.Inputs, t Target, engine Engine, lower, upper probe, tolerance float64, maxIterations int) (probe, int, bool, error) {
	iterations := 0
	for iterations < maxIterations && !mathutil.WithinTolerance(upper.value, lower.value, tolerance) {
		if err := ctx.Err(); err != nil {
			return probe{}, iterations, false, err
		}
		mid := lower.value + (upper.value-lower.value)/2
		evalMid, err := r.probe(base, t, engine, mid)
		if err != nil {
			return probe{}, iterations, false, err
		}
		iterations++
		if evalMid.gap == nil {
			return evalMid, iterations, false, nil
		}
		if *evalMid.gap == 0 {
			return evalMid, iterations, true, nil
		}
		if (*evalMid.gap > 0) == (*lower.gap > 0) {
			lower = evalMid
		} else {
			upper = evalMid
		}
	}

	best := lower
	if math.Abs(*upper.gap) < math.Abs(*lower.gap) {
		best = upper
	}
	return best, iterations, mathutil.WithinTolerance(upper.value, lower.value, tolerance), nil
}
