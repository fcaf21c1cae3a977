// Package sensitivity re-runs the calculators over varied inputs: one and
// two parameter grids, named scenarios and a bisection solver that finds the
// input value reaching a target metric.
package sensitivity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/projection"
	"github.com/iwvelando/cre-underwriter/internal/underwriting"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/format"
	"github.com/iwvelando/cre-underwriter/pkg/irr"
	"go.uber.org/zap"
)

// ErrInvalidRequest marks a malformed grid, scenario or solver request.
var ErrInvalidRequest = errors.New("invalid sensitivity request")

func invalidRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Engine selects the calculator a run evaluates.
type Engine string

const (
	EngineProjection   Engine = "projection"
	EngineUnderwriting Engine = "underwriting"
)

// Metric names an output read from an evaluation.
type Metric string

const (
	MetricIRR              Metric = "irr"
	MetricEquityMultiple   Metric = "equityMultiple"
	MetricCashOnCash       Metric = "cashOnCash"
	MetricDSCR             Metric = "dscr"
	MetricCapRate          Metric = "capRate"
	MetricNOI              Metric = "noi"
	MetricLPIRR            Metric = "lpIrr"
	MetricGPIRR            Metric = "gpIrr"
	MetricLPEquityMultiple Metric = "lpEquityMultiple"
	MetricTotalPromote     Metric = "totalPromote"
)

var metrics = []Metric{
	MetricIRR, MetricEquityMultiple, MetricCashOnCash, MetricDSCR, MetricCapRate, MetricNOI,
	MetricLPIRR, MetricGPIRR, MetricLPEquityMultiple, MetricTotalPromote,
}

// Metrics lists the supported metrics.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

func (m Metric) valid() bool {
	for _, known := range metrics {
		if m == known {
			return true
		}
	}
	return false
}

func (m Metric) needsWaterfall() bool {
	switch m {
	case MetricLPIRR, MetricGPIRR, MetricLPEquityMultiple, MetricTotalPromote:
		return true
	}
	return false
}

// Config holds the runner settings.
type Config struct {
	Workers    int
	Projection projection.Options
	// Waterfall, when set, is run over each evaluation's equity cash flows.
	Waterfall *waterfall.Structure
}

// Runner evaluates input variations.
type Runner struct {
	logger  *zap.Logger
	workers int
	opts    projection.Options
	wf      *waterfall.Structure
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, cfg Config) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Waterfall != nil {
		if err := cfg.Waterfall.Validate(); err != nil {
			return nil, fmt.Errorf("sensitivity waterfall: %w", err)
		}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = constants.DefaultGridWorkers
	}
	opts := cfg.Projection
	if opts.IRR == (irr.Options{}) {
		opts.IRR = irr.DefaultOptions()
	}
	return &Runner{logger: logger, workers: workers, opts: opts, wf: cfg.Waterfall}, nil
}

// Evaluation is the output of one calculator run.
type Evaluation struct {
	Underwriting *underwriting.Result            `json:"underwriting,omitempty"`
	Projection   *projection.CashFlowProjection `json:"projection,omitempty"`
	Waterfall    *waterfall.Result               `json:"waterfall,omitempty"`
}

// Evaluate runs the selected engine, and the waterfall when configured.
func (r *Runner) Evaluate(in model.Inputs, engine Engine) (Evaluation, error) {
	var ev Evaluation
	var flows []float64
	switch engine {
	case EngineProjection, "":
		proj := projection.Project(in, r.opts)
		ev.Projection = &proj
		flows = proj.Summary.CashFlows
	case EngineUnderwriting:
		res := underwriting.CalculateUnderwriting(in)
		ev.Underwriting = &res
		if res.Projections != nil {
			flows = res.Projections.CashFlows
		}
	default:
		return ev, invalidRequest("unknown engine %q", engine)
	}

	if r.wf != nil && len(flows) > 0 {
		wf, err := waterfall.CalculateWaterfall(flows, *r.wf, waterfall.Options{IRR: r.opts.IRR})
		if err != nil {
			return ev, err
		}
		ev.Waterfall = wf
	}
	return ev, nil
}

// Value reads metric from the evaluation, nil when unavailable.
func (ev Evaluation) Value(metric Metric) *float64 {
	if w := ev.Waterfall; w != nil {
		switch metric {
		case MetricLPIRR:
			return w.LP.IRR
		case MetricGPIRR:
			return w.GP.IRR
		case MetricLPEquityMultiple:
			return w.LP.EquityMultiple
		case MetricTotalPromote:
			v := w.TotalPromote
			return &v
		}
	}

	if p := ev.Projection; p != nil {
		switch metric {
		case MetricIRR:
			return p.Summary.IRR
		case MetricEquityMultiple:
			return p.Summary.EquityMultiple
		case MetricCashOnCash:
			return p.Summary.AverageCashOnCash
		case MetricDSCR:
			return p.Summary.AverageDSCR
		case MetricCapRate:
			if len(p.Years) > 0 {
				return p.Years[0].CapRate
			}
		case MetricNOI:
			if len(p.Years) > 0 {
				v := p.Years[0].NetOperatingIncome
				return &v
			}
		}
		return nil
	}

	if u := ev.Underwriting; u != nil {
		switch metric {
		case MetricNOI:
			return u.NetOperatingIncome()
		case MetricDSCR:
			if u.DebtMetrics != nil {
				return u.DebtMetrics.DSCR
			}
			return nil
		}
		if u.Returns == nil {
			return nil
		}
		switch metric {
		case MetricIRR:
			return u.Returns.IRR
		case MetricEquityMultiple:
			return u.Returns.EquityMultiple
		case MetricCashOnCash:
			return u.Returns.CashOnCash
		case MetricCapRate:
			return u.Returns.GoingInCapRate
		}
	}
	return nil
}

func (r *Runner) checkMetric(metric Metric) error {
	if !metric.valid() {
		return invalidRequest("unknown metric %q", metric)
	}
	if metric.needsWaterfall() && r.wf == nil {
		return invalidRequest("metric %s requires a waterfall structure", metric)
	}
	return nil
}

func checkParam(name string) error {
	if !model.IsField(name) {
		return invalidRequest("unknown parameter %q", name)
	}
	return nil
}

// DisplayValue formats a parameter value for people: percentages for rates,
// whole numbers for year counts, currency otherwise.
func DisplayValue(param string, v float64) string {
	lower := strings.ToLower(param)
	switch {
	case strings.HasSuffix(lower, "rate") || strings.HasSuffix(lower, "growth"):
		return format.Percent(&v)
	case strings.HasSuffix(lower, "years"):
		return fmt.Sprintf("%.0f years", v)
	default:
		return format.Currency(v)
	}
}
