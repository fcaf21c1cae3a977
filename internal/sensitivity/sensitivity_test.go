package sensitivity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/projection"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr(v float64) *float64 { return &v }

func dealInputs() model.Inputs {
	var in model.Inputs
	in.PurchasePrice = ptr(10000000)
	in.GrossPotentialRent = ptr(1000000)
	in.VacancyRate = ptr(0.05)
	in.OperatingExpenses = ptr(400000)
	in.LoanAmount = ptr(6000000)
	in.InterestRate = ptr(0.06)
	in.AmortizationYears = ptr(30)
	in.ExitCapRate = ptr(0.055)
	in.HoldPeriodYears = ptr(5)
	in.RentGrowth = ptr(0.03)
	in.ExpenseGrowth = ptr(0.025)
	return in
}

func newTestRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	r, err := NewRunner(zap.NewNop(), cfg)
	require.NoError(t, err)
	return r
}

func TestRunGridTwoParameters(t *testing.T) {
	r := newTestRunner(t, Config{Workers: 3})
	base := dealInputs()
	g := Grid{
		RowParam:  "exitCapRate",
		RowValues: []float64{0.05, 0.055, 0.06, 0.065},
		ColParam:  "holdPeriodYears",
		ColValues: []float64{3, 5, 7},
		Metric:    MetricIRR,
	}

	res, err := r.RunGrid(context.Background(), base, g)
	require.NoError(t, err)
	_, err = uuid.Parse(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, EngineProjection, res.Engine)
	require.Len(t, res.Values, 4)

	direct := projection.ProjectDetailedCashFlows(base, 0)
	require.NotNil(t, res.Baseline)
	assert.Equal(t, *direct.Summary.IRR, *res.Baseline)

	for i, row := range res.Values {
		require.Len(t, row, 3)
		for j, cell := range row {
			require.NotNil(t, cell, "cell %d,%d", i, j)

			in, err := base.WithOverrides(map[string]float64{"exitCapRate": g.RowValues[i], "holdPeriodYears": g.ColValues[j]})
			require.NoError(t, err)
			expected := projection.ProjectDetailedCashFlows(in, 0)
			assert.Equal(t, *expected.Summary.IRR, *cell, "cell %d,%d", i, j)

			if i > 0 {
				assert.Less(t, *cell, *res.Values[i-1][j], "higher exit cap should lower IRR")
			}
		}
	}

	// The base inputs must not be mutated by cell overrides.
	assert.Equal(t, 0.055, *base.ExitCapRate)
	assert.Equal(t, 5.0, *base.HoldPeriodYears)
}

func TestRunGridSingleParameterUnderwriting(t *testing.T) {
	r := newTestRunner(t, Config{})
	res, err := r.RunGrid(context.Background(), dealInputs(), Grid{
		RowParam:  "loanAmount",
		RowValues: []float64{5000000, 6000000, 7000000},
		Metric:    MetricDSCR,
		Engine:    EngineUnderwriting,
	})
	require.NoError(t, err)
	require.Len(t, res.Values, 3)
	for i := range res.Values {
		require.Len(t, res.Values[i], 1)
		require.NotNil(t, res.Values[i][0])
	}
	assert.Greater(t, *res.Values[0][0], *res.Values[2][0])
}

func TestRunGridValidation(t *testing.T) {
	r := newTestRunner(t, Config{})
	tests := []struct {
		name string
		grid Grid
	}{
		{"Unknown row parameter", Grid{RowParam: "capRate", RowValues: []float64{1}, Metric: MetricIRR}},
		{"No row values", Grid{RowParam: "exitCapRate", Metric: MetricIRR}},
		{"Same parameters", Grid{RowParam: "exitCapRate", RowValues: []float64{1}, ColParam: "exitCapRate", ColValues: []float64{1}, Metric: MetricIRR}},
		{"No column values", Grid{RowParam: "exitCapRate", RowValues: []float64{1}, ColParam: "rentGrowth", Metric: MetricIRR}},
		{"Unknown metric", Grid{RowParam: "exitCapRate", RowValues: []float64{1}, Metric: "npv"}},
		{"Unknown engine", Grid{RowParam: "exitCapRate", RowValues: []float64{1}, Metric: MetricIRR, Engine: "monte-carlo"}},
		{"Waterfall metric without structure", Grid{RowParam: "exitCapRate", RowValues: []float64{1}, Metric: MetricLPIRR}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RunGrid(context.Background(), dealInputs(), tt.grid)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "unexpected error %v", err)
		})
	}
}

func TestRunGridCanceled(t *testing.T) {
	r := newTestRunner(t, Config{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunGrid(ctx, dealInputs(), Grid{
		RowParam:  "exitCapRate",
		RowValues: []float64{0.05, 0.06},
		Metric:    MetricIRR,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerWithWaterfall(t *testing.T) {
	structure := &waterfall.Structure{
		LPEquity:        3600000,
		GPEquity:        400000,
		PreferredReturn: 0.08,
		Tiers: []waterfall.Tier{
			{Hurdle: ptr(0.12), LPSplit: 0.8, GPSplit: 0.2},
			{LPSplit: 0.7, GPSplit: 0.3},
		},
	}
	r := newTestRunner(t, Config{Waterfall: structure})

	ev, err := r.Evaluate(dealInputs(), EngineProjection)
	require.NoError(t, err)
	require.NotNil(t, ev.Waterfall)
	assert.NotNil(t, ev.Value(MetricLPIRR))
	assert.NotNil(t, ev.Value(MetricTotalPromote))
	assert.Equal(t, ev.Projection.Summary.IRR, ev.Value(MetricIRR))

	_, err = NewRunner(nil, Config{Waterfall: &waterfall.Structure{}})
	var verr *waterfall.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRunScenarios(t *testing.T) {
	r := newTestRunner(t, Config{})
	scenarios := []Scenario{
		{Name: "Base", Active: true},
		{Name: "Soft exit", Active: true, Overrides: map[string]float64{"exitCapRate": 0.065}},
		{Name: "Inactive", Active: false, Overrides: map[string]float64{"exitCapRate": 0.04}},
	}

	results, err := r.RunScenarios(context.Background(), dealInputs(), scenarios, EngineProjection)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Base", results[0].Name)
	assert.Equal(t, "Soft exit", results[1].Name)
	assert.Less(t, *results[1].Value(MetricIRR), *results[0].Value(MetricIRR))
	assert.Equal(t, 0.065, results[1].Projection.Exit.ExitCapRate)

	_, err = r.RunScenarios(context.Background(), dealInputs(), []Scenario{{Name: "A"}, {Name: "A"}}, EngineProjection)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = r.RunScenarios(context.Background(), dealInputs(),
		[]Scenario{{Name: "Bad", Active: true, Overrides: map[string]float64{"bogus": 1}}}, EngineProjection)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSolveFindsPurchasePriceForCapRate(t *testing.T) {
	r := newTestRunner(t, Config{})
	var in model.Inputs
	in.PurchasePrice = ptr(10000000)
	in.GrossPotentialRent = ptr(1000000)
	in.VacancyRate = ptr(0.05)
	in.OperatingExpenses = ptr(400000)

	summary, err := r.Solve(context.Background(), in, Target{
		Name:   "Max bid at 5% cap",
		Param:  "purchasePrice",
		Metric: MetricCapRate,
		Value:  0.05,
		Min:    8000000,
		Max:    14000000,
		Engine: EngineUnderwriting,
	})
	require.NoError(t, err)
	assert.True(t, summary.Converged)
	assert.InDelta(t, 11000000, summary.Value, 25000)
	require.NotNil(t, summary.Achieved)
	assert.InDelta(t, 0.05, *summary.Achieved, 1e-4)
	require.NotNil(t, summary.Original)
	assert.Equal(t, 10000000.0, *summary.Original)
	assert.Equal(t, "$10,000,000", summary.OriginalDisplay)
	assert.Equal(t, "purchasePrice", summary.Field)
	assert.Empty(t, summary.Notes)
}

func TestSolveUnreachableTarget(t *testing.T) {
	r := newTestRunner(t, Config{})
	summary, err := r.Solve(context.Background(), dealInputs(), Target{
		Param:  "purchasePrice",
		Metric: MetricCapRate,
		Value:  0.20,
		Min:    8000000,
		Max:    12000000,
		Engine: EngineUnderwriting,
	})
	require.NoError(t, err)
	assert.False(t, summary.Converged)
	assert.Equal(t, 8000000.0, summary.Value)
	require.Len(t, summary.Notes, 1)
	assert.Contains(t, summary.Notes[0], "unable to reach")
}

func TestSolveValidation(t *testing.T) {
	r := newTestRunner(t, Config{})
	_, err := r.Solve(context.Background(), dealInputs(), Target{Param: "purchasePrice", Metric: MetricIRR, Min: 5, Max: 1})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = r.Solve(context.Background(), dealInputs(), Target{Param: "nope", Metric: MetricIRR, Min: 1, Max: 5})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "5.50%", DisplayValue("exitCapRate", 0.055))
	assert.Equal(t, "3.00%", DisplayValue("rentGrowth", 0.03))
	assert.Equal(t, "7 years", DisplayValue("holdPeriodYears", 7))
	assert.Equal(t, "$1,250,000", DisplayValue("loanAmount", 1250000))
}
