package underwriting

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/cre-underwriter/internal/model"
)

func ptr(v float64) *float64 { return &v }

func baseInputs() model.Inputs {
	var in model.Inputs
	in.GrossPotentialRent = ptr(1000000)
	in.VacancyRate = ptr(0.05)
	in.OperatingExpenses = ptr(400000)
	in.PurchasePrice = ptr(10000000)
	return in
}

func hasWarning(warnings []string, fragment string) bool {
	for _, w := range warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

func TestCalculateUnderwritingAllCash(t *testing.T) {
	res := CalculateUnderwriting(baseInputs())

	if res.Income == nil || res.Income.EffectiveGrossIncome != 950000 {
		t.Fatalf("EffectiveGrossIncome = %+v, expected 950000", res.Income)
	}
	if res.Income.VacancyLoss != 50000 {
		t.Errorf("VacancyLoss = %.2f, expected 50000", res.Income.VacancyLoss)
	}
	noi := res.NetOperatingIncome()
	if noi == nil || *noi != 550000 {
		t.Fatalf("NetOperatingIncome = %v, expected 550000", noi)
	}
	if res.Returns == nil || res.Returns.GoingInCapRate == nil || *res.Returns.GoingInCapRate != 0.055 {
		t.Errorf("GoingInCapRate = %+v, expected 0.055", res.Returns)
	}
	if res.DebtMetrics != nil {
		t.Errorf("expected no debt metrics without loan inputs, got %+v", res.DebtMetrics)
	}
	if res.Expenses.ExpenseRatio == nil || math.Abs(*res.Expenses.ExpenseRatio-0.4211) > 1e-9 {
		t.Errorf("ExpenseRatio = %v, expected 0.4211", res.Expenses.ExpenseRatio)
	}
	if res.Returns.CashOnCash == nil || *res.Returns.CashOnCash != 0.055 {
		t.Errorf("CashOnCash = %v, expected 0.055 for an all-cash deal", res.Returns.CashOnCash)
	}
	if res.Projections != nil {
		t.Errorf("expected no projection without an exit cap rate")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestCalculateUnderwritingPartialInputs(t *testing.T) {
	tests := []struct {
		name         string
		inputs       func() model.Inputs
		wantIncome   bool
		wantExpenses bool
		wantNOI      bool
		wantReturns  bool
	}{
		{
			name:   "Empty inputs",
			inputs: func() model.Inputs { return model.Inputs{} },
		},
		{
			name: "Income only",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.GrossPotentialRent = ptr(500000)
				return in
			},
			wantIncome: true,
		},
		{
			name: "Expense lines only",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.PropertyTaxes = ptr(100000)
				in.Insurance = ptr(20000)
				return in
			},
			wantExpenses: true,
		},
		{
			name: "Price only",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.PurchasePrice = ptr(5000000)
				return in
			},
			wantReturns: true,
		},
		{
			name:         "Income and expenses without price",
			inputs:       func() model.Inputs { in := baseInputs(); in.PurchasePrice = nil; return in },
			wantIncome:   true,
			wantExpenses: true,
			wantNOI:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CalculateUnderwriting(tt.inputs())
			if (res.Income != nil) != tt.wantIncome {
				t.Errorf("Income present = %v, expected %v", res.Income != nil, tt.wantIncome)
			}
			if (res.Expenses != nil) != tt.wantExpenses {
				t.Errorf("Expenses present = %v, expected %v", res.Expenses != nil, tt.wantExpenses)
			}
			if (res.NetOperatingIncome() != nil) != tt.wantNOI {
				t.Errorf("NOI present = %v, expected %v", res.NetOperatingIncome() != nil, tt.wantNOI)
			}
			if (res.Returns != nil) != tt.wantReturns {
				t.Errorf("Returns present = %v, expected %v", res.Returns != nil, tt.wantReturns)
			}
			if res.Warnings == nil {
				t.Error("warnings should be an empty list, not nil")
			}
		})
	}
}

func TestTotalOperatingExpenses(t *testing.T) {
	var e model.Expenses
	if TotalOperatingExpenses(e) != nil {
		t.Error("expected nil total with no expense inputs")
	}
	e.PropertyTaxes = ptr(100)
	e.Reserves = ptr(50)
	if got := TotalOperatingExpenses(e); got == nil || *got != 150 {
		t.Errorf("sum of lines = %v, expected 150", got)
	}
	e.OperatingExpenses = ptr(1000)
	if got := TotalOperatingExpenses(e); *got != 1000 {
		t.Errorf("supplied total = %v, expected 1000", *got)
	}
}

func TestCalculateUnderwritingDebt(t *testing.T) {
	tests := []struct {
		name        string
		loan        float64
		dscrRange   []float64
		wantWarning []string
		noWarning   []string
	}{
		{
			name:        "Thin coverage",
			loan:        7000000,
			dscrRange:   []float64{1.09, 1.10},
			wantWarning: []string{"typical lender minimum"},
			noWarning:   []string{"negative leverage", "LTV"},
		},
		{
			name:        "Negative leverage and high LTV",
			loan:        8500000,
			dscrRange:   []float64{0.89, 0.91},
			wantWarning: []string{"typical lender minimum", "negative leverage", "LTV of 85.0%"},
		},
		{
			name:      "Comfortable coverage",
			loan:      4000000,
			dscrRange: []float64{1.90, 1.92},
			noWarning: []string{"DSCR", "LTV"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs()
			in.LoanAmount = ptr(tt.loan)
			in.InterestRate = ptr(0.06)
			in.AmortizationYears = ptr(30)

			res := CalculateUnderwriting(in)
			if res.DebtMetrics == nil || res.DebtMetrics.DSCR == nil {
				t.Fatalf("expected DSCR, got %+v", res.DebtMetrics)
			}
			dscr := *res.DebtMetrics.DSCR
			if dscr < tt.dscrRange[0] || dscr > tt.dscrRange[1] {
				t.Errorf("DSCR = %.4f, expected range %v", dscr, tt.dscrRange)
			}
			if ltv := *res.DebtMetrics.LTV; math.Abs(ltv-tt.loan/10000000) > 1e-9 {
				t.Errorf("LTV = %.4f, expected %.4f", ltv, tt.loan/10000000)
			}
			for _, w := range tt.wantWarning {
				if !hasWarning(res.Warnings, w) {
					t.Errorf("missing warning %q in %v", w, res.Warnings)
				}
			}
			for _, w := range tt.noWarning {
				if hasWarning(res.Warnings, w) {
					t.Errorf("unexpected warning %q in %v", w, res.Warnings)
				}
			}

			equity := 10000000 - tt.loan
			if *res.Returns.EquityRequired != equity {
				t.Errorf("EquityRequired = %.0f, expected %.0f", *res.Returns.EquityRequired, equity)
			}
			expectedCoC := (550000 - *res.DebtMetrics.AnnualDebtService) / equity
			if math.Abs(*res.Returns.CashOnCash-expectedCoC) > 1e-3 {
				t.Errorf("CashOnCash = %.4f, expected %.4f", *res.Returns.CashOnCash, expectedCoC)
			}
		})
	}
}

func TestCalculateUnderwritingOutOfRangeYears(t *testing.T) {
	in := baseInputs()
	in.ExitCapRate = ptr(0.06)
	in.HoldPeriodYears = ptr(1e300)
	in.LoanAmount = ptr(6000000)
	in.InterestRate = ptr(0.06)
	in.AmortizationYears = ptr(1e12)
	in.InterestOnlyYears = ptr(math.Inf(1))

	res := CalculateUnderwriting(in)
	if res.Projections == nil {
		t.Fatal("expected a projection on the default hold period")
	}
	if res.Projections.HoldPeriodYears != 5 || len(res.Projections.Years) != 5 {
		t.Errorf("HoldPeriodYears = %d with %d years, expected 5",
			res.Projections.HoldPeriodYears, len(res.Projections.Years))
	}

	in.AmortizationYears = ptr(30)
	in.InterestOnlyYears = nil
	want := CalculateUnderwriting(in)
	if res.DebtMetrics.IsInterestOnly {
		t.Error("an unbounded interest-only window must be ignored")
	}
	if *res.DebtMetrics.AnnualDebtService != *want.DebtMetrics.AnnualDebtService {
		t.Errorf("AnnualDebtService = %.0f, expected the 30-year figure %.0f",
			*res.DebtMetrics.AnnualDebtService, *want.DebtMetrics.AnnualDebtService)
	}
}

func TestCalculateUnderwritingInterestOnly(t *testing.T) {
	in := baseInputs()
	in.LoanAmount = ptr(6000000)
	in.InterestRate = ptr(0.05)
	in.InterestOnlyYears = ptr(2)

	res := CalculateUnderwriting(in)
	if !res.DebtMetrics.IsInterestOnly {
		t.Error("expected interest-only debt service")
	}
	if *res.DebtMetrics.AnnualDebtService != 300000 {
		t.Errorf("AnnualDebtService = %.0f, expected 300000", *res.DebtMetrics.AnnualDebtService)
	}
}

func TestCalculateUnderwritingLoanWithoutRate(t *testing.T) {
	in := baseInputs()
	in.LoanAmount = ptr(6000000)
	in.ExitCapRate = ptr(0.055)

	res := CalculateUnderwriting(in)
	if res.DebtMetrics != nil {
		t.Errorf("expected no debt metrics without a rate")
	}
	if res.Returns.EquityRequired == nil || *res.Returns.EquityRequired != 4000000 {
		t.Errorf("EquityRequired = %v, expected 4000000", res.Returns.EquityRequired)
	}
	if res.Returns.CashOnCash != nil || res.Returns.IRR != nil {
		t.Errorf("cash-on-cash and IRR need debt service, got %+v", res.Returns)
	}
}

func TestCalculateUnderwritingOverleveraged(t *testing.T) {
	in := baseInputs()
	in.LoanAmount = ptr(10000000)
	in.InterestRate = ptr(0.05)

	res := CalculateUnderwriting(in)
	if !hasWarning(res.Warnings, "equity required") {
		t.Errorf("expected equity warning, got %v", res.Warnings)
	}
	if res.Returns.CashOnCash != nil {
		t.Errorf("cash-on-cash must be nil without positive equity")
	}
}

func TestSimplifiedProjectionFlatDeal(t *testing.T) {
	in := baseInputs()
	in.ExitCapRate = ptr(0.055)
	in.HoldPeriodYears = ptr(5)
	in.SellingCostRate = ptr(0)

	res := CalculateUnderwriting(in)
	if res.Projections == nil {
		t.Fatal("expected projections")
	}
	p := res.Projections
	if p.HoldPeriodYears != 5 || len(p.Years) != 5 {
		t.Fatalf("expected 5 projection years, got %d", len(p.Years))
	}
	if p.ExitValue != 10000000 {
		t.Errorf("ExitValue = %.0f, expected 10000000", p.ExitValue)
	}
	if res.Returns.IRR == nil || math.Abs(*res.Returns.IRR-0.055) > 1e-4 {
		t.Errorf("IRR = %v, expected 0.055", res.Returns.IRR)
	}
	if res.Returns.EquityMultiple == nil || math.Abs(*res.Returns.EquityMultiple-1.275) > 0.0051 {
		t.Errorf("EquityMultiple = %v, expected 1.275 rounded to cents", res.Returns.EquityMultiple)
	}
	if len(p.CashFlows) != 6 || p.CashFlows[0] != -10000000 {
		t.Errorf("CashFlows = %v", p.CashFlows)
	}
}

func TestSimplifiedProjectionGrowthAndLeverage(t *testing.T) {
	in := baseInputs()
	in.LoanAmount = ptr(6500000)
	in.InterestRate = ptr(0.055)
	in.AmortizationYears = ptr(30)
	in.ExitCapRate = ptr(0.06)
	in.HoldPeriodYears = ptr(7)
	in.RentGrowth = ptr(0.03)
	in.ExpenseGrowth = ptr(0.025)

	res := CalculateUnderwriting(in)
	p := res.Projections
	if p == nil || len(p.Years) != 7 {
		t.Fatalf("expected a 7 year projection, got %+v", p)
	}
	for i := 1; i < len(p.Years); i++ {
		if p.Years[i].NetOperatingIncome <= p.Years[i-1].NetOperatingIncome {
			t.Errorf("NOI should grow: year %d %.0f <= year %d %.0f",
				p.Years[i].Year, p.Years[i].NetOperatingIncome, p.Years[i-1].Year, p.Years[i-1].NetOperatingIncome)
		}
		if p.Years[i].DebtService != p.Years[0].DebtService {
			t.Errorf("simplified debt service should be flat")
		}
	}
	if p.LoanPayoff <= 0 || p.LoanPayoff >= 6500000 {
		t.Errorf("LoanPayoff = %.0f, expected partially amortized balance", p.LoanPayoff)
	}
	if res.Returns.IRR == nil || *res.Returns.IRR <= 0 {
		t.Errorf("IRR = %v, expected a positive rate", res.Returns.IRR)
	}
	if res.Returns.EquityMultiple == nil || *res.Returns.EquityMultiple <= 1 {
		t.Errorf("EquityMultiple = %v, expected > 1", res.Returns.EquityMultiple)
	}
}
