package validation

import (
	"strings"
	"testing"

	"github.com/iwvelando/cre-underwriter/internal/model"
)

func f(v float64) *float64 { return &v }

func TestCheckInputs(t *testing.T) {
	tests := []struct {
		name     string
		inputs   model.Inputs
		contains []string
	}{
		{
			name: "Clean deal",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.PurchasePrice = f(10000000)
				in.GrossPotentialRent = f(1000000)
				in.VacancyRate = f(0.05)
				in.LoanAmount = f(6500000)
				in.InterestRate = f(0.06)
				in.RentGrowth = f(-0.02)
				return in
			}(),
		},
		{
			name: "Vacancy entered as a percentage",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.VacancyRate = f(5)
				return in
			}(),
			contains: []string{"vacancyRate of 5 is outside 0 to 1"},
		},
		{
			name: "Growth of minus one hundred percent",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.ExpenseGrowth = f(-1)
				return in
			}(),
			contains: []string{"expenseGrowth of -1 is outside -1 to 1"},
		},
		{
			name: "Negative amounts and periods",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.Insurance = f(-100)
				in.HoldPeriodYears = f(-5)
				return in
			}(),
			contains: []string{"insurance is negative", "holdPeriodYears is negative"},
		},
		{
			name: "Periods above the maximum",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.HoldPeriodYears = f(1e300)
				in.AmortizationYears = f(51)
				return in
			}(),
			contains: []string{
				"holdPeriodYears of 1e+300 is above the maximum of 100",
				"amortizationYears of 51 is above the maximum of 50",
			},
		},
		{
			name: "Overleveraged with zero price",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.PurchasePrice = f(0)
				in.LoanAmount = f(100)
				in.InterestRate = f(0.05)
				return in
			}(),
			contains: []string{"purchasePrice is zero"},
		},
		{
			name: "Loan above price",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.PurchasePrice = f(1000000)
				in.LoanAmount = f(1200000)
				return in
			}(),
			contains: []string{"loanAmount of 1200000 exceeds purchasePrice of 1000000", "without an interestRate"},
		},
		{
			name: "Interest only longer than the term",
			inputs: func() model.Inputs {
				var in model.Inputs
				in.InterestOnlyYears = f(12)
				in.LoanTermYears = f(10)
				return in
			}(),
			contains: []string{"interestOnlyYears (12) exceeds loanTermYears (10)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := CheckInputs(tt.inputs)
			if len(warnings) != len(tt.contains) {
				t.Fatalf("CheckInputs() returned %d warnings, want %d: %v", len(warnings), len(tt.contains), warnings)
			}
			for _, want := range tt.contains {
				found := false
				for _, w := range warnings {
					if strings.Contains(w, want) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("CheckInputs() missing warning containing %q in %v", want, warnings)
				}
			}
		})
	}
}
