package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
)

var (
	unitRates   = []string{"vacancyRate", "interestRate", "exitCapRate", "sellingCostRate"}
	growthRates = []string{"rentGrowth", "expenseGrowth", "otherIncomeGrowth"}
	amounts     = []string{
		"purchasePrice", "grossPotentialRent", "otherIncome",
		"operatingExpenses", "propertyTaxes", "insurance", "management", "reserves", "otherExpenses",
		"loanAmount",
	}
	periods = []struct {
		name string
		max  int
	}{
		{"amortizationYears", constants.MaxAmortizationYears},
		{"loanTermYears", constants.MaxAmortizationYears},
		{"interestOnlyYears", constants.MaxHoldPeriodYears},
		{"holdPeriodYears", constants.MaxHoldPeriodYears},
	}
)

// CheckInputs returns advisory warnings for implausible deal inputs. The
// calculators still run on such inputs; the warnings only flag likely entry
// mistakes such as a vacancy rate typed as 5 instead of 0.05.
func CheckInputs(in model.Inputs) []string {
	var warnings []string

	for _, name := range unitRates {
		if v := get(&in, name); v != nil && (*v < 0 || *v > 1) {
			warnings = append(warnings, fmt.Sprintf("%s of %g is outside 0 to 1; rates are decimals (0.05 = 5%%)", name, *v))
		}
	}
	for _, name := range growthRates {
		if v := get(&in, name); v != nil && (*v <= -1 || *v > 1) {
			warnings = append(warnings, fmt.Sprintf("%s of %g is outside -1 to 1; rates are decimals (0.03 = 3%%)", name, *v))
		}
	}
	for _, name := range amounts {
		if v := get(&in, name); v != nil && *v < 0 {
			warnings = append(warnings, fmt.Sprintf("%s is negative (%g)", name, *v))
		}
	}
	for _, p := range periods {
		v := get(&in, p.name)
		switch {
		case v == nil:
		case *v < 0:
			warnings = append(warnings, fmt.Sprintf("%s is negative (%g)", p.name, *v))
		case math.IsNaN(*v) || math.Round(*v) > float64(p.max):
			warnings = append(warnings, fmt.Sprintf("%s of %g is above the maximum of %d and is ignored", p.name, *v, p.max))
		}
	}

	if in.PurchasePrice != nil && *in.PurchasePrice == 0 {
		warnings = append(warnings, "purchasePrice is zero; price-based metrics will be unavailable")
	}
	if in.PurchasePrice != nil && in.LoanAmount != nil && *in.PurchasePrice > 0 && *in.LoanAmount > *in.PurchasePrice {
		warnings = append(warnings, fmt.Sprintf("loanAmount of %.0f exceeds purchasePrice of %.0f", *in.LoanAmount, *in.PurchasePrice))
	}
	if in.InterestOnlyYears != nil && in.LoanTermYears != nil && *in.LoanTermYears > 0 && *in.InterestOnlyYears > *in.LoanTermYears {
		warnings = append(warnings, fmt.Sprintf("interestOnlyYears (%g) exceeds loanTermYears (%g)", *in.InterestOnlyYears, *in.LoanTermYears))
	}
	if in.LoanAmount != nil && *in.LoanAmount > 0 && in.InterestRate == nil {
		warnings = append(warnings, "loanAmount is set without an interestRate; debt service will be unavailable")
	}

	return warnings
}

func get(in *model.Inputs, name string) *float64 {
	v, err := in.Get(name)
	if err != nil {
		return nil
	}
	return v
}
