// Package testutil provides common fixtures and lookups for tests.
package testutil

import (
	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
)

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }

// AllCashDeal is a stabilized 5.5% cap rate acquisition without debt.
func AllCashDeal() model.Inputs {
	var in model.Inputs
	in.PurchasePrice = Ptr(10000000)
	in.GrossPotentialRent = Ptr(1000000)
	in.VacancyRate = Ptr(0.05)
	in.OperatingExpenses = Ptr(400000)
	return in
}

// LeveragedDeal is AllCashDeal with a 60% LTV amortizing loan, a five year
// hold and 3% rent growth.
func LeveragedDeal() model.Inputs {
	in := AllCashDeal()
	in.LoanAmount = Ptr(6000000)
	in.InterestRate = Ptr(0.06)
	in.AmortizationYears = Ptr(30)
	in.ExitCapRate = Ptr(0.055)
	in.HoldPeriodYears = Ptr(5)
	in.RentGrowth = Ptr(0.03)
	return in
}

// PromoteStructure is a 90/10 LP/GP structure with an 8% pref, a 20% GP
// catch-up and a promote above a 12% LP IRR, sized to LeveragedDeal's equity.
func PromoteStructure() waterfall.Structure {
	return waterfall.Structure{
		LPEquity:        3600000,
		GPEquity:        400000,
		PreferredReturn: 0.08,
		CatchUp:         true,
		CatchUpPercent:  0.2,
		Tiers: []waterfall.Tier{
			{Name: "Promote", Hurdle: Ptr(0.12), LPSplit: 0.8, GPSplit: 0.2},
			{Name: "Residual", LPSplit: 0.7, GPSplit: 0.3},
		},
	}
}

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindScenario(results []sensitivity.ScenarioResult, name string) *sensitivity.ScenarioResult {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}
