// Package underwriting computes single-period underwriting metrics for a deal
// plus a quick multi-year return estimate.
//
// Every block of the result is gated on the inputs it needs. Missing inputs
// leave the affected block nil and never produce an error.
package underwriting

import (
	"fmt"
	"math"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/format"
	"github.com/iwvelando/cre-underwriter/pkg/irr"
	"github.com/iwvelando/cre-underwriter/pkg/loans"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
)

// Income is the revenue block.
type Income struct {
	GrossPotentialRent   float64 `json:"grossPotentialRent"`
	VacancyLoss          float64 `json:"vacancyLoss"`
	OtherIncome          float64 `json:"otherIncome"`
	EffectiveGrossIncome float64 `json:"effectiveGrossIncome"`
}

// Expenses is the operating expense block. NOI and the expense ratio need
// both income and expenses.
type Expenses struct {
	TotalOperatingExpenses float64  `json:"totalOperatingExpenses"`
	NetOperatingIncome     *float64 `json:"netOperatingIncome,omitempty"`
	ExpenseRatio           *float64 `json:"expenseRatio,omitempty"`
}

// DebtMetrics is present only when loan amount and rate were supplied.
type DebtMetrics struct {
	LoanAmount        float64  `json:"loanAmount"`
	AnnualDebtService *float64 `json:"annualDebtService,omitempty"`
	MonthlyPayment    *float64 `json:"monthlyPayment,omitempty"`
	IsInterestOnly    bool     `json:"isInterestOnly"`
	DSCR              *float64 `json:"dscr,omitempty"`
	LTV               *float64 `json:"ltv,omitempty"`
	DebtYield         *float64 `json:"debtYield,omitempty"`
}

// Returns holds going-in and summary return metrics.
type Returns struct {
	GoingInCapRate *float64 `json:"goingInCapRate,omitempty"`
	EquityRequired *float64 `json:"equityRequired,omitempty"`
	CashOnCash     *float64 `json:"cashOnCash,omitempty"`
	IRR            *float64 `json:"irr,omitempty"`
	EquityMultiple *float64 `json:"equityMultiple,omitempty"`
}

// ProjectionYear is one year of the simplified projection.
type ProjectionYear struct {
	Year                 int     `json:"year"`
	EffectiveGrossIncome float64 `json:"effectiveGrossIncome"`
	OperatingExpenses    float64 `json:"operatingExpenses"`
	NetOperatingIncome   float64 `json:"netOperatingIncome"`
	DebtService          float64 `json:"debtService"`
	CashFlow             float64 `json:"cashFlow"`
}

// Projections is the simplified hold-period estimate behind Returns.IRR.
type Projections struct {
	HoldPeriodYears int              `json:"holdPeriodYears"`
	Years           []ProjectionYear `json:"years"`
	ExitValue       float64          `json:"exitValue"`
	SellingCosts    float64          `json:"sellingCosts"`
	LoanPayoff      float64          `json:"loanPayoff"`
	ExitProceeds    float64          `json:"exitProceeds"`
	CashFlows       []float64        `json:"cashFlows"`
}

// Result is the full calculation tree.
type Result struct {
	Income      *Income      `json:"income,omitempty"`
	Expenses    *Expenses    `json:"expenses,omitempty"`
	DebtMetrics *DebtMetrics `json:"debtMetrics,omitempty"`
	Returns     *Returns     `json:"returns,omitempty"`
	Projections *Projections `json:"projections,omitempty"`
	Warnings    []string     `json:"warnings"`
}

// NetOperatingIncome returns the computed NOI, nil when unavailable.
func (r Result) NetOperatingIncome() *float64 {
	if r.Expenses == nil {
		return nil
	}
	return r.Expenses.NetOperatingIncome
}

// CalculateUnderwriting evaluates whatever subset of metrics the inputs support.
func CalculateUnderwriting(in model.Inputs) Result {
	res := Result{Warnings: []string{}}

	var egi *float64
	if in.GrossPotentialRent != nil {
		gpr := *in.GrossPotentialRent
		vacancy := mathutil.Value(in.VacancyRate, 0)
		other := mathutil.Value(in.OtherIncome, 0)
		e := gpr*(1-vacancy) + other
		egi = &e
		res.Income = &Income{
			GrossPotentialRent:   mathutil.Dollars(gpr),
			VacancyLoss:          mathutil.Dollars(gpr * vacancy),
			OtherIncome:          mathutil.Dollars(other),
			EffectiveGrossIncome: mathutil.Dollars(e),
		}
	}

	totalExpenses := TotalOperatingExpenses(in.Expenses)
	var noi *float64
	if totalExpenses != nil {
		res.Expenses = &Expenses{TotalOperatingExpenses: mathutil.Dollars(*totalExpenses)}
		if egi != nil {
			n := *egi - *totalExpenses
			noi = &n
			res.Expenses.NetOperatingIncome = mathutil.Ptr(mathutil.Dollars(n))
			res.Expenses.ExpenseRatio = mathutil.RoundPtr(mathutil.Div(*totalExpenses, *egi), mathutil.Rate)
		}
	}

	returns := &Returns{}
	price := in.PurchasePrice
	if noi != nil && mathutil.Positive(price) {
		returns.GoingInCapRate = mathutil.RoundPtr(mathutil.Div(*noi, *price), mathutil.Rate)
	}

	// An absent loan is an all-cash deal with zero debt service; a loan without
	// a rate leaves debt service unknown.
	debtService := 0.0
	debtServiceKnown := in.LoanAmount == nil
	var debt loans.DebtService
	if in.LoanAmount != nil && in.InterestRate != nil {
		debt = loans.ComputeDebtService(in.LoanAmount, in.InterestRate,
			model.Years(in.AmortizationYears, constants.DefaultAmortizationYears, constants.MaxAmortizationYears),
			model.Years(in.InterestOnlyYears, 0, constants.MaxHoldPeriodYears))
		res.DebtMetrics = buildDebtMetrics(in, debt, noi, &res.Warnings)
		if debt.AnnualDebtService != nil {
			debtService = *debt.AnnualDebtService
			debtServiceKnown = true
		}
	}

	var equity *float64
	if price != nil {
		e := *price - mathutil.Value(in.LoanAmount, 0)
		equity = &e
		returns.EquityRequired = mathutil.Ptr(mathutil.Dollars(e))
		if e <= 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"equity required is %s: loan amount is not below purchase price", format.Currency(e)))
		}
	}

	if noi != nil && debtServiceKnown && mathutil.Positive(equity) {
		returns.CashOnCash = mathutil.RoundPtr(mathutil.Div(*noi-debtService, *equity), mathutil.Rate)
	}

	if noi != nil && debtServiceKnown && mathutil.Positive(equity) && mathutil.Positive(in.ExitCapRate) {
		projection := simplifiedProjection(in, *egi, *totalExpenses, debtService, *equity)
		res.Projections = &projection
		returns.IRR = mathutil.RoundPtr(irr.Solve(projection.CashFlows), mathutil.Rate)
		distributed := projection.ExitProceeds
		for _, year := range projection.Years {
			distributed += year.CashFlow
		}
		returns.EquityMultiple = mathutil.RoundPtr(mathutil.Div(distributed, *equity), mathutil.Multiple)
	}

	if *returns != (Returns{}) {
		res.Returns = returns
	}
	return res
}

// TotalOperatingExpenses returns the supplied total, or the sum of whichever
// expense lines are present, or nil when nothing was supplied.
func TotalOperatingExpenses(e model.Expenses) *float64 {
	if e.OperatingExpenses != nil {
		v := *e.OperatingExpenses
		return &v
	}
	var total *float64
	for _, line := range []*float64{e.PropertyTaxes, e.Insurance, e.Management, e.Reserves, e.OtherExpenses} {
		if line == nil {
			continue
		}
		if total == nil {
			total = mathutil.Ptr(0)
		}
		*total += *line
	}
	return total
}

func buildDebtMetrics(in model.Inputs, debt loans.DebtService, noi *float64, warnings *[]string) *DebtMetrics {
	metrics := &DebtMetrics{
		LoanAmount:        mathutil.Dollars(*in.LoanAmount),
		AnnualDebtService: mathutil.RoundPtr(debt.AnnualDebtService, mathutil.Dollars),
		MonthlyPayment:    mathutil.RoundPtr(debt.MonthlyPayment, mathutil.Cents),
		IsInterestOnly:    debt.IsInterestOnly,
	}

	if noi != nil && debt.AnnualDebtService != nil {
		if dscr := mathutil.Div(*noi, *debt.AnnualDebtService); dscr != nil {
			metrics.DSCR = mathutil.RoundPtr(dscr, mathutil.Rate)
			if *dscr < constants.LenderMinimumDSCR {
				*warnings = append(*warnings, fmt.Sprintf(
					"DSCR of %.2fx is below the typical lender minimum of %.2fx",
					*dscr, constants.LenderMinimumDSCR))
			}
			if *dscr < constants.BreakEvenDSCR {
				*warnings = append(*warnings, fmt.Sprintf(
					"DSCR of %.2fx is below %.2fx: NOI does not cover debt service (negative leverage)",
					*dscr, constants.BreakEvenDSCR))
			}
		}
	}
	if noi != nil {
		metrics.DebtYield = mathutil.RoundPtr(mathutil.Div(*noi, *in.LoanAmount), mathutil.Rate)
	}
	if mathutil.Positive(in.PurchasePrice) {
		ltv := *in.LoanAmount / *in.PurchasePrice
		metrics.LTV = mathutil.Ptr(mathutil.Rate(ltv))
		if ltv > constants.MaximumLTV {
			*warnings = append(*warnings, fmt.Sprintf(
				"LTV of %.1f%% exceeds the typical maximum of %.0f%%", ltv*100, constants.MaximumLTV*100))
		}
	}
	return metrics
}

// simplifiedProjection grows income at rent growth and the expense total at
// expense growth (rent growth when absent, holding the expense ratio constant).
// Debt service stays at the quoted annual figure for every year.
func simplifiedProjection(in model.Inputs, egi, expenses, debtService, equity float64) Projections {
	hold := model.Years(in.HoldPeriodYears, constants.DefaultHoldPeriodYears, constants.MaxHoldPeriodYears)
	rentGrowth := mathutil.Value(in.RentGrowth, 0)
	expenseGrowth := mathutil.Value(in.ExpenseGrowth, rentGrowth)

	p := Projections{HoldPeriodYears: hold, Years: make([]ProjectionYear, 0, hold)}
	flows := make([]float64, 0, hold+1)
	flows = append(flows, -equity)

	var lastNOI float64
	for year := 1; year <= hold; year++ {
		yearEGI := egi * math.Pow(1+rentGrowth, float64(year-1))
		yearExpenses := expenses * math.Pow(1+expenseGrowth, float64(year-1))
		yearNOI := yearEGI - yearExpenses
		cashFlow := yearNOI - debtService
		lastNOI = yearNOI
		flows = append(flows, cashFlow)
		p.Years = append(p.Years, ProjectionYear{
			Year:                 year,
			EffectiveGrossIncome: mathutil.Dollars(yearEGI),
			OperatingExpenses:    mathutil.Dollars(yearExpenses),
			NetOperatingIncome:   mathutil.Dollars(yearNOI),
			DebtService:          mathutil.Dollars(debtService),
			CashFlow:             mathutil.Dollars(cashFlow),
		})
	}

	exitValue := lastNOI / *in.ExitCapRate
	sellingCosts := exitValue * mathutil.Value(in.SellingCostRate, constants.DefaultSellingCostRate)
	payoff := 0.0
	if in.LoanAmount != nil && in.InterestRate != nil {
		schedule := loans.ComputeAmortizationSchedule(*in.LoanAmount, *in.InterestRate,
			model.Years(in.AmortizationYears, constants.DefaultAmortizationYears, constants.MaxAmortizationYears),
			model.Years(in.InterestOnlyYears, 0, constants.MaxHoldPeriodYears), hold)
		payoff = loans.BalanceAfter(schedule, hold, *in.LoanAmount)
	}
	exitProceeds := exitValue - sellingCosts - payoff
	flows[len(flows)-1] += exitProceeds

	p.ExitValue = mathutil.Dollars(exitValue)
	p.SellingCosts = mathutil.Dollars(sellingCosts)
	p.LoanPayoff = mathutil.Dollars(payoff)
	p.ExitProceeds = mathutil.Dollars(exitProceeds)
	p.CashFlows = flows
	return p
}
