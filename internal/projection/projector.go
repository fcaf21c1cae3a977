// Package projection builds the detailed year-by-year cash-flow projection
// used for authoritative hold-period returns.
package projection

import (
	"fmt"
	"math"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/irr"
	"github.com/iwvelando/cre-underwriter/pkg/loans"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
)

// ExpenseLines is one year's operating expenses by category.
type ExpenseLines struct {
	Operating  float64 `json:"operating"`
	Taxes      float64 `json:"taxes"`
	Insurance  float64 `json:"insurance"`
	Management float64 `json:"management"`
	Reserves   float64 `json:"reserves"`
	Total      float64 `json:"total"`
}

func (e ExpenseLines) sum() float64 {
	return e.Operating + e.Taxes + e.Insurance + e.Management + e.Reserves
}

func (e ExpenseLines) scaled(factor float64) ExpenseLines {
	out := ExpenseLines{
		Operating:  e.Operating * factor,
		Taxes:      e.Taxes * factor,
		Insurance:  e.Insurance * factor,
		Management: e.Management * factor,
		Reserves:   e.Reserves * factor,
	}
	out.Total = out.sum()
	return out
}

func (e ExpenseLines) rounded() ExpenseLines {
	return ExpenseLines{
		Operating:  mathutil.Dollars(e.Operating),
		Taxes:      mathutil.Dollars(e.Taxes),
		Insurance:  mathutil.Dollars(e.Insurance),
		Management: mathutil.Dollars(e.Management),
		Reserves:   mathutil.Dollars(e.Reserves),
		Total:      mathutil.Dollars(e.Total),
	}
}

// YearRecord is one projected hold-period year.
type YearRecord struct {
	Year                 int          `json:"year"`
	GrossPotentialRent   float64      `json:"grossPotentialRent"`
	VacancyLoss          float64      `json:"vacancyLoss"`
	OtherIncome          float64      `json:"otherIncome"`
	EffectiveGrossIncome float64      `json:"effectiveGrossIncome"`
	Expenses             ExpenseLines `json:"expenses"`
	NetOperatingIncome   float64      `json:"netOperatingIncome"`
	InterestPaid         float64      `json:"interestPaid"`
	PrincipalPaid        float64      `json:"principalPaid"`
	DebtService          float64      `json:"debtService"`
	EndingLoanBalance    float64      `json:"endingLoanBalance"`
	BeforeTaxCashFlow    float64      `json:"beforeTaxCashFlow"`
	CumulativeCashFlow   float64      `json:"cumulativeCashFlow"`
	DSCR                 *float64     `json:"dscr,omitempty"`
	DebtYield            *float64     `json:"debtYield,omitempty"`
	CapRate              *float64     `json:"capRate,omitempty"`
	CashOnCash           *float64     `json:"cashOnCash,omitempty"`
}

// ExitRecord describes the sale at the end of the final year.
type ExitRecord struct {
	ExitNOI           float64 `json:"exitNoi"`
	ExitCapRate       float64 `json:"exitCapRate"`
	GrossSalePrice    float64 `json:"grossSalePrice"`
	SellingCosts      float64 `json:"sellingCosts"`
	NetSaleProceeds   float64 `json:"netSaleProceeds"`
	LoanPayoff        float64 `json:"loanPayoff"`
	NetEquityProceeds float64 `json:"netEquityProceeds"`
}

// Summary holds the hold-period return metrics.
type Summary struct {
	EquityRequired       *float64  `json:"equityRequired,omitempty"`
	TotalCashDistributed float64   `json:"totalCashDistributed"`
	IRR                  *float64  `json:"irr,omitempty"`
	EquityMultiple       *float64  `json:"equityMultiple,omitempty"`
	AverageCashOnCash    *float64  `json:"averageCashOnCash,omitempty"`
	AverageDSCR          *float64  `json:"averageDscr,omitempty"`
	CashFlows            []float64 `json:"cashFlows,omitempty"`
}

// CashFlowProjection is the full projection output.
type CashFlowProjection struct {
	HoldPeriodYears int          `json:"holdPeriodYears"`
	Years           []YearRecord `json:"years"`
	Exit            *ExitRecord  `json:"exit,omitempty"`
	Summary         Summary      `json:"summary"`
	Warnings        []string     `json:"warnings"`
}

// Options tunes engine defaults. Zero values fall back to package constants.
type Options struct {
	// Years overrides the hold period from the inputs when positive.
	Years                  int
	DefaultHoldYears       int
	DefaultSellingCostRate *float64
	IRR                    irr.Options
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		DefaultHoldYears:       constants.DefaultHoldPeriodYears,
		DefaultSellingCostRate: mathutil.Ptr(constants.DefaultSellingCostRate),
		IRR:                    irr.DefaultOptions(),
	}
}

// ProjectDetailedCashFlows projects the deal over years (or the input hold
// period when years is not positive) using the engine defaults.
func ProjectDetailedCashFlows(in model.Inputs, years int) CashFlowProjection {
	opts := DefaultOptions()
	opts.Years = years
	return Project(in, opts)
}

// Project runs the detailed projection with explicit options.
func Project(in model.Inputs, opts Options) CashFlowProjection {
	defaultHold := opts.DefaultHoldYears
	if defaultHold <= 0 || defaultHold > constants.MaxHoldPeriodYears {
		defaultHold = constants.DefaultHoldPeriodYears
	}
	hold := opts.Years
	if hold <= 0 || hold > constants.MaxHoldPeriodYears {
		hold = model.Years(in.HoldPeriodYears, defaultHold, constants.MaxHoldPeriodYears)
	}

	proj := CashFlowProjection{
		HoldPeriodYears: hold,
		Years:           []YearRecord{},
		Warnings:        []string{},
	}

	if in.GrossPotentialRent == nil {
		proj.Warnings = append(proj.Warnings, "grossPotentialRent is required for a cash-flow projection")
		return proj
	}

	rentGrowth := mathutil.Value(in.RentGrowth, 0)
	otherIncomeGrowth := mathutil.Value(in.OtherIncomeGrowth, rentGrowth)
	expenseGrowth := mathutil.Value(in.ExpenseGrowth, rentGrowth)
	vacancy := mathutil.Value(in.VacancyRate, 0)

	baseline, split, ok := BaselineExpenses(in.Expenses)
	switch {
	case !ok:
		proj.Warnings = append(proj.Warnings, "no operating expenses supplied; expenses projected as zero")
	case split:
		proj.Warnings = append(proj.Warnings,
			"operating expense total allocated by the standard 50/25/8/12/5 category split")
	}

	schedule, debtKnown := debtSchedule(in, hold, &proj.Warnings)

	var equity *float64
	if in.PurchasePrice != nil {
		e := *in.PurchasePrice - mathutil.Value(in.LoanAmount, 0)
		equity = &e
		if e <= 0 {
			proj.Warnings = append(proj.Warnings, "equity required is not positive; IRR and multiples unavailable")
		}
	}

	var cumulative, totalCash float64
	var dscrs, btcfs []float64
	var finalNOI float64
	for year := 1; year <= hold; year++ {
		rec := projectYear(in, year, baseline, vacancy, rentGrowth, otherIncomeGrowth, expenseGrowth)
		finalNOI = rec.NetOperatingIncome

		if debtKnown {
			payment := schedule[year-1]
			rec.InterestPaid = mathutil.Dollars(payment.Interest)
			rec.PrincipalPaid = mathutil.Dollars(payment.Principal)
			rec.DebtService = mathutil.Dollars(payment.Payment())
			rec.EndingLoanBalance = mathutil.Dollars(payment.EndingBalance)
		}

		rec.BeforeTaxCashFlow = rec.NetOperatingIncome - rec.DebtService
		cumulative += rec.BeforeTaxCashFlow
		rec.CumulativeCashFlow = cumulative
		totalCash += rec.BeforeTaxCashFlow
		btcfs = append(btcfs, rec.BeforeTaxCashFlow)

		if rec.DebtService > 0 {
			rec.DSCR = mathutil.RoundPtr(mathutil.Div(rec.NetOperatingIncome, rec.DebtService), mathutil.Rate)
			if rec.DSCR != nil {
				dscrs = append(dscrs, *rec.DSCR)
			}
		}
		if in.LoanAmount != nil {
			rec.DebtYield = mathutil.RoundPtr(mathutil.Div(rec.NetOperatingIncome, *in.LoanAmount), mathutil.Rate)
		}
		if in.PurchasePrice != nil {
			rec.CapRate = mathutil.RoundPtr(mathutil.Div(rec.NetOperatingIncome, *in.PurchasePrice), mathutil.Rate)
		}
		if mathutil.Positive(equity) {
			rec.CashOnCash = mathutil.RoundPtr(mathutil.Div(rec.BeforeTaxCashFlow, *equity), mathutil.Rate)
		}
		proj.Years = append(proj.Years, rec)
	}

	proj.Summary.TotalCashDistributed = mathutil.Dollars(totalCash)
	if avg, ok := mathutil.Mean(dscrs); ok {
		proj.Summary.AverageDSCR = mathutil.Ptr(mathutil.Rate(avg))
	}
	if equity != nil {
		proj.Summary.EquityRequired = mathutil.Ptr(mathutil.Dollars(*equity))
	}
	if avg, ok := mathutil.Mean(btcfs); ok && mathutil.Positive(equity) {
		proj.Summary.AverageCashOnCash = mathutil.RoundPtr(mathutil.Div(avg, *equity), mathutil.Rate)
	}

	if !mathutil.Positive(in.ExitCapRate) {
		proj.Warnings = append(proj.Warnings, "exitCapRate is required for exit proceeds, IRR and equity multiple")
		return proj
	}

	sellingCostRate := constants.DefaultSellingCostRate
	if opts.DefaultSellingCostRate != nil {
		sellingCostRate = *opts.DefaultSellingCostRate
	}
	sellingCostRate = mathutil.Value(in.SellingCostRate, sellingCostRate)

	payoff := 0.0
	switch {
	case debtKnown:
		payoff = schedule[hold-1].EndingBalance
	case in.LoanAmount != nil:
		payoff = *in.LoanAmount
	}

	exitNOI := finalNOI * (1 + rentGrowth)
	gross := exitNOI / *in.ExitCapRate
	sellingCosts := gross * sellingCostRate
	netSale := gross - sellingCosts
	exit := &ExitRecord{
		ExitNOI:         mathutil.Dollars(exitNOI),
		ExitCapRate:     mathutil.Rate(*in.ExitCapRate),
		GrossSalePrice:  mathutil.Dollars(gross),
		SellingCosts:    mathutil.Dollars(sellingCosts),
		NetSaleProceeds: mathutil.Dollars(netSale),
		LoanPayoff:      mathutil.Dollars(payoff),
	}
	exit.NetEquityProceeds = exit.NetSaleProceeds - exit.LoanPayoff
	proj.Exit = exit

	if !mathutil.Positive(equity) {
		return proj
	}

	flows := make([]float64, 0, hold+1)
	flows = append(flows, -*proj.Summary.EquityRequired)
	flows = append(flows, btcfs...)
	flows[len(flows)-1] += exit.NetEquityProceeds
	proj.Summary.CashFlows = flows
	proj.Summary.IRR = mathutil.RoundPtr(irr.SolveWithOptions(flows, opts.IRR), mathutil.Rate)
	if proj.Summary.IRR == nil {
		proj.Warnings = append(proj.Warnings, "IRR did not converge for the projected cash flows")
	}
	eq := *proj.Summary.EquityRequired
	proj.Summary.EquityMultiple = mathutil.RoundPtr(
		mathutil.Div(proj.Summary.TotalCashDistributed+exit.NetEquityProceeds+eq, eq), mathutil.Multiple)
	return proj
}

// BaselineExpenses returns the year-one expense lines. Supplied category
// values are used directly, with the operating line taking any remainder of
// a supplied total. A bare total is split 50/25/8/12/5. split reports that
// the fixed allocation was applied; ok is false when nothing was supplied.
func BaselineExpenses(e model.Expenses) (lines ExpenseLines, split bool, ok bool) {
	hasCategories := e.PropertyTaxes != nil || e.Insurance != nil || e.Management != nil ||
		e.Reserves != nil || e.OtherExpenses != nil

	if !hasCategories {
		if e.OperatingExpenses == nil {
			return ExpenseLines{}, false, false
		}
		total := *e.OperatingExpenses
		lines = ExpenseLines{
			Operating:  total * constants.OperatingShare,
			Taxes:      total * constants.TaxesShare,
			Insurance:  total * constants.InsuranceShare,
			Management: total * constants.ManagementShare,
			Reserves:   total * constants.ReservesShare,
		}
		lines.Total = lines.sum()
		return lines, true, true
	}

	lines = ExpenseLines{
		Taxes:      mathutil.Value(e.PropertyTaxes, 0),
		Insurance:  mathutil.Value(e.Insurance, 0),
		Management: mathutil.Value(e.Management, 0),
		Reserves:   mathutil.Value(e.Reserves, 0),
	}
	switch {
	case e.OtherExpenses != nil:
		lines.Operating = *e.OtherExpenses
	case e.OperatingExpenses != nil:
		lines.Operating = math.Max(0, *e.OperatingExpenses-lines.sum())
	}
	lines.Total = lines.sum()
	return lines, false, true
}

func projectYear(in model.Inputs, year int, baseline ExpenseLines, vacancy, rentGrowth, otherGrowth, expenseGrowth float64) YearRecord {
	n := float64(year - 1)
	gpr := *in.GrossPotentialRent * math.Pow(1+rentGrowth, n)
	other := mathutil.Value(in.OtherIncome, 0) * math.Pow(1+otherGrowth, n)
	vacancyLoss := gpr * vacancy
	expenses := baseline.scaled(math.Pow(1+expenseGrowth, n)).rounded()

	rec := YearRecord{
		Year:                 year,
		GrossPotentialRent:   mathutil.Dollars(gpr),
		VacancyLoss:          mathutil.Dollars(vacancyLoss),
		OtherIncome:          mathutil.Dollars(other),
		EffectiveGrossIncome: mathutil.Dollars(gpr - vacancyLoss + other),
		Expenses:             expenses,
	}
	rec.NetOperatingIncome = rec.EffectiveGrossIncome - rec.Expenses.Total
	return rec
}

// debtSchedule computes the amortization schedule once for the whole hold.
func debtSchedule(in model.Inputs, hold int, warnings *[]string) ([]loans.YearPayment, bool) {
	if in.LoanAmount == nil {
		return nil, false
	}
	if in.InterestRate == nil {
		*warnings = append(*warnings, "interestRate missing; debt service excluded from the projection")
		return nil, false
	}
	if term := model.Years(in.LoanTermYears, 0, constants.MaxAmortizationYears); term > 0 && hold > term {
		*warnings = append(*warnings, fmt.Sprintf(
			"hold period of %d years exceeds the %d year loan term; refinancing is not modeled", hold, term))
	}
	schedule := loans.ComputeAmortizationSchedule(*in.LoanAmount, *in.InterestRate,
		model.Years(in.AmortizationYears, constants.DefaultAmortizationYears, constants.MaxAmortizationYears),
		model.Years(in.InterestOnlyYears, 0, constants.MaxHoldPeriodYears), hold)
	return schedule, len(schedule) == hold
}
