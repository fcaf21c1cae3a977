package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/cre-underwriter/internal/projection"
	"github.com/iwvelando/cre-underwriter/internal/sector"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/underwriting"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/iwvelando/cre-underwriter/pkg/optimization"
)

var metricHeader = []string{"Metric", "Value"}

// Underwriting renders a single-period underwriting result.
func Underwriting(w io.Writer, outputFormat string, res underwriting.Result) error {
	var rows [][]cell
	if in := res.Income; in != nil {
		rows = append(rows,
			label("Gross potential rent", money(in.GrossPotentialRent)),
			label("Vacancy loss", money(-in.VacancyLoss)),
			label("Other income", money(in.OtherIncome)),
			label("Effective gross income", money(in.EffectiveGrossIncome)),
		)
	}
	if ex := res.Expenses; ex != nil {
		rows = append(rows,
			label("Operating expenses", money(ex.TotalOperatingExpenses)),
			label("Net operating income", moneyPtr(ex.NetOperatingIncome)),
			label("Expense ratio", rate(ex.ExpenseRatio)),
		)
	}
	if d := res.DebtMetrics; d != nil {
		rows = append(rows,
			label("Loan amount", money(d.LoanAmount)),
			label("Annual debt service", moneyPtr(d.AnnualDebtService)),
			label("DSCR", multiple(d.DSCR)),
			label("LTV", rate(d.LTV)),
			label("Debt yield", rate(d.DebtYield)),
		)
	}
	if r := res.Returns; r != nil {
		rows = append(rows,
			label("Going-in cap rate", rate(r.GoingInCapRate)),
			label("Equity required", moneyPtr(r.EquityRequired)),
			label("Cash-on-cash", rate(r.CashOnCash)),
			label("IRR", rate(r.IRR)),
			label("Equity multiple", multiple(r.EquityMultiple)),
		)
	}

	sections := []section{{title: "Underwriting", header: metricHeader, rows: rows}}
	if p := res.Projections; p != nil {
		s := section{
			title:  fmt.Sprintf("Simplified %d year projection", p.HoldPeriodYears),
			header: []string{"Year", "EGI", "Expenses", "NOI", "Debt service", "Cash flow"},
		}
		for _, y := range p.Years {
			s.rows = append(s.rows, []cell{
				integer(y.Year), money(y.EffectiveGrossIncome), money(y.OperatingExpenses),
				money(y.NetOperatingIncome), money(y.DebtService), money(y.CashFlow),
			})
		}
		sections = append(sections, s)
	}
	return render(w, outputFormat, res, sections, res.Warnings)
}

// Projection renders a detailed cash flow projection.
func Projection(w io.Writer, outputFormat string, p projection.CashFlowProjection) error {
	years := section{
		title: fmt.Sprintf("%d year projection", p.HoldPeriodYears),
		header: []string{
			"Year", "GPR", "Vacancy", "Other income", "EGI", "Expenses", "NOI",
			"Debt service", "Loan balance", "BTCF", "Cumulative", "DSCR", "Cap rate", "CoC",
		},
	}
	for _, y := range p.Years {
		years.rows = append(years.rows, []cell{
			integer(y.Year), money(y.GrossPotentialRent), money(-y.VacancyLoss), money(y.OtherIncome),
			money(y.EffectiveGrossIncome), money(y.Expenses.Total), money(y.NetOperatingIncome),
			money(y.DebtService), money(y.EndingLoanBalance), money(y.BeforeTaxCashFlow),
			money(y.CumulativeCashFlow), multiple(y.DSCR), rate(y.CapRate), rate(y.CashOnCash),
		})
	}
	sections := []section{years}

	if e := p.Exit; e != nil {
		sections = append(sections, section{title: "Exit", header: metricHeader, rows: [][]cell{
			label("Exit NOI", money(e.ExitNOI)),
			label("Exit cap rate", rateOf(e.ExitCapRate)),
			label("Gross sale price", money(e.GrossSalePrice)),
			label("Selling costs", money(-e.SellingCosts)),
			label("Net sale proceeds", money(e.NetSaleProceeds)),
			label("Loan payoff", money(-e.LoanPayoff)),
			label("Net equity proceeds", money(e.NetEquityProceeds)),
		}})
	}

	s := p.Summary
	sections = append(sections, section{title: "Returns", header: metricHeader, rows: [][]cell{
		label("Equity required", moneyPtr(s.EquityRequired)),
		label("Total cash distributed", money(s.TotalCashDistributed)),
		label("IRR", rate(s.IRR)),
		label("Equity multiple", multiple(s.EquityMultiple)),
		label("Average cash-on-cash", rate(s.AverageCashOnCash)),
		label("Average DSCR", multiple(s.AverageDSCR)),
	}})
	return render(w, outputFormat, p, sections, p.Warnings)
}

func allocationRow(name string, a waterfall.Allocation) []cell {
	return []cell{text(name), money(a.ReturnOfCapital), money(a.PreferredReturn), money(a.CatchUp), money(a.Residual), money(a.Total)}
}

// Waterfall renders a distribution run.
func Waterfall(w io.Writer, outputFormat string, res *waterfall.Result) error {
	periods := section{
		title:  "Distributions",
		header: []string{"Period", "Distributable", "LP", "GP", "LP capital outstanding", "Accrued preferred"},
	}
	for _, p := range res.Periods {
		periods.rows = append(periods.rows, []cell{
			integer(p.Period), money(p.Distributable), money(p.LP.Total), money(p.GP.Total),
			money(p.UnreturnedLPCapital), money(p.AccruedPreferred),
		})
	}

	var lp, gp waterfall.Allocation
	for _, p := range res.Periods {
		lp = addAllocation(lp, p.LP)
		gp = addAllocation(gp, p.GP)
	}
	byStep := section{
		title:  "By step",
		header: []string{"Party", "Return of capital", "Preferred", "Catch-up", "Residual", "Total"},
		rows:   [][]cell{allocationRow("LP", lp), allocationRow("GP", gp)},
	}

	parties := section{
		title:  "Partners",
		header: []string{"Party", "Contributed", "Distributed", "Profit", "IRR", "Multiple"},
		rows: [][]cell{
			partyRow("LP", res.LP),
			partyRow("GP", res.GP),
		},
	}
	for _, c := range res.Classes {
		parties.rows = append(parties.rows, partyRow("Class "+c.Name, c.PartySummary))
	}
	parties.rows = append(parties.rows, []cell{text("GP promote"), text(""), money(res.TotalPromote), text(""), text(""), text("")})

	return render(w, outputFormat, res, []section{periods, byStep, parties}, res.Warnings)
}

func addAllocation(a, b waterfall.Allocation) waterfall.Allocation {
	return waterfall.Allocation{
		ReturnOfCapital: a.ReturnOfCapital + b.ReturnOfCapital,
		PreferredReturn: a.PreferredReturn + b.PreferredReturn,
		CatchUp:         a.CatchUp + b.CatchUp,
		Residual:        a.Residual + b.Residual,
		Total:           a.Total + b.Total,
	}
}

func partyRow(name string, p waterfall.PartySummary) []cell {
	return []cell{text(name), money(p.Contributed), money(p.Distributed), money(p.Profit), rate(p.IRR), multiple(p.EquityMultiple)}
}

// SectorMetrics renders a sector metrics result.
func SectorMetrics(w io.Writer, outputFormat string, res sector.Result) error {
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	metrics := section{
		title:  fmt.Sprintf("%s metrics (%s)", res.Sector, res.Source),
		header: metricHeader,
	}
	for _, name := range names {
		metrics.rows = append(metrics.rows, label(name, numberOf(res.Metrics[name])))
	}

	sections := []section{metrics}
	if len(res.MissingFields) > 0 {
		sections = append(sections, listSection("Missing required fields", res.MissingFields))
	}
	if len(res.RiskFactors) > 0 {
		sections = append(sections, listSection("Risk factors", res.RiskFactors))
	}
	return render(w, outputFormat, res, sections, res.Warnings)
}

func listSection(title string, items []string) section {
	s := section{title: title}
	for _, item := range items {
		s.rows = append(s.rows, []cell{text(item)})
	}
	return s
}

// Sectors renders the catalog listing.
func Sectors(w io.Writer, outputFormat string, entries []sector.Entry) error {
	s := section{
		title:  "Sectors",
		header: []string{"Sector", "Name", "Primary metrics", "Required fields"},
	}
	for _, e := range entries {
		s.rows = append(s.rows, []cell{
			text(string(e.Sector)), text(e.Name),
			text(strings.Join(e.PrimaryMetrics, ", ")), text(strings.Join(e.RequiredFields, ", ")),
		})
	}
	return render(w, outputFormat, entries, []section{s}, nil)
}

// Grid renders a sensitivity grid with rows and columns labelled by their
// parameter values.
func Grid(w io.Writer, outputFormat string, g *sensitivity.GridResult) error {
	header := []string{g.RowParam}
	if g.ColParam == "" {
		header = append(header, string(g.Metric))
	} else {
		for _, v := range g.ColValues {
			header = append(header, fmt.Sprintf("%s=%s", g.ColParam, sensitivity.DisplayValue(g.ColParam, v)))
		}
	}

	s := section{
		title:  fmt.Sprintf("%s sensitivity (%s engine)", g.Metric, g.Engine),
		header: header,
	}
	for i, row := range g.Values {
		cells := []cell{text(sensitivity.DisplayValue(g.RowParam, g.RowValues[i]))}
		for _, v := range row {
			cells = append(cells, metricCell(g.Metric, v))
		}
		s.rows = append(s.rows, cells)
	}

	var notes []string
	if g.Baseline != nil {
		notes = append(notes, fmt.Sprintf("baseline %s: %s", g.Metric, metricCell(g.Metric, g.Baseline).pretty()))
	}
	return render(w, outputFormat, g, []section{s}, notes)
}

func metricCell(m sensitivity.Metric, v *float64) cell {
	switch m {
	case sensitivity.MetricIRR, sensitivity.MetricCashOnCash, sensitivity.MetricCapRate,
		sensitivity.MetricLPIRR, sensitivity.MetricGPIRR:
		return rate(v)
	case sensitivity.MetricEquityMultiple, sensitivity.MetricDSCR, sensitivity.MetricLPEquityMultiple:
		return multiple(v)
	case sensitivity.MetricNOI, sensitivity.MetricTotalPromote:
		return moneyPtr(v)
	default:
		return number(v)
	}
}

var scenarioMetrics = []sensitivity.Metric{
	sensitivity.MetricNOI, sensitivity.MetricCapRate, sensitivity.MetricDSCR,
	sensitivity.MetricCashOnCash, sensitivity.MetricIRR, sensitivity.MetricEquityMultiple,
}

// Scenarios renders scenario results side by side.
func Scenarios(w io.Writer, outputFormat string, results []sensitivity.ScenarioResult) error {
	header := []string{"Scenario", "Overrides"}
	for _, m := range scenarioMetrics {
		header = append(header, string(m))
	}
	s := section{title: "Scenarios", header: header}
	for _, r := range results {
		cells := []cell{text(r.Name), text(describeOverrides(r.Overrides))}
		for _, m := range scenarioMetrics {
			cells = append(cells, metricCell(m, r.Value(m)))
		}
		s.rows = append(s.rows, cells)
	}
	return render(w, outputFormat, results, []section{s}, nil)
}

func describeOverrides(overrides map[string]float64) string {
	if len(overrides) == 0 {
		return "-"
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%s", name, sensitivity.DisplayValue(name, overrides[name]))
	}
	return strings.Join(parts, "; ")
}

// Targets renders solver summaries.
func Targets(w io.Writer, outputFormat string, summaries []optimization.Summary) error {
	s := section{
		title:  "Targets",
		header: []string{"Target", "Field", "Original", "Solved", "Metric", "Achieved", "Iterations", "Converged"},
	}
	var notes []string
	for _, sum := range summaries {
		original := sum.OriginalDisplay
		if original == "" {
			original = "-"
		}
		converged := "no"
		if sum.Converged {
			converged = "yes"
		}
		s.rows = append(s.rows, []cell{
			text(sum.TargetName), text(sum.Field), text(original), text(sum.ValueDisplay),
			text(sum.Metric), metricCell(sensitivity.Metric(sum.Metric), sum.Achieved), integer(sum.Iterations), text(converged),
		})
		for _, n := range sum.Notes {
			notes = append(notes, fmt.Sprintf("%s: %s", sum.TargetName, n))
		}
	}
	return render(w, outputFormat, summaries, []section{s}, notes)
}
