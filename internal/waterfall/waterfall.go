// Package waterfall allocates a deal's distributable cash between limited and
// general partners through return of capital, preferred return, GP catch-up
// and promote tiers.
//
// A run folds an unexported accumulator over the periods in order. The
// accumulator holds unreturned capital and accrued preferred return per
// capital account and is discarded once the summary is built, so
// CalculateWaterfall has no state between calls.
package waterfall

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/format"
	"github.com/iwvelando/cre-underwriter/pkg/irr"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
)

// Options tunes a run.
type Options struct {
	IRR irr.Options
	// RunID labels the run. A random UUID is used when empty.
	RunID string
}

// Allocation is one party's distribution by stage.
type Allocation struct {
	ReturnOfCapital float64 `json:"returnOfCapital"`
	PreferredReturn float64 `json:"preferredReturn"`
	CatchUp         float64 `json:"catchUp"`
	Residual        float64 `json:"residual"`
	Total           float64 `json:"total"`
}

func (a *Allocation) add(k stage, amount float64) {
	switch k {
	case stageCapital:
		a.ReturnOfCapital += amount
	case stagePreferred:
		a.PreferredReturn += amount
	case stageCatchUp:
		a.CatchUp += amount
	case stageResidual:
		a.Residual += amount
	}
	a.Total += amount
}

// TierAllocation is the cash a promote tier consumed in one period.
type TierAllocation struct {
	Tier string  `json:"tier"`
	LP   float64 `json:"lp"`
	GP   float64 `json:"gp"`
}

// ClassAllocation is one share class's distribution in one period.
type ClassAllocation struct {
	Class string `json:"class"`
	Allocation
}

// PeriodDistribution is the breakdown of one period's cash.
type PeriodDistribution struct {
	Period              int               `json:"period"`
	Distributable       float64           `json:"distributable"`
	LP                  Allocation        `json:"lp"`
	GP                  Allocation        `json:"gp"`
	Tiers               []TierAllocation  `json:"tiers,omitempty"`
	Classes             []ClassAllocation `json:"classes,omitempty"`
	UnreturnedLPCapital float64           `json:"unreturnedLpCapital"`
	UnreturnedGPCapital float64           `json:"unreturnedGpCapital"`
	AccruedPreferred    float64           `json:"accruedPreferred"`
}

// PartySummary totals one capital account over the run.
type PartySummary struct {
	Contributed    float64  `json:"contributed"`
	Distributed    float64  `json:"distributed"`
	Profit         float64  `json:"profit"`
	IRR            *float64 `json:"irr,omitempty"`
	EquityMultiple *float64 `json:"equityMultiple,omitempty"`
}

// ClassSummary totals one share class.
type ClassSummary struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	PartySummary
}

// Result is the output of a waterfall run.
type Result struct {
	RunID      string               `json:"runId"`
	HurdleType HurdleType           `json:"hurdleType"`
	Periods    []PeriodDistribution `json:"periods"`
	LP         PartySummary         `json:"lp"`
	GP         PartySummary         `json:"gp"`
	// TotalPromote is the GP's catch-up plus its share of promote tier cash.
	TotalPromote float64        `json:"totalPromote"`
	Classes      []ClassSummary `json:"classes,omitempty"`
	Warnings     []string       `json:"warnings"`
}

type stage int

const (
	stageCapital stage = iota
	stagePreferred
	stageCatchUp
	stageResidual
)

const epsilon = 1e-9

// account is one capital account: an LP share class, the LP as a whole, or the GP.
type account struct {
	name       string
	priority   int
	gp         bool
	class      int
	capital    float64
	unreturned float64
	accrued    float64
	rate       float64
	flows      []float64
}

// run is the accumulator threaded through the periods.
type run struct {
	structure     Structure
	bands         []band
	hurdle        HurdleType
	groups        [][]*account
	lps           []*account
	gp            *account
	lpFlows       []float64
	lpDistributed float64
	lpProfit      float64
	gpProfit      float64
	promote       float64
}

// CalculateWaterfall runs the structure over cashFlows, where cashFlows[t] is
// the cash available at period t and capital is contributed at period 0.
// Non-positive periods distribute nothing. An invalid structure or empty cash
// flows return a *ValidationError.
func CalculateWaterfall(cashFlows []float64, s Structure, opts Options) (*Result, error) {
	if len(cashFlows) == 0 {
		return nil, invalid("cashFlows", "at least one period is required")
	}
	for i, cf := range cashFlows {
		if !finite(cf) {
			return nil, invalid(fmt.Sprintf("cashFlows[%d]", i), "must be finite")
		}
	}
	bands, reordered, err := s.normalize()
	if err != nil {
		return nil, err
	}

	if opts.IRR == (irr.Options{}) {
		opts.IRR = irr.DefaultOptions()
	}

	r := newRun(s, bands)
	res := &Result{
		RunID:      opts.RunID,
		HurdleType: r.hurdle,
		Periods:    make([]PeriodDistribution, 0, len(cashFlows)),
		Warnings:   []string{},
	}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	if reordered {
		res.Warnings = append(res.Warnings, "promote tiers were reordered by ascending hurdle")
	}

	for t, cash := range cashFlows {
		res.Periods = append(res.Periods, r.step(t, cash))
	}

	r.summarize(res, opts.IRR)
	return res, nil
}

func newRun(s Structure, bands []band) *run {
	r := &run{
		structure: s,
		bands:     bands,
		hurdle:    s.hurdleType(),
		gp: &account{
			name:       "GP",
			gp:         true,
			class:      -1,
			capital:    s.GPEquity,
			unreturned: s.GPEquity,
			rate:       s.PreferredReturn,
		},
	}

	if s.UseClassTerms {
		classes := make([]ShareClass, len(s.Classes))
		copy(classes, s.Classes)
		sort.SliceStable(classes, func(i, j int) bool { return classes[i].Priority < classes[j].Priority })
		for i, c := range classes {
			a := &account{
				name:       c.Name,
				priority:   c.Priority,
				class:      i,
				capital:    c.Capital,
				unreturned: c.Capital,
				rate:       mathutil.Value(c.PreferredReturn, s.PreferredReturn),
			}
			r.lps = append(r.lps, a)
			r.groups = append(r.groups, []*account{a})
		}
		// GP co-invest is junior to every class.
		r.groups = append(r.groups, []*account{r.gp})
	} else {
		lp := &account{
			name:       "LP",
			class:      -1,
			capital:    s.LPEquity,
			unreturned: s.LPEquity,
			rate:       s.PreferredReturn,
		}
		r.lps = []*account{lp}
		r.groups = [][]*account{{lp, r.gp}}
	}
	return r
}

// step distributes one period's cash in priority order.
func (r *run) step(t int, cash float64) PeriodDistribution {
	if t > 0 {
		r.accrue()
	}
	r.open(t)

	pd := PeriodDistribution{Period: t, Distributable: math.Max(cash, 0)}
	if r.structure.UseClassTerms {
		pd.Classes = make([]ClassAllocation, len(r.lps))
		for i, a := range r.lps {
			pd.Classes[i].Class = a.name
		}
	}

	remaining := pd.Distributable
	for _, group := range r.groups {
		remaining = r.returnCapital(group, remaining, t, &pd)
		remaining = r.payPreferred(group, remaining, t, &pd)
	}
	if r.structure.CatchUp {
		remaining = r.payCatchUp(remaining, t, &pd)
	}
	r.payResidual(remaining, t, &pd)

	for _, a := range r.lps {
		pd.UnreturnedLPCapital += a.unreturned
		pd.AccruedPreferred += a.accrued
	}
	pd.UnreturnedGPCapital = r.gp.unreturned
	pd.AccruedPreferred += r.gp.accrued
	return pd
}

// accrue compounds the preferred return on unreturned capital and unpaid
// preferred carried from the previous period.
func (r *run) accrue() {
	for _, a := range r.accounts() {
		a.accrued += a.rate * (a.unreturned + a.accrued)
	}
}

func (r *run) open(t int) {
	for _, a := range r.accounts() {
		for len(a.flows) <= t {
			a.flows = append(a.flows, 0)
		}
		if t == 0 {
			a.flows[0] -= a.capital
		}
	}
	for len(r.lpFlows) <= t {
		r.lpFlows = append(r.lpFlows, 0)
	}
	if t == 0 {
		r.lpFlows[0] -= r.structure.LPEquity
	}
}

func (r *run) accounts() []*account {
	out := make([]*account, 0, len(r.lps)+1)
	out = append(out, r.lps...)
	return append(out, r.gp)
}

func (r *run) returnCapital(group []*account, cash float64, t int, pd *PeriodDistribution) float64 {
	owed := 0.0
	for _, a := range group {
		owed += a.unreturned
	}
	if cash <= epsilon || owed <= epsilon {
		return cash
	}
	paid := math.Min(cash, owed)
	for _, a := range group {
		amount := paid * a.unreturned / owed
		a.unreturned -= amount
		if a.unreturned < epsilon {
			a.unreturned = 0
		}
		r.pay(a, stageCapital, amount, t, pd)
	}
	return cash - paid
}

func (r *run) payPreferred(group []*account, cash float64, t int, pd *PeriodDistribution) float64 {
	owed := 0.0
	for _, a := range group {
		owed += a.accrued
	}
	if cash <= epsilon || owed <= epsilon {
		return cash
	}
	paid := math.Min(cash, owed)
	for _, a := range group {
		amount := paid * a.accrued / owed
		a.accrued -= amount
		if a.accrued < epsilon {
			a.accrued = 0
		}
		r.pay(a, stagePreferred, amount, t, pd)
	}
	return cash - paid
}

// payCatchUp pays the GP until its share of all profit distributed so far
// reaches the catch-up percentage.
func (r *run) payCatchUp(cash float64, t int, pd *PeriodDistribution) float64 {
	if cash <= epsilon {
		return cash
	}
	c := r.structure.CatchUpPercent
	target := (c*(r.lpProfit+r.gpProfit) - r.gpProfit) / (1 - c)
	if target <= epsilon {
		return cash
	}
	paid := math.Min(cash, target)
	r.pay(r.gp, stageCatchUp, paid, t, pd)
	return cash - paid
}

func (r *run) payResidual(cash float64, t int, pd *PeriodDistribution) {
	if cash <= epsilon {
		return
	}
	if len(r.bands) == 0 {
		lpShare := r.structure.LPEquity / (r.structure.LPEquity + r.structure.GPEquity)
		r.split(cash, lpShare, t, pd)
		return
	}

	for _, b := range r.bands {
		if cash <= epsilon {
			break
		}
		alloc := cash
		if !b.unbounded {
			needed := r.lpShortfall(b.hurdle, t)
			if needed <= epsilon {
				continue
			}
			if b.lpSplit > 0 {
				alloc = math.Min(cash, needed/b.lpSplit)
			}
		}
		lpAmount, gpAmount := r.split(alloc, b.lpSplit, t, pd)
		pd.Tiers = append(pd.Tiers, TierAllocation{Tier: b.name, LP: lpAmount, GP: gpAmount})
		cash -= alloc
	}
}

// split pays amount with lpShare to the LP accounts pro rata to capital and
// the rest to the GP.
func (r *run) split(amount, lpShare float64, t int, pd *PeriodDistribution) (float64, float64) {
	lpAmount := amount * lpShare
	gpAmount := amount - lpAmount
	for _, a := range r.lps {
		r.pay(a, stageResidual, lpAmount*a.capital/r.structure.LPEquity, t, pd)
	}
	r.pay(r.gp, stageResidual, gpAmount, t, pd)
	return lpAmount, gpAmount
}

// lpShortfall is the further LP distribution needed at period t for the LP
// to reach the hurdle.
func (r *run) lpShortfall(hurdle float64, t int) float64 {
	if r.hurdle == HurdleMultiple {
		return hurdle*r.structure.LPEquity - r.lpDistributed
	}
	return -irr.NPV(hurdle, r.lpFlows[:t+1]) * math.Pow(1+hurdle, float64(t))
}

func (r *run) pay(a *account, k stage, amount float64, t int, pd *PeriodDistribution) {
	if amount <= 0 {
		return
	}
	a.flows[t] += amount
	if a.gp {
		pd.GP.add(k, amount)
		if k != stageCapital {
			r.gpProfit += amount
		}
		if k == stageCatchUp || (k == stageResidual && len(r.bands) > 0) {
			r.promote += amount
		}
		return
	}

	pd.LP.add(k, amount)
	if a.class >= 0 && pd.Classes != nil {
		pd.Classes[a.class].add(k, amount)
	}
	r.lpFlows[t] += amount
	r.lpDistributed += amount
	if k != stageCapital {
		r.lpProfit += amount
	}
}

func (r *run) summarize(res *Result, opts irr.Options) {
	res.LP = partySummary(r.structure.LPEquity, r.lpFlows, opts)
	res.GP = partySummary(r.structure.GPEquity, r.gp.flows, opts)
	res.TotalPromote = mathutil.Cents(r.promote)

	if r.structure.UseClassTerms {
		for _, a := range r.lps {
			res.Classes = append(res.Classes, ClassSummary{
				Name:         a.name,
				Priority:     a.priority,
				PartySummary: partySummary(a.capital, a.flows, opts),
			})
		}
	}

	last := res.Periods[len(res.Periods)-1]
	if last.UnreturnedLPCapital > constants.CurrencyTolerance {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"LP capital of %s was not returned by the final period", format.Currency(last.UnreturnedLPCapital)))
	}
	if last.AccruedPreferred > constants.CurrencyTolerance {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"accrued preferred return of %s remains unpaid", format.Currency(last.AccruedPreferred)))
	}
}

func partySummary(contributed float64, flows []float64, opts irr.Options) PartySummary {
	distributed := contributed
	for _, f := range flows {
		distributed += f
	}
	return PartySummary{
		Contributed:    mathutil.Cents(contributed),
		Distributed:    mathutil.Cents(distributed),
		Profit:         mathutil.Cents(distributed - contributed),
		IRR:            mathutil.RoundPtr(irr.SolveWithOptions(flows, opts), mathutil.Rate),
		EquityMultiple: mathutil.RoundPtr(mathutil.Div(distributed, contributed), mathutil.Multiple),
	}
}
