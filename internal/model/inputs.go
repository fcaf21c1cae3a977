// Package model defines the deal input snapshot consumed by every calculator.
//
// All fields are optional. A calculator derives whatever its available inputs
// support and leaves the rest nil, so fields must never be made mandatory here.
// The groups are embedded so the wire format stays a flat record.
package model

import (
	"fmt"
	"math"
	"sort"
)

// Acquisition holds the purchase terms.
type Acquisition struct {
	PurchasePrice *float64 `json:"purchasePrice,omitempty" yaml:"purchasePrice,omitempty" mapstructure:"purchasePrice"`
}

// Income holds the revenue inputs.
type Income struct {
	GrossPotentialRent *float64 `json:"grossPotentialRent,omitempty" yaml:"grossPotentialRent,omitempty" mapstructure:"grossPotentialRent"`
	VacancyRate        *float64 `json:"vacancyRate,omitempty" yaml:"vacancyRate,omitempty" mapstructure:"vacancyRate"`
	OtherIncome        *float64 `json:"otherIncome,omitempty" yaml:"otherIncome,omitempty" mapstructure:"otherIncome"`
}

// Expenses holds either a pre-summed total or individual expense lines.
type Expenses struct {
	OperatingExpenses *float64 `json:"operatingExpenses,omitempty" yaml:"operatingExpenses,omitempty" mapstructure:"operatingExpenses"`
	PropertyTaxes     *float64 `json:"propertyTaxes,omitempty" yaml:"propertyTaxes,omitempty" mapstructure:"propertyTaxes"`
	Insurance         *float64 `json:"insurance,omitempty" yaml:"insurance,omitempty" mapstructure:"insurance"`
	Management        *float64 `json:"management,omitempty" yaml:"management,omitempty" mapstructure:"management"`
	Reserves          *float64 `json:"reserves,omitempty" yaml:"reserves,omitempty" mapstructure:"reserves"`
	// OtherExpenses covers repairs, utilities, payroll and administration.
	OtherExpenses *float64 `json:"otherExpenses,omitempty" yaml:"otherExpenses,omitempty" mapstructure:"otherExpenses"`
}

// Debt holds the senior loan terms.
type Debt struct {
	LoanAmount        *float64 `json:"loanAmount,omitempty" yaml:"loanAmount,omitempty" mapstructure:"loanAmount"`
	InterestRate      *float64 `json:"interestRate,omitempty" yaml:"interestRate,omitempty" mapstructure:"interestRate"`
	AmortizationYears *float64 `json:"amortizationYears,omitempty" yaml:"amortizationYears,omitempty" mapstructure:"amortizationYears"`
	LoanTermYears     *float64 `json:"loanTermYears,omitempty" yaml:"loanTermYears,omitempty" mapstructure:"loanTermYears"`
	InterestOnlyYears *float64 `json:"interestOnlyYears,omitempty" yaml:"interestOnlyYears,omitempty" mapstructure:"interestOnlyYears"`
}

// Assumptions holds growth, hold and exit assumptions.
type Assumptions struct {
	ExitCapRate       *float64 `json:"exitCapRate,omitempty" yaml:"exitCapRate,omitempty" mapstructure:"exitCapRate"`
	HoldPeriodYears   *float64 `json:"holdPeriodYears,omitempty" yaml:"holdPeriodYears,omitempty" mapstructure:"holdPeriodYears"`
	RentGrowth        *float64 `json:"rentGrowth,omitempty" yaml:"rentGrowth,omitempty" mapstructure:"rentGrowth"`
	ExpenseGrowth     *float64 `json:"expenseGrowth,omitempty" yaml:"expenseGrowth,omitempty" mapstructure:"expenseGrowth"`
	OtherIncomeGrowth *float64 `json:"otherIncomeGrowth,omitempty" yaml:"otherIncomeGrowth,omitempty" mapstructure:"otherIncomeGrowth"`
	SellingCostRate   *float64 `json:"sellingCostRate,omitempty" yaml:"sellingCostRate,omitempty" mapstructure:"sellingCostRate"`
}

// Inputs is one deal's model snapshot.
type Inputs struct {
	Acquisition `yaml:",inline" mapstructure:",squash"`
	Income      `yaml:",inline" mapstructure:",squash"`
	Expenses    `yaml:",inline" mapstructure:",squash"`
	Debt        `yaml:",inline" mapstructure:",squash"`
	Assumptions `yaml:",inline" mapstructure:",squash"`
}

// fields maps wire names to their storage so overrides can address any input.
var fields = map[string]func(*Inputs) **float64{
	"purchasePrice":      func(in *Inputs) **float64 { return &in.PurchasePrice },
	"grossPotentialRent": func(in *Inputs) **float64 { return &in.GrossPotentialRent },
	"vacancyRate":        func(in *Inputs) **float64 { return &in.VacancyRate },
	"otherIncome":        func(in *Inputs) **float64 { return &in.OtherIncome },
	"operatingExpenses":  func(in *Inputs) **float64 { return &in.OperatingExpenses },
	"propertyTaxes":      func(in *Inputs) **float64 { return &in.PropertyTaxes },
	"insurance":          func(in *Inputs) **float64 { return &in.Insurance },
	"management":         func(in *Inputs) **float64 { return &in.Management },
	"reserves":           func(in *Inputs) **float64 { return &in.Reserves },
	"otherExpenses":      func(in *Inputs) **float64 { return &in.OtherExpenses },
	"loanAmount":         func(in *Inputs) **float64 { return &in.LoanAmount },
	"interestRate":       func(in *Inputs) **float64 { return &in.InterestRate },
	"amortizationYears":  func(in *Inputs) **float64 { return &in.AmortizationYears },
	"loanTermYears":      func(in *Inputs) **float64 { return &in.LoanTermYears },
	"interestOnlyYears":  func(in *Inputs) **float64 { return &in.InterestOnlyYears },
	"exitCapRate":        func(in *Inputs) **float64 { return &in.ExitCapRate },
	"holdPeriodYears":    func(in *Inputs) **float64 { return &in.HoldPeriodYears },
	"rentGrowth":         func(in *Inputs) **float64 { return &in.RentGrowth },
	"expenseGrowth":      func(in *Inputs) **float64 { return &in.ExpenseGrowth },
	"otherIncomeGrowth":  func(in *Inputs) **float64 { return &in.OtherIncomeGrowth },
	"sellingCostRate":    func(in *Inputs) **float64 { return &in.SellingCostRate },
}

// FieldNames lists every addressable input in sorted order.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsField reports whether name addresses an input.
func IsField(name string) bool {
	_, ok := fields[name]
	return ok
}

// Get returns the named input, nil when unset.
func (in *Inputs) Get(name string) (*float64, error) {
	accessor, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown model field %q", name)
	}
	p := *accessor(in)
	if p == nil {
		return nil, nil
	}
	v := *p
	return &v, nil
}

// Set assigns the named input.
func (in *Inputs) Set(name string, value float64) error {
	accessor, ok := fields[name]
	if !ok {
		return fmt.Errorf("unknown model field %q", name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("model field %q must be finite", name)
	}
	*accessor(in) = &value
	return nil
}

// Clone returns a deep copy so callers can override fields without sharing pointers.
func (in Inputs) Clone() Inputs {
	var out Inputs
	for _, accessor := range fields {
		if p := *accessor(&in); p != nil {
			v := *p
			*accessor(&out) = &v
		}
	}
	return out
}

// WithOverrides returns a copy of the inputs with the given fields replaced.
func (in Inputs) WithOverrides(overrides map[string]float64) (Inputs, error) {
	out := in.Clone()
	for _, name := range sortedKeys(overrides) {
		if err := out.Set(name, overrides[name]); err != nil {
			return Inputs{}, err
		}
	}
	return out, nil
}

// Years converts a year-count input to an int, rounding to the nearest year.
// Values that are not positive, not finite or above max count as absent.
func Years(p *float64, fallback, max int) int {
	if p == nil || math.IsNaN(*p) || *p <= 0 {
		return fallback
	}
	years := math.Round(*p)
	if years > float64(max) {
		return fallback
	}
	return int(years)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
