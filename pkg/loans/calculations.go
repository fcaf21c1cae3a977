// Package loans provides debt service and amortization schedule calculations.
//
// Rates are decimal fractions (0.065 for 6.5%). Schedules are reported per year
// but always accrue interest monthly so they line up with a standard monthly
// amortization table.
package loans

import (
	"math"

	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
)

// DebtService holds the payment figures for a loan. Fields are nil when the
// loan inputs were incomplete.
type DebtService struct {
	AnnualDebtService *float64 `json:"annualDebtService,omitempty"`
	MonthlyPayment    *float64 `json:"monthlyPayment,omitempty"`
	IsInterestOnly    bool     `json:"isInterestOnly"`
}

// YearPayment holds one year of an amortization schedule.
type YearPayment struct {
	Year             int     `json:"year"`
	BeginningBalance float64 `json:"beginningBalance"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	EndingBalance    float64 `json:"endingBalance"`
	InterestOnly     bool    `json:"interestOnly"`
}

// Payment is the total debt service paid during the year.
func (p YearPayment) Payment() float64 {
	return p.Interest + p.Principal
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / constants.MonthsPerYear
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return principal * periodicInterestRate * power / (power - 1.00)
}

// CalculateInterestPayment calculates the interest portion of a monthly payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / constants.MonthsPerYear
}

// ComputeDebtService returns the annual and monthly debt service for a loan.
// Missing principal or rate yields an empty DebtService. Any interest-only
// window makes the quoted debt service interest only.
func ComputeDebtService(principal, annualRate *float64, amortizationYears, interestOnlyYears int) DebtService {
	if principal == nil || annualRate == nil {
		return DebtService{}
	}

	if interestOnlyYears > 0 {
		annual := *principal * *annualRate
		return DebtService{
			AnnualDebtService: mathutil.Ptr(annual),
			MonthlyPayment:    mathutil.Ptr(annual / constants.MonthsPerYear),
			IsInterestOnly:    true,
		}
	}

	monthly := CalculateMonthlyPayment(*principal, *annualRate, termMonths(amortizationYears))
	return DebtService{
		AnnualDebtService: mathutil.Ptr(monthly * constants.MonthsPerYear),
		MonthlyPayment:    mathutil.Ptr(monthly),
	}
}

// ComputeAmortizationSchedule produces holdYears yearly records. Years inside
// the interest-only window pay interest on the unchanged balance; later years
// apply twelve amortizing monthly payments sized on the balance remaining when
// amortization starts.
func ComputeAmortizationSchedule(principal, annualRate float64, amortizationYears, interestOnlyYears, holdYears int) []YearPayment {
	if holdYears <= 0 {
		return nil
	}
	if holdYears > constants.MaxHoldPeriodYears {
		holdYears = constants.MaxHoldPeriodYears
	}

	schedule := make([]YearPayment, 0, holdYears)
	balance := principal
	months := termMonths(amortizationYears)
	var monthlyPayment float64
	paymentSized := false

	for year := 1; year <= holdYears; year++ {
		record := YearPayment{Year: year, BeginningBalance: balance}

		if year <= interestOnlyYears {
			record.Interest = balance * annualRate
			record.EndingBalance = balance
			record.InterestOnly = true
			schedule = append(schedule, record)
			continue
		}

		if !paymentSized {
			monthlyPayment = CalculateMonthlyPayment(balance, annualRate, months)
			paymentSized = true
		}

		for month := 0; month < constants.MonthsPerYear && balance > 0; month++ {
			interest := CalculateInterestPayment(balance, annualRate)
			principalPaid := monthlyPayment - interest
			if principalPaid > balance || mathutil.IsZero(balance-principalPaid) {
				// We will get machine error otherwise so just pay off the balance.
				principalPaid = balance
			}
			record.Interest += interest
			record.Principal += principalPaid
			balance -= principalPaid
		}

		record.EndingBalance = record.BeginningBalance - record.Principal
		balance = record.EndingBalance
		schedule = append(schedule, record)
	}

	return schedule
}

// BalanceAfter returns the ending balance of the given year, or the original
// principal when the schedule does not reach that year.
func BalanceAfter(schedule []YearPayment, year int, principal float64) float64 {
	if year <= 0 || len(schedule) == 0 {
		return principal
	}
	if year > len(schedule) {
		return schedule[len(schedule)-1].EndingBalance
	}
	return schedule[year-1].EndingBalance
}

func termMonths(amortizationYears int) int {
	if amortizationYears <= 0 || amortizationYears > constants.MaxAmortizationYears {
		amortizationYears = constants.DefaultAmortizationYears
	}
	return amortizationYears * constants.MonthsPerYear
}
