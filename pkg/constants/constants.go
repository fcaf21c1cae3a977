// Package constants provides shared constants for the cre-underwriter application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is used for per-night hospitality metrics
	DaysPerYear = 365

	// DefaultAmortizationYears applies when a loan has no amortization period
	DefaultAmortizationYears = 30

	// DefaultHoldPeriodYears applies when neither the caller nor the inputs give a hold period
	DefaultHoldPeriodYears = 5

	// DefaultSellingCostRate is the share of the gross sale price lost to selling costs
	DefaultSellingCostRate = 0.02

	// MaxHoldPeriodYears bounds hold periods and interest-only windows
	MaxHoldPeriodYears = 100

	// MaxAmortizationYears bounds amortization periods and loan terms
	MaxAmortizationYears = 50
)

// Lump operating expense allocation used when only a total is known. These
// proportions must stay fixed so projections match historical output.
const (
	OperatingShare  = 0.50
	TaxesShare      = 0.25
	InsuranceShare  = 0.08
	ManagementShare = 0.12
	ReservesShare   = 0.05
)

// Lender thresholds used for advisory warnings
const (
	// LenderMinimumDSCR is the typical lender minimum debt service coverage
	LenderMinimumDSCR = 1.25

	// BreakEvenDSCR marks negative leverage
	BreakEvenDSCR = 1.0

	// MaximumLTV is the typical maximum loan-to-value
	MaximumLTV = 0.80
)

// IRR solver defaults
const (
	DefaultIRRGuess         = 0.10
	DefaultIRRTolerance     = 1e-4
	DefaultIRRMaxIterations = 100

	// IRRLowerBound and IRRUpperBound bound the rate before the solver gives up
	IRRLowerBound = -0.99
	IRRUpperBound = 10.0
)

// Rounding precision for published results
const (
	MoneyPlaces    = 0
	RatePlaces     = 4
	MultiplePlaces = 2
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "cre-underwriter.yaml"

	// EnvPrefix prefixes environment overrides, e.g. CRE_LOGGING_LEVEL
	EnvPrefix = "CRE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Sensitivity defaults
const (
	// DefaultGridWorkers bounds concurrent grid cell evaluations
	DefaultGridWorkers = 4

	// DefaultSolverTolerance is the bisection stopping width as a fraction
	// of the search interval
	DefaultSolverTolerance = 1e-6

	// DefaultSolverMaxIterations bounds the bisection loop
	DefaultSolverMaxIterations = 60
)

// Validation constants
const (
	// SplitTolerance is the tolerance for LP/GP split pairs summing to one
	SplitTolerance = 1e-6

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)
