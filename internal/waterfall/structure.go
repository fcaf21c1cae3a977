package waterfall

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
)

// HurdleType selects how promote tier hurdles are measured.
type HurdleType string

const (
	// HurdleIRR measures hurdles as the LP's cumulative IRR.
	HurdleIRR HurdleType = "irr"
	// HurdleMultiple measures hurdles as the LP's cumulative equity multiple.
	HurdleMultiple HurdleType = "multiple"
)

// Tier is one promote band. The LP/GP split applies until the LP reaches
// Hurdle. A nil Hurdle marks the unbounded catch-all tier.
type Tier struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Hurdle  *float64 `json:"hurdle,omitempty" yaml:"hurdle,omitempty" mapstructure:"hurdle"`
	LPSplit float64  `json:"lpSplit" yaml:"lpSplit" mapstructure:"lpSplit"`
	GPSplit float64  `json:"gpSplit" yaml:"gpSplit" mapstructure:"gpSplit"`
}

// ShareClass is an LP class with its own capital and preferred return.
// Lower Priority values are senior.
type ShareClass struct {
	Name            string   `json:"name" yaml:"name" mapstructure:"name"`
	Capital         float64  `json:"capital" yaml:"capital" mapstructure:"capital"`
	PreferredReturn *float64 `json:"preferredReturn,omitempty" yaml:"preferredReturn,omitempty" mapstructure:"preferredReturn"`
	Priority        int      `json:"priority" yaml:"priority" mapstructure:"priority"`
}

// Structure describes how distributable cash is shared between LP and GP.
type Structure struct {
	LPEquity        float64      `json:"lpEquity" yaml:"lpEquity" mapstructure:"lpEquity"`
	GPEquity        float64      `json:"gpEquity" yaml:"gpEquity" mapstructure:"gpEquity"`
	PreferredReturn float64      `json:"preferredReturn" yaml:"preferredReturn" mapstructure:"preferredReturn"`
	HurdleType      HurdleType   `json:"hurdleType,omitempty" yaml:"hurdleType,omitempty" mapstructure:"hurdleType"`
	Tiers           []Tier       `json:"tiers,omitempty" yaml:"tiers,omitempty" mapstructure:"tiers"`
	CatchUp         bool         `json:"catchUp" yaml:"catchUp" mapstructure:"catchUp"`
	CatchUpPercent  float64      `json:"catchUpPercent,omitempty" yaml:"catchUpPercent,omitempty" mapstructure:"catchUpPercent"`
	UseClassTerms   bool         `json:"useClassTerms" yaml:"useClassTerms" mapstructure:"useClassTerms"`
	Classes         []ShareClass `json:"classes,omitempty" yaml:"classes,omitempty" mapstructure:"classes"`
}

// ValidationError reports a structure or input that cannot be run.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// band is a validated tier with an upper bound on the LP hurdle.
type band struct {
	name      string
	hurdle    float64
	unbounded bool
	lpSplit   float64
	gpSplit   float64
}

// Validate checks the structure without running it.
func (s Structure) Validate() error {
	_, _, err := s.normalize()
	return err
}

// normalize validates the structure and returns its tiers sorted by hurdle
// with the last one unbounded. reordered reports that input order was changed.
func (s Structure) normalize() (bands []band, reordered bool, err error) {
	if !finite(s.LPEquity) || s.LPEquity <= 0 {
		return nil, false, invalid("lpEquity", "must be positive")
	}
	if !finite(s.GPEquity) || s.GPEquity < 0 {
		return nil, false, invalid("gpEquity", "must not be negative")
	}
	if !finite(s.PreferredReturn) || s.PreferredReturn < 0 {
		return nil, false, invalid("preferredReturn", "must not be negative")
	}
	switch s.HurdleType {
	case "", HurdleIRR, HurdleMultiple:
	default:
		return nil, false, invalid("hurdleType", "unknown hurdle type %q", s.HurdleType)
	}
	if s.CatchUp && (s.CatchUpPercent <= 0 || s.CatchUpPercent >= 1) {
		return nil, false, invalid("catchUpPercent", "must be between 0 and 1 when catch-up is enabled")
	}
	if err := s.validateClasses(); err != nil {
		return nil, false, err
	}

	unboundedCount := 0
	for i, t := range s.Tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if !finite(t.LPSplit) || !finite(t.GPSplit) || t.LPSplit < 0 || t.GPSplit < 0 {
			return nil, false, invalid(field, "splits must be between 0 and 1")
		}
		if !mathutil.WithinTolerance(t.LPSplit+t.GPSplit, 1, constants.SplitTolerance) {
			return nil, false, invalid(field, "lpSplit and gpSplit sum to %.4f, expected 1", t.LPSplit+t.GPSplit)
		}
		if t.Hurdle == nil {
			unboundedCount++
			continue
		}
		if !finite(*t.Hurdle) || *t.Hurdle < 0 {
			return nil, false, invalid(field, "hurdle must not be negative")
		}
	}
	if unboundedCount > 1 {
		return nil, false, invalid("tiers", "only one tier may omit its hurdle")
	}

	bands = make([]band, len(s.Tiers))
	for i, t := range s.Tiers {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Tier %d", i+1)
		}
		bands[i] = band{name: name, lpSplit: t.LPSplit, gpSplit: t.GPSplit, unbounded: t.Hurdle == nil}
		if t.Hurdle != nil {
			bands[i].hurdle = *t.Hurdle
		}
	}
	reordered = !sort.SliceIsSorted(bands, func(i, j int) bool { return bandLess(bands[i], bands[j]) })
	sort.SliceStable(bands, func(i, j int) bool { return bandLess(bands[i], bands[j]) })
	if len(bands) > 0 {
		bands[len(bands)-1].unbounded = true
	}

	for i := 1; i < len(bands); i++ {
		if bands[i].gpSplit < bands[i-1].gpSplit-constants.SplitTolerance {
			return nil, false, invalid("tiers", "GP split decreases from %.2f to %.2f at %s",
				bands[i-1].gpSplit, bands[i].gpSplit, bands[i].name)
		}
	}
	return bands, reordered, nil
}

func (s Structure) validateClasses() error {
	if !s.UseClassTerms {
		return nil
	}
	if len(s.Classes) == 0 {
		return invalid("classes", "at least one share class is required when class terms are used")
	}
	seen := make(map[string]bool, len(s.Classes))
	total := 0.0
	for i, c := range s.Classes {
		field := fmt.Sprintf("classes[%d]", i)
		if c.Name == "" {
			return invalid(field, "name is required")
		}
		if seen[c.Name] {
			return invalid(field, "duplicate class name %q", c.Name)
		}
		seen[c.Name] = true
		if !finite(c.Capital) || c.Capital <= 0 {
			return invalid(field, "capital must be positive")
		}
		if c.PreferredReturn != nil && (!finite(*c.PreferredReturn) || *c.PreferredReturn < 0) {
			return invalid(field, "preferredReturn must not be negative")
		}
		total += c.Capital
	}
	if !mathutil.WithinTolerance(total, s.LPEquity, constants.CurrencyTolerance) {
		return invalid("classes", "class capital totals %.2f but lpEquity is %.2f", total, s.LPEquity)
	}
	return nil
}

func (s Structure) hurdleType() HurdleType {
	if s.HurdleType == "" {
		return HurdleIRR
	}
	return s.HurdleType
}

func bandLess(a, b band) bool {
	if a.unbounded != b.unbounded {
		return b.unbounded
	}
	return a.hurdle < b.hurdle
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
