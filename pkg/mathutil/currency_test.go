package mathutil

import (
	"math"
	"testing"
)

func TestCents(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round up", -1.235, -1.24},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small negative", -0.001, 0.00},
		{"Large negative", -12345.678, -12345.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Cents(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Cents(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestContractRounding(t *testing.T) {
	tests := []struct {
		name     string
		round    func(float64) float64
		input    float64
		expected float64
	}{
		{"Dollars half up", Dollars, 1234.5, 1235},
		{"Dollars below half", Dollars, 1234.49, 1234},
		{"Dollars negative half", Dollars, -1234.5, -1235},
		{"Rate four places", Rate, 0.123456, 0.1235},
		{"Rate already short", Rate, 0.055, 0.055},
		{"Multiple two places", Multiple, 1.8765, 1.88},
		{"Multiple exact", Multiple, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.round(tt.input)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("got %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestRoundToNonFinite(t *testing.T) {
	if !math.IsNaN(RoundTo(math.NaN(), 2)) {
		t.Error("expected NaN to pass through")
	}
	if !math.IsInf(RoundTo(math.Inf(1), 2), 1) {
		t.Error("expected +Inf to pass through")
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Exactly zero", 0.0, true},
		{"Very small positive", 0.001, true},
		{"Very small negative", -0.001, true},
		{"Just above tolerance", 0.02, false},
		{"Large negative", -100.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsZero(tt.input)
			if result != tt.expected {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		a, b, tol float64
		expected  bool
	}{
		{"Equal", 1, 1, 0, true},
		{"At tolerance", 1.0, 1.5, 0.5, true},
		{"Outside tolerance", 100, 102, 1, false},
		{"Order does not matter", 102, 100, 1, false},
		{"Split sum", 0.7 + 0.3, 1, 1e-6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTolerance(tt.a, tt.b, tt.tol); got != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v", tt.a, tt.b, tt.tol, got, tt.expected)
			}
		})
	}
}

func TestMean(t *testing.T) {
	if _, ok := Mean(nil); ok {
		t.Error("expected empty slice to report no mean")
	}
	mean, ok := Mean([]float64{1, 2, 3, 6})
	if !ok || mean != 3 {
		t.Errorf("Mean() = %v, %v, expected 3, true", mean, ok)
	}
}

func TestDiv(t *testing.T) {
	if Div(1, 0) != nil {
		t.Error("expected nil for zero denominator")
	}
	if q := Div(1, 4); q == nil || *q != 0.25 {
		t.Errorf("Div(1, 4) = %v, expected 0.25", q)
	}
	if DivPtr(nil, Ptr(2)) != nil {
		t.Error("expected nil for nil numerator")
	}
	if q := DivPtr(Ptr(3), Ptr(2)); q == nil || *q != 1.5 {
		t.Errorf("DivPtr(3, 2) = %v, expected 1.5", q)
	}
}
