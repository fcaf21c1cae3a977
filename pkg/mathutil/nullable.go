package mathutil

import "math"

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 {
	return &v
}

// Value dereferences p, returning fallback when p is nil.
func Value(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

// Div returns a/b, or nil when b is zero or the result is not finite.
func Div(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	q := a / b
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return nil
	}
	return &q
}

// DivPtr is Div over nullable operands; nil when either operand is nil.
func DivPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Div(*a, *b)
}

// RoundPtr applies round to a nullable value.
func RoundPtr(p *float64, round func(float64) float64) *float64 {
	if p == nil {
		return nil
	}
	v := round(*p)
	return &v
}

// Positive reports whether p holds a value greater than zero.
func Positive(p *float64) bool {
	return p != nil && *p > 0
}
