package geometry

import (
	"fmt"
	"math"
)

// Clamp normalizes r and clamps every coordinate into bounds on its axis.
// A result without area is reported as ErrDegenerateRegion and must not be applied.
func Clamp(r, bounds Rect) (Rect, error) {
	r = r.Normalize()
	b := bounds.Normalize()
	clamped := Rect{
		X0: clampValue(r.X0, b.X0, b.X1),
		Y0: clampValue(r.Y0, b.Y0, b.Y1),
		X1: clampValue(r.X1, b.X0, b.X1),
		Y1: clampValue(r.Y1, b.Y0, b.Y1),
	}
	if clamped.X1 <= clamped.X0 || clamped.Y1 <= clamped.Y0 {
		return clamped, fmt.Errorf("rectangle %s within %s: %w", r, b, ErrDegenerateRegion)
	}
	return clamped, nil
}

func clampValue(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
