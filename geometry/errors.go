package geometry

import "errors"

var (
	// ErrInvalidGeometry is returned when a page or viewport dimension is zero or negative
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrDegenerateRegion is returned when a clamped rectangle has no area
	ErrDegenerateRegion = errors.New("degenerate region")
)
