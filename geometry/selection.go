package geometry

// Selection tracks a pointer drag over the viewport.
// Begin starts it, Update is called for every move and Finish closes it.
type Selection struct {
	rect   Rect
	bounds Rect
	active bool
	done   bool
}

// NewSelection creates a selection restricted to the given viewport bounds
func NewSelection(bounds Rect) *Selection {
	return &Selection{bounds: bounds.Normalize()}
}

// Begin anchors the selection at the pointer-down position
func (s *Selection) Begin(x, y float64) {
	x, y = s.clampPoint(x, y)
	s.rect = Rect{X0: x, Y0: y, X1: x, Y1: y}
	s.active = true
	s.done = false
}

// Update moves the free corner while the pointer is dragged
func (s *Selection) Update(x, y float64) {
	if !s.active {
		return
	}
	s.rect.X1, s.rect.Y1 = s.clampPoint(x, y)
}

// Finish closes the gesture at the pointer-up position
func (s *Selection) Finish(x, y float64) {
	if !s.active {
		return
	}
	s.Update(x, y)
	s.active = false
	s.done = true
}

// Dragging reports whether a gesture is in progress
func (s *Selection) Dragging() bool {
	return s.active
}

// Rect returns the current selection, normalized, and whether one exists
func (s *Selection) Rect() (Rect, bool) {
	if !s.active && !s.done {
		return Rect{}, false
	}
	return s.rect.Normalize(), true
}

// Clear drops the selection
func (s *Selection) Clear() {
	s.rect = Rect{}
	s.active = false
	s.done = false
}

func (s *Selection) clampPoint(x, y float64) (float64, float64) {
	if s.bounds.Empty() {
		return x, y
	}
	return clampValue(x, s.bounds.X0, s.bounds.X1), clampValue(y, s.bounds.Y0, s.bounds.Y1)
}
