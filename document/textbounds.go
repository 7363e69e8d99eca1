package document

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/drummonds/pdfcropper/geometry"
	"github.com/ledongthuc/pdf"
)

// ErrNoContent is returned when a page has no text or drawn rectangles to measure
var ErrNoContent = errors.New("page has no measurable content")

// descent approximates how far glyphs reach below the baseline, as a fraction of the font size
const descent = 0.25

// ContentBounds returns the page space extent of the text and filled rectangles on page index,
// grown by margin points and clamped to the page. It is used to suggest a crop.
func (d *Document) ContentBounds(index int, margin float64) (r geometry.Rect, err error) {
	if index < 0 || index >= len(d.media) {
		return geometry.Rect{}, fmt.Errorf("%w: page %d out of range", ErrInvalidRectangle, index+1)
	}

	// the content parser panics on malformed streams
	defer func() {
		if rec := recover(); rec != nil {
			Logger.Error("Panic recovered while measuring page content", "name", d.name, "page", index+1, "panic", rec)
			err = fmt.Errorf("%w: page %d: %v", ErrParse, index+1, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(d.source), int64(len(d.source)))
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	page := reader.Page(index + 1)
	if page.V.IsNull() {
		return geometry.Rect{}, fmt.Errorf("%w: page %d not found", ErrParse, index+1)
	}

	content := page.Content()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(x0, y0, x1, y1 float64) {
		minX = math.Min(minX, math.Min(x0, x1))
		minY = math.Min(minY, math.Min(y0, y1))
		maxX = math.Max(maxX, math.Max(x0, x1))
		maxY = math.Max(maxY, math.Max(y0, y1))
	}

	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		extend(t.X, t.Y-t.FontSize*descent, t.X+t.W, t.Y+t.FontSize)
	}
	for _, rect := range content.Rect {
		extend(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y)
	}
	if math.IsInf(minX, 1) {
		return geometry.Rect{}, fmt.Errorf("page %d: %w", index+1, ErrNoContent)
	}

	box := geometry.NewRect(minX-margin, minY-margin, maxX+margin, maxY+margin)
	r, err = geometry.Clamp(toPageSpace(box, d.media[index]), d.PageBounds(index))
	if err != nil {
		return geometry.Rect{}, err
	}
	return r, nil
}
