package document

import (
	"github.com/drummonds/pdfcropper/geometry"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// fromPDFRect copies a pdfcpu rectangle, keeping PDF user space
func fromPDFRect(r *types.Rectangle) geometry.Rect {
	return geometry.NewRect(r.LL.X, r.LL.Y, r.UR.X, r.UR.Y)
}

// toPageSpace flips a user space box into page space relative to the media box
func toPageSpace(box, media geometry.Rect) geometry.Rect {
	return geometry.NewRect(
		box.X0-media.X0,
		media.Y1-box.Y1,
		box.X1-media.X0,
		media.Y1-box.Y0,
	)
}

// toPDFRect converts a page space rectangle back into a user space box
func toPDFRect(r, media geometry.Rect) *types.Rectangle {
	r = r.Normalize()
	return types.NewRectangle(
		media.X0+r.X0,
		media.Y1-r.Y1,
		media.X0+r.X1,
		media.Y1-r.Y0,
	)
}
