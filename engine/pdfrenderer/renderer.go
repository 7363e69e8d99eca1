package pdfrenderer

import (
	"fmt"
	"image"
)

// Renderer defines the interface for PDF to image conversion
type Renderer interface {
	// Open loads a PDF held in memory so its pages can be rendered
	Open(data []byte) (Pages, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// Pages is a document loaded into a renderer
type Pages interface {
	// NumPage returns the number of pages of the loaded document
	NumPage() int

	// RenderPage rasterises page index (zero based) at the given resolution
	RenderPage(index int, dpi float64) (image.Image, error)

	// Close releases the loaded document
	Close() error
}

const (
	// KindFitz selects the MuPDF renderer (requires CGo)
	KindFitz = "fitz"
	// KindPDFium selects the PDFium WebAssembly renderer (pure Go)
	KindPDFium = "pdfium"
)

// NewRenderer creates the renderer named by kind
func NewRenderer(kind string) (Renderer, error) {
	switch kind {
	case KindFitz, "":
		return NewFitzRenderer()
	case KindPDFium:
		return NewPDFiumRenderer()
	default:
		return nil, fmt.Errorf("unknown PDF renderer %q", kind)
	}
}
