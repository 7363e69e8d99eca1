package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// Open loads the PDF into MuPDF
func (r *FitzRenderer) Open(data []byte) (Pages, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzPages{doc: doc}, nil
}

// Close cleans up resources (no-op for Fitz renderer as documents are closed by their owners)
func (r *FitzRenderer) Close() error {
	return nil
}

type fitzPages struct {
	doc *fitz.Document
}

func (p *fitzPages) NumPage() int {
	return p.doc.NumPage()
}

func (p *fitzPages) RenderPage(index int, dpi float64) (image.Image, error) {
	if index < 0 || index >= p.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	img, err := p.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", index, err)
	}
	return img, nil
}

func (p *fitzPages) Close() error {
	return p.doc.Close()
}
