// Package testpdf writes small, valid PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const fontName = "Helvetica"

var configOnce sync.Once

// Page describes one page of a generated document
type Page struct {
	Width, Height float64
	// Text is drawn with Helvetica at TextX/TextY (PDF user space) when not empty
	Text         string
	TextX, TextY float64
	FontSize     float64
	// CropBox is written as the page's own crop box when set
	CropBox *[4]float64
	Rotate  int
}

// Letter returns a US letter page carrying a line of text
func Letter(text string) Page {
	return Page{Width: 612, Height: 792, Text: text, TextX: 72, TextY: 700, FontSize: 24}
}

// Build returns the bytes of a PDF holding the given pages
func Build(t testing.TB, pages ...Page) []byte {
	t.Helper()
	data, err := build(pages)
	if err != nil {
		t.Fatalf("Failed to build test PDF: %v", err)
	}
	return data
}

// WriteFile builds the document into a file inside t.TempDir and returns its path
func WriteFile(t testing.TB, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(t, pages...), 0644); err != nil {
		t.Fatalf("Failed to write test PDF: %v", err)
	}
	return path
}

func build(pages []Page) ([]byte, error) {
	configOnce.Do(pdfapi.DisableConfigDir)
	conf := model.NewDefaultConfiguration()

	ctx, err := pdfcpu.CreateContextWithXRefTable(conf, types.PaperSize["Letter"])
	if err != nil {
		return nil, err
	}

	pagesIndRef, err := ctx.Pages()
	if err != nil {
		return nil, err
	}
	pagesDict, err := ctx.DereferenceDict(*pagesIndRef)
	if err != nil {
		return nil, err
	}

	fontIndRef, err := pdffont.EnsureFontDict(ctx.XRefTable, fontName, "", "", false, nil)
	if err != nil {
		return nil, err
	}

	for i, page := range pages {
		pageIndRef, err := addPage(ctx.XRefTable, *pagesIndRef, *fontIndRef, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		if err := ctx.SetValid(*pageIndRef); err != nil {
			return nil, err
		}
		if err := model.AppendPageTree(pageIndRef, 1, pagesDict); err != nil {
			return nil, err
		}
		ctx.PageCount++
	}

	var out bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func addPage(xRefTable *model.XRefTable, parent, font types.IndirectRef, page Page) (*types.IndirectRef, error) {
	pageDict := types.Dict(
		map[string]types.Object{
			"Type":     types.Name("Page"),
			"Parent":   parent,
			"MediaBox": types.NewRectangle(0, 0, page.Width, page.Height).Array(),
			"Resources": types.Dict(
				map[string]types.Object{
					"Font": types.Dict(map[string]types.Object{"F1": font}),
				},
			),
		},
	)
	if c := page.CropBox; c != nil {
		pageDict.Insert("CropBox", types.NewRectangle(c[0], c[1], c[2], c[3]).Array())
	}
	if page.Rotate != 0 {
		pageDict.Insert("Rotate", types.Integer(page.Rotate))
	}

	contentsIndRef, err := xRefTable.StreamDictIndRef(content(page))
	if err != nil {
		return nil, err
	}
	pageDict.Insert("Contents", *contentsIndRef)

	return xRefTable.IndRefForNewObject(pageDict)
}

func content(page Page) []byte {
	if page.Text == "" {
		return []byte("q Q")
	}
	size := page.FontSize
	if size == 0 {
		size = 12
	}
	return fmt.Appendf(nil, "BT /F1 %g Tf %g %g Td (%s) Tj ET", size, page.TextX, page.TextY, page.Text)
}
