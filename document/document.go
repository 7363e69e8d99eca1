// Package document wraps an open PDF: page geometry, crop boxes and saving.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/drummonds/pdfcropper/geometry"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

var (
	// ErrParse is returned when the input is not a usable PDF
	ErrParse = errors.New("unable to parse PDF")
	// ErrInvalidRectangle is returned when a crop box is rejected for a page
	ErrInvalidRectangle = errors.New("invalid crop rectangle")
	// ErrIO is returned when reading or writing a document fails
	ErrIO = errors.New("document I/O failed")
)

var configOnce sync.Once

// configuration keeps pdfcpu away from the user's config directory
func configuration() *model.Configuration {
	configOnce.Do(pdfapi.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Document is an open PDF held in memory.
// Crop boxes are kept in page space (origin top-left of the media box, y down, points)
// and only written into the file when it is serialized.
type Document struct {
	name   string
	source []byte
	media  []geometry.Rect // PDF user space, lower-left origin
	crops  []geometry.Rect // page space
	dirty  []bool

	preview []byte
}

// Open reads the PDF at path
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return OpenBytes(filepath.Base(path), data)
}

// OpenBytes parses an in-memory PDF. name is used for logging and default file names.
func OpenBytes(name string, data []byte) (*Document, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		name:   name,
		source: data,
		media:  make([]geometry.Rect, ctx.PageCount),
		crops:  make([]geometry.Rect, ctx.PageCount),
		dirty:  make([]bool, ctx.PageCount),
	}
	for i := 0; i < ctx.PageCount; i++ {
		_, _, inh, err := ctx.PageDict(i+1, false)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrParse, i+1, err)
		}
		if inh == nil || inh.MediaBox == nil {
			return nil, fmt.Errorf("%w: page %d has no media box", ErrParse, i+1)
		}
		mb := fromPDFRect(inh.MediaBox)
		if mb.Empty() {
			return nil, fmt.Errorf("%w: page %d has an empty media box", ErrParse, i+1)
		}
		doc.media[i] = mb

		bounds := doc.PageBounds(i)
		crop := bounds
		if inh.CropBox != nil {
			c, err := geometry.Clamp(toPageSpace(fromPDFRect(inh.CropBox), mb), bounds)
			if err == nil {
				crop = c
			}
		}
		doc.crops[i] = crop
	}

	Logger.Info("Opened PDF", "name", name, "pages", ctx.PageCount, "bytes", len(data))
	return doc, nil
}

// Name returns the file name the document was opened from
func (d *Document) Name() string {
	return d.name
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.media)
}

// PageBounds returns the media box of page index in page space
func (d *Document) PageBounds(index int) geometry.Rect {
	if index < 0 || index >= len(d.media) {
		return geometry.Rect{}
	}
	mb := d.media[index]
	return geometry.Rect{X1: mb.Width(), Y1: mb.Height()}
}

// CropBox returns the current crop box of page index in page space
func (d *Document) CropBox(index int) geometry.Rect {
	if index < 0 || index >= len(d.crops) {
		return geometry.Rect{}
	}
	return d.crops[index]
}

// SetCrop replaces the crop box of page index. The rectangle must lie within the page and have area.
func (d *Document) SetCrop(index int, r geometry.Rect) error {
	if index < 0 || index >= len(d.crops) {
		return fmt.Errorf("%w: page %d out of range", ErrInvalidRectangle, index+1)
	}
	r = r.Normalize()
	bounds := d.PageBounds(index)
	if r.Empty() {
		return fmt.Errorf("%w: %s has no area", ErrInvalidRectangle, r)
	}
	if r.X0 < bounds.X0 || r.Y0 < bounds.Y0 || r.X1 > bounds.X1 || r.Y1 > bounds.Y1 {
		return fmt.Errorf("%w: %s exceeds page %s", ErrInvalidRectangle, r, bounds)
	}
	d.crops[index] = r
	d.dirty[index] = true
	Logger.Debug("Crop box set", "name", d.name, "page", index+1, "rect", r.String())
	return nil
}

// Modified reports whether any crop box was changed since the document was opened
func (d *Document) Modified() bool {
	for _, dirty := range d.dirty {
		if dirty {
			return true
		}
	}
	return false
}

// WriteTo writes the document with the current crop boxes to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", ErrIO, err)
	}
	return int64(n), nil
}

// Bytes serializes the document with the current crop boxes
func (d *Document) Bytes() ([]byte, error) {
	return d.build(func(index int, page types.Dict) {
		if !d.dirty[index] {
			return
		}
		page["CropBox"] = toPDFRect(d.crops[index], d.media[index]).Array()
	})
}

// Save writes the document to path. The file is replaced atomically.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pdfcropper-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	Logger.Info("Saved PDF", "name", d.name, "path", path, "bytes", len(data))
	return nil
}

// PreviewPDF returns the document with every page showing its full media box and no rotation,
// so that rendered previews cover the whole page space
func (d *Document) PreviewPDF() ([]byte, error) {
	if d.preview != nil {
		return d.preview, nil
	}
	data, err := d.build(func(index int, page types.Dict) {
		page["CropBox"] = toPDFRect(d.PageBounds(index), d.media[index]).Array()
		page["Rotate"] = types.Integer(0)
	})
	if err != nil {
		return nil, err
	}
	d.preview = data
	return data, nil
}

// build reads a fresh copy of the source, lets edit change each page dictionary and writes it out
func (d *Document) build(edit func(index int, page types.Dict)) ([]byte, error) {
	ctx, err := readContext(d.source)
	if err != nil {
		return nil, err
	}
	for i := 0; i < ctx.PageCount && i < len(d.media); i++ {
		pageDict, _, _, err := ctx.PageDict(i+1, false)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrParse, i+1, err)
		}
		if pageDict == nil {
			return nil, fmt.Errorf("%w: page %d missing", ErrParse, i+1)
		}
		edit(i, pageDict)
	}

	var out bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return out.Bytes(), nil
}

func readContext(data []byte) (*model.Context, error) {
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), configuration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrParse)
	}
	return ctx, nil
}
