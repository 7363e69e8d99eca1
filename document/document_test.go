package document

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/drummonds/pdfcropper/geometry"
	"github.com/drummonds/pdfcropper/internal/testpdf"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestOpenReportsGeometry(t *testing.T) {
	path := testpdf.WriteFile(t, "two.pdf",
		testpdf.Letter("first"),
		testpdf.Page{Width: 600, Height: 800, CropBox: &[4]float64{50, 100, 550, 700}},
	)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.Name() != "two.pdf" {
		t.Errorf("Name = %q, want two.pdf", doc.Name())
	}
	if doc.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", doc.PageCount())
	}

	if diff := cmp.Diff(geometry.Rect{X1: 612, Y1: 792}, doc.PageBounds(0), approx); diff != "" {
		t.Errorf("PageBounds(0) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.PageBounds(0), doc.CropBox(0), approx); diff != "" {
		t.Errorf("uncropped page should report its media box as crop (-want +got):\n%s", diff)
	}

	// user space [50 100 550 700] on an 800pt tall page is y 100..700 from the top
	want := geometry.Rect{X0: 50, Y0: 100, X1: 550, Y1: 700}
	if diff := cmp.Diff(want, doc.CropBox(1), approx); diff != "" {
		t.Errorf("CropBox(1) (-want +got):\n%s", diff)
	}
	if doc.Modified() {
		t.Error("freshly opened document should not be modified")
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open on missing file error = %v, want fs.ErrNotExist", err)
	}

	_, err = OpenBytes("garbage.pdf", []byte("this is not a pdf"))
	if !errors.Is(err, ErrParse) {
		t.Errorf("OpenBytes on garbage error = %v, want ErrParse", err)
	}
}

func TestSetCropValidation(t *testing.T) {
	doc, err := OpenBytes("one.pdf", testpdf.Build(t, testpdf.Letter("hello")))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		page int
		rect geometry.Rect
	}{
		{"outside page", 0, geometry.Rect{X0: 10, Y0: 10, X1: 700, Y1: 100}},
		{"negative origin", 0, geometry.Rect{X0: -1, Y0: 10, X1: 100, Y1: 100}},
		{"no area", 0, geometry.Rect{X0: 10, Y0: 10, X1: 10, Y1: 100}},
		{"page out of range", 3, geometry.Rect{X0: 10, Y0: 10, X1: 100, Y1: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := doc.SetCrop(tt.page, tt.rect); !errors.Is(err, ErrInvalidRectangle) {
				t.Errorf("SetCrop error = %v, want ErrInvalidRectangle", err)
			}
		})
	}
	if doc.Modified() {
		t.Error("rejected crops must not modify the document")
	}
}

func TestSaveWritesCropBox(t *testing.T) {
	doc, err := OpenBytes("pages.pdf", testpdf.Build(t, testpdf.Letter("a"), testpdf.Letter("b")))
	if err != nil {
		t.Fatal(err)
	}

	crop := geometry.Rect{X0: 36, Y0: 72, X1: 576, Y1: 720}
	if err := doc.SetCrop(1, crop); err != nil {
		t.Fatalf("SetCrop failed: %v", err)
	}
	if !doc.Modified() {
		t.Error("document should be modified after SetCrop")
	}

	out := filepath.Join(t.TempDir(), "cropped.pdf")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopening saved file failed: %v", err)
	}
	if reopened.PageCount() != 2 {
		t.Fatalf("saved file has %d pages, want 2", reopened.PageCount())
	}
	if diff := cmp.Diff(crop, reopened.CropBox(1), approx); diff != "" {
		t.Errorf("saved crop box (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(reopened.PageBounds(0), reopened.CropBox(0), approx); diff != "" {
		t.Errorf("untouched page changed (-want +got):\n%s", diff)
	}

	// saving leaves the document usable
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo after Save failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("WriteTo did not produce a PDF")
	}
}

func TestSaveToMissingDirectory(t *testing.T) {
	doc, err := OpenBytes("one.pdf", testpdf.Build(t, testpdf.Letter("x")))
	if err != nil {
		t.Fatal(err)
	}
	err = doc.Save(filepath.Join(t.TempDir(), "no", "such", "dir", "out.pdf"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("Save error = %v, want ErrIO", err)
	}
}

func TestPreviewShowsWholePage(t *testing.T) {
	doc, err := OpenBytes("rotated.pdf", testpdf.Build(t, testpdf.Page{
		Width: 600, Height: 800, Rotate: 90, CropBox: &[4]float64{100, 100, 200, 200},
	}))
	if err != nil {
		t.Fatal(err)
	}
	data, err := doc.PreviewPDF()
	if err != nil {
		t.Fatalf("PreviewPDF failed: %v", err)
	}

	preview, err := OpenBytes("preview.pdf", data)
	if err != nil {
		t.Fatalf("preview is not a valid PDF: %v", err)
	}
	if diff := cmp.Diff(preview.PageBounds(0), preview.CropBox(0), approx); diff != "" {
		t.Errorf("preview crop should equal the media box (-want +got):\n%s", diff)
	}
}

func TestContentBounds(t *testing.T) {
	doc, err := OpenBytes("text.pdf", testpdf.Build(t,
		testpdf.Letter("Hello world"),
		testpdf.Page{Width: 612, Height: 792},
	))
	if err != nil {
		t.Fatal(err)
	}

	r, err := doc.ContentBounds(0, 4)
	if err != nil {
		t.Fatalf("ContentBounds failed: %v", err)
	}
	if r.Empty() {
		t.Fatal("content bounds should have area")
	}
	// text baseline is 700pt above the bottom of a 792pt page
	if r.Y0 > 92 || r.Y1 < 92 {
		t.Errorf("content bounds %s do not cover the text line at y=92", r)
	}
	if r.X0 < 67 {
		t.Errorf("content bounds %s start left of the text origin", r)
	}

	if _, err := doc.ContentBounds(1, 4); !errors.Is(err, ErrNoContent) {
		t.Errorf("blank page error = %v, want ErrNoContent", err)
	}
}
