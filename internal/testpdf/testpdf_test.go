package testpdf

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func TestBuildPageDimensions(t *testing.T) {
	data := Build(t,
		Letter("first"),
		Page{Width: 300, Height: 200, CropBox: &[4]float64{10, 10, 290, 190}},
		Page{Width: 300, Height: 200, Rotate: 90},
	)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	dims, err := pdfapi.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatalf("PageDims failed: %v", err)
	}

	want := []types.Dim{{Width: 612, Height: 792}, {Width: 300, Height: 200}, {Width: 200, Height: 300}}
	if diff := cmp.Diff(want, dims); diff != "" {
		t.Errorf("page dimensions mismatch (-want +got):\n%s", diff)
	}
}

func TestContentStream(t *testing.T) {
	if got := string(content(Page{Width: 100, Height: 100})); got != "q Q" {
		t.Errorf("content = %q, want %q", got, "q Q")
	}
	got := string(content(Page{Text: "hi", TextX: 1, TextY: 2}))
	if want := "BT /F1 12 Tf 1 2 Td (hi) Tj ET"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}
