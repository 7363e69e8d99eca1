package pdfrenderer

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	mu       sync.Mutex
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	// One worker; calls are serialized by the renderer mutex
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
	}, nil
}

// Open loads the PDF into the PDFium instance
func (r *PDFiumRenderer) Open(data []byte) (Pages, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCountResp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &pdfiumPages{renderer: r, document: doc.Document, count: pageCountResp.PageCount}, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.instance = nil
	return nil
}

type pdfiumPages struct {
	renderer *PDFiumRenderer
	document references.FPDF_DOCUMENT
	count    int
}

func (p *pdfiumPages) NumPage() int {
	return p.count
}

func (p *pdfiumPages) RenderPage(index int, dpi float64) (image.Image, error) {
	if index < 0 || index >= p.count {
		return nil, fmt.Errorf("page %d out of range", index)
	}

	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	if p.renderer.instance == nil {
		return nil, fmt.Errorf("renderer closed")
	}

	pageRender, err := p.renderer.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI: int(math.Round(dpi)),
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: p.document,
				Index:    index,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", index, err)
	}
	// the result buffer belongs to the instance until Cleanup
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()
	return img, nil
}

func (p *pdfiumPages) Close() error {
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	if p.renderer.instance == nil {
		return nil
	}
	_, err := p.renderer.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: p.document,
	})
	return err
}
