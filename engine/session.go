package engine

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/drummonds/pdfcropper/document"
	"github.com/drummonds/pdfcropper/engine/pdfrenderer"
	"github.com/drummonds/pdfcropper/geometry"
	"github.com/drummonds/pdfcropper/history"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrNoDocument is returned by operations that need an open document
	ErrNoDocument = errors.New("no document is open")
	// ErrNoSelection is returned when a crop is requested before a rectangle was drawn
	ErrNoSelection = errors.New("no crop rectangle selected")
	// ErrNothingToUndo is returned when the current page has no undo history
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned when the current page has no redo history
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Document is the PDF a session edits
type Document interface {
	Name() string
	PageCount() int
	PageBounds(index int) geometry.Rect
	CropBox(index int) geometry.Rect
	SetCrop(index int, r geometry.Rect) error
	Save(path string) error
	WriteTo(w io.Writer) (int64, error)
	PreviewPDF() ([]byte, error)
	ContentBounds(index int, margin float64) (geometry.Rect, error)
}

// OpenFunc parses an uploaded file into a Document
type OpenFunc func(name string, data []byte) (Document, error)

// OpenPDF opens documents with the pdfcpu backed document package
func OpenPDF(name string, data []byte) (Document, error) {
	doc, err := document.OpenBytes(name, data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PageFailure describes a page skipped by a batch crop
type PageFailure struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// BatchReport is the outcome of applying one rectangle to every page
type BatchReport struct {
	Applied []int         `json:"applied"`
	Skipped []PageFailure `json:"skipped"`
}

// State is a snapshot of a session for the UI. Rectangles are in viewport pixels.
type State struct {
	ID          string            `json:"id"`
	Open        bool              `json:"open"`
	FileName    string            `json:"fileName,omitempty"`
	PageCount   int               `json:"pageCount"`
	CurrentPage int               `json:"currentPage"`
	Scale       float64           `json:"scale"`
	Viewport    geometry.Viewport `json:"viewport"`
	ImageWidth  int               `json:"imageWidth"`
	ImageHeight int               `json:"imageHeight"`
	Crop        *geometry.Rect    `json:"crop,omitempty"`
	Selection   *geometry.Rect    `json:"selection,omitempty"`
	CanUndo     bool              `json:"canUndo"`
	CanRedo     bool              `json:"canRedo"`
	Revision    int               `json:"revision"`
}

// Session is one user's editing session. All methods are serialized by the session mutex,
// so a session behaves like the single UI thread of a desktop tool.
type Session struct {
	mu sync.Mutex

	ID       ulid.ULID
	open     OpenFunc
	renderer pdfrenderer.Renderer
	viewport geometry.Viewport
	dpi      float64

	doc       Document
	pages     pdfrenderer.Pages
	current   int
	scale     float64
	width     int
	height    int
	ledger    *history.Ledger
	selection *geometry.Selection
	revision  int
}

// SessionOptions configures new sessions
type SessionOptions struct {
	Open     OpenFunc
	Renderer pdfrenderer.Renderer
	Viewport geometry.Viewport
	DPI      float64
}

// NewSession creates a closed session
func NewSession(id ulid.ULID, opts SessionOptions) *Session {
	if opts.Open == nil {
		opts.Open = OpenPDF
	}
	if opts.DPI <= 0 {
		opts.DPI = 72
	}
	return &Session{
		ID:        id,
		open:      opts.Open,
		renderer:  opts.Renderer,
		viewport:  opts.Viewport,
		dpi:       opts.DPI,
		ledger:    history.NewLedger(0),
		selection: geometry.NewSelection(opts.Viewport.Bounds()),
	}
}

// Open parses data and makes it the session's document. A previously open document is
// torn down first. On failure the session is left unchanged.
func (s *Session) Open(name string, data []byte) error {
	doc, err := s.open(name, data)
	if err != nil {
		Logger.Error("Unable to open document", "session", s.ID, "name", name, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	s.doc = doc
	s.ledger.Reset(doc.PageCount())
	if err := s.showPageLocked(0); err != nil {
		s.closeLocked()
		return err
	}
	Logger.Info("Session opened document", "session", s.ID, "name", name, "pages", doc.PageCount())
	return nil
}

// Close releases the document and all history
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.pages != nil {
		if err := s.pages.Close(); err != nil {
			Logger.Warn("Unable to release rendered document", "session", s.ID, "error", err)
		}
		s.pages = nil
	}
	if s.doc != nil {
		Logger.Info("Session closed document", "session", s.ID, "name", s.doc.Name())
	}
	s.doc = nil
	s.current = 0
	s.scale = 0
	s.width, s.height = 0, 0
	s.ledger.Reset(0)
	s.selection.Clear()
	s.revision++
}

// IsOpen reports whether a document is loaded
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil
}

// GoTo shows page index, clamped to the document
func (s *Session) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}
	if index < 0 {
		index = 0
	}
	if last := s.doc.PageCount() - 1; index > last {
		index = last
	}
	return s.showPageLocked(index)
}

// Step moves delta pages forward or backward, stopping at the ends
func (s *Session) Step(delta int) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	return s.GoTo(current + delta)
}

// showPageLocked switches page and recomputes the scale for it
func (s *Session) showPageLocked(index int) error {
	scale, w, h, err := s.viewport.Fit(s.doc.PageBounds(index))
	if err != nil {
		return fmt.Errorf("page %d: %w", index+1, err)
	}
	if index != s.current {
		s.selection.Clear()
	}
	s.current = index
	s.scale = scale
	s.width, s.height = w, h
	s.revision++
	return nil
}

// BeginSelection starts a drag at viewport position x, y
func (s *Session) BeginSelection(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Begin(x, y)
}

// UpdateSelection follows the pointer during a drag
func (s *Session) UpdateSelection(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Update(x, y)
}

// FinishSelection ends the drag at x, y
func (s *Session) FinishSelection(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Finish(x, y)
	s.revision++
}

// ClearSelection drops the drawn rectangle
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
	s.revision++
}

// selectionInPageSpace converts the finished selection with the current page's scale
func (s *Session) selectionInPageSpace() (geometry.Rect, error) {
	if s.doc == nil {
		return geometry.Rect{}, ErrNoDocument
	}
	sel, ok := s.selection.Rect()
	if !ok || s.selection.Dragging() {
		return geometry.Rect{}, ErrNoSelection
	}
	return geometry.ToPageSpace(sel, s.scale), nil
}

// CropCurrentPage applies the selection as the crop box of the current page
func (s *Session) CropCurrentPage() (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.selectionInPageSpace()
	if err != nil {
		return geometry.Rect{}, err
	}
	crop, err := s.cropPageLocked(s.current, r)
	if err != nil {
		Logger.Warn("Crop rejected", "session", s.ID, "page", s.current+1, "error", err)
		return geometry.Rect{}, err
	}
	s.revision++
	Logger.Info("Cropped page", "session", s.ID, "page", s.current+1, "rect", crop.String())
	return crop, nil
}

// ApplyToAll crops every page with the selection. Pages where the clamped rectangle has no area,
// or where the document rejects it, are skipped and reported; the remaining pages are still cropped.
func (s *Session) ApplyToAll() (BatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.selectionInPageSpace()
	if err != nil {
		return BatchReport{}, err
	}

	report := BatchReport{Applied: []int{}, Skipped: []PageFailure{}}
	for i := 0; i < s.doc.PageCount(); i++ {
		if _, err := s.cropPageLocked(i, r); err != nil {
			Logger.Warn("Skipping page in batch crop", "session", s.ID, "page", i+1, "error", err)
			report.Skipped = append(report.Skipped, PageFailure{Page: i, Error: err.Error()})
			continue
		}
		report.Applied = append(report.Applied, i)
	}
	s.revision++
	Logger.Info("Applied crop to all pages", "session", s.ID, "applied", len(report.Applied), "skipped", len(report.Skipped))
	return report, nil
}

// cropPageLocked clamps r to page index, sets it and records the replaced crop
func (s *Session) cropPageLocked(index int, r geometry.Rect) (geometry.Rect, error) {
	crop, err := geometry.Clamp(r, s.doc.PageBounds(index))
	if err != nil {
		return geometry.Rect{}, err
	}
	previous := s.doc.CropBox(index)
	if err := s.doc.SetCrop(index, crop); err != nil {
		return geometry.Rect{}, err
	}
	s.ledger.Record(index, previous)
	return crop, nil
}

// Undo restores the crop the current page had before its latest edit
func (s *Session) Undo() (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return geometry.Rect{}, ErrNoDocument
	}

	current := s.doc.CropBox(s.current)
	previous, ok := s.ledger.Undo(s.current, current)
	if !ok {
		return geometry.Rect{}, ErrNothingToUndo
	}
	if err := s.doc.SetCrop(s.current, previous); err != nil {
		s.ledger.Redo(s.current, previous)
		return geometry.Rect{}, err
	}
	s.revision++
	Logger.Info("Undo crop", "session", s.ID, "page", s.current+1, "rect", previous.String())
	return previous, nil
}

// Redo reapplies the crop most recently undone on the current page
func (s *Session) Redo() (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return geometry.Rect{}, ErrNoDocument
	}

	current := s.doc.CropBox(s.current)
	next, ok := s.ledger.Redo(s.current, current)
	if !ok {
		return geometry.Rect{}, ErrNothingToRedo
	}
	if err := s.doc.SetCrop(s.current, next); err != nil {
		s.ledger.Undo(s.current, next)
		return geometry.Rect{}, err
	}
	s.revision++
	Logger.Info("Redo crop", "session", s.ID, "page", s.current+1, "rect", next.String())
	return next, nil
}

// Suggest selects the extent of the current page's content, grown by margin points
func (s *Session) Suggest(margin float64) (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return geometry.Rect{}, ErrNoDocument
	}

	r, err := s.doc.ContentBounds(s.current, margin)
	if err != nil {
		return geometry.Rect{}, err
	}
	sel := geometry.ToViewportSpace(r, s.scale)
	s.selection.Begin(sel.X0, sel.Y0)
	s.selection.Finish(sel.X1, sel.Y1)
	s.revision++
	sel, _ = s.selection.Rect()
	return sel, nil
}

// Save writes the document to path. The session stays open for further edits.
func (s *Session) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}
	return s.doc.Save(path)
}

// WriteTo streams the document with its current crops
func (s *Session) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0, ErrNoDocument
	}
	return s.doc.WriteTo(w)
}

// FileName returns the name of the open document
func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ""
	}
	return s.doc.Name()
}

// Preview renders the current page fitted to the viewport
func (s *Session) Preview() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	if s.renderer == nil {
		return nil, errors.New("no renderer configured")
	}

	if s.pages == nil {
		data, err := s.doc.PreviewPDF()
		if err != nil {
			return nil, err
		}
		pages, err := s.renderer.Open(data)
		if err != nil {
			return nil, err
		}
		s.pages = pages
	}

	img, err := s.pages.RenderPage(s.current, s.dpi)
	if err != nil {
		return nil, err
	}
	return pdfrenderer.Fit(img, s.width, s.height), nil
}

// State returns a snapshot for the UI
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:       s.ID.String(),
		Viewport: s.viewport,
		Revision: s.revision,
	}
	if s.doc == nil {
		return st
	}

	crop := geometry.ToViewportSpace(s.doc.CropBox(s.current), s.scale)
	st.Open = true
	st.FileName = s.doc.Name()
	st.PageCount = s.doc.PageCount()
	st.CurrentPage = s.current
	st.Scale = s.scale
	st.ImageWidth = s.width
	st.ImageHeight = s.height
	st.Crop = &crop
	if sel, ok := s.selection.Rect(); ok {
		st.Selection = &sel
	}
	st.CanUndo = s.ledger.CanUndo(s.current)
	st.CanRedo = s.ledger.CanRedo(s.current)
	return st
}
