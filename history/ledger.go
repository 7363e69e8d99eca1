// Package history keeps the per-page undo and redo stacks of crop rectangles.
package history

import "github.com/drummonds/pdfcropper/geometry"

type stacks struct {
	undo []geometry.Rect
	redo []geometry.Rect
}

// Ledger holds one undo/redo stack pair per page of a document.
// Pages never share state, and indices outside the document are ignored.
type Ledger struct {
	pages []stacks
}

// NewLedger creates a ledger sized for a document with pageCount pages
func NewLedger(pageCount int) *Ledger {
	l := &Ledger{}
	l.Reset(pageCount)
	return l
}

// Reset drops all history and resizes the ledger for a new document
func (l *Ledger) Reset(pageCount int) {
	if pageCount < 0 {
		pageCount = 0
	}
	l.pages = make([]stacks, pageCount)
}

// PageCount returns the number of pages the ledger tracks
func (l *Ledger) PageCount() int {
	return len(l.pages)
}

// Record stores the crop that a fresh edit replaces. Redo history of the page is invalidated.
func (l *Ledger) Record(page int, previous geometry.Rect) {
	s := l.page(page)
	if s == nil {
		return
	}
	s.undo = append(s.undo, previous)
	s.redo = s.redo[:0]
}

// Undo pops the most recent superseded crop of the page and parks current on the redo stack.
// It returns false without touching either stack when there is nothing to undo.
func (l *Ledger) Undo(page int, current geometry.Rect) (geometry.Rect, bool) {
	s := l.page(page)
	if s == nil || len(s.undo) == 0 {
		return geometry.Rect{}, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current)
	return prev, true
}

// Redo pops the most recently undone crop of the page and parks current on the undo stack
func (l *Ledger) Redo(page int, current geometry.Rect) (geometry.Rect, bool) {
	s := l.page(page)
	if s == nil || len(s.redo) == 0 {
		return geometry.Rect{}, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, current)
	return next, true
}

// CanUndo reports whether the page has undo history
func (l *Ledger) CanUndo(page int) bool {
	s := l.page(page)
	return s != nil && len(s.undo) > 0
}

// CanRedo reports whether the page has redo history
func (l *Ledger) CanRedo(page int) bool {
	s := l.page(page)
	return s != nil && len(s.redo) > 0
}

// Depth returns the sizes of the page's undo and redo stacks
func (l *Ledger) Depth(page int) (undo, redo int) {
	s := l.page(page)
	if s == nil {
		return 0, 0
	}
	return len(s.undo), len(s.redo)
}

func (l *Ledger) page(page int) *stacks {
	if page < 0 || page >= len(l.pages) {
		return nil
	}
	return &l.pages[page]
}
