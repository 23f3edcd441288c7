package engine

import (
	"github.com/dshills/rewind/internal/engine/document"
	"github.com/dshills/rewind/internal/engine/history"
)

// Editor is a view on one document: a caret, a selection and a scroll
// position. It implements history.Editor.
type Editor struct {
	doc    *document.Document
	sel    history.Span
	scroll int
	closed bool
}

func newEditor(doc *document.Document) *Editor {
	return &Editor{doc: doc}
}

// Document returns the viewed document.
func (e *Editor) Document() *document.Document {
	return e.doc
}

// Caret returns the caret offset.
func (e *Editor) Caret() int {
	return e.sel.Head
}

// Selection returns the current selection.
func (e *Editor) Selection() history.Span {
	return e.sel
}

// ScrollOffset returns the first visible line.
func (e *Editor) ScrollOffset() int {
	return e.scroll
}

// MoveCaret places the caret at offset, clearing the selection.
func (e *Editor) MoveCaret(offset int) {
	offset = e.clamp(offset)
	e.sel = history.Span{Anchor: offset, Head: offset}
}

// Select sets the selection. The caret follows the head.
func (e *Editor) Select(anchor, head int) {
	e.sel = history.Span{Anchor: e.clamp(anchor), Head: e.clamp(head)}
}

// Scroll sets the first visible line.
func (e *Editor) Scroll(line int) {
	e.scroll = max(line, 0)
}

// View returns the current view state.
func (e *Editor) View() history.ViewState {
	return history.ViewState{
		Caret:     e.sel.Head,
		Selection: e.sel,
		Scroll:    e.scroll,
	}
}

// ApplyView restores a view state, clamped to the document.
func (e *Editor) ApplyView(v history.ViewState) {
	e.sel = history.Span{Anchor: e.clamp(v.Selection.Anchor), Head: e.clamp(v.Caret)}
	e.scroll = max(v.Scroll, 0)
}

// Close closes the view. The document stays open.
func (e *Editor) Close() {
	e.closed = true
}

// Closed returns true once the view is closed.
func (e *Editor) Closed() bool {
	return e.closed
}

// ref returns a reference for history snapshots that does not keep the
// editor alive.
func (e *Editor) ref() history.EditorRef {
	return history.WeakEditor(e)
}

// clampView pulls the view back inside the document after its text changed
// underneath it.
func (e *Editor) clampView() {
	e.ApplyView(e.View())
}

func (e *Editor) clamp(offset int) int {
	return min(max(offset, 0), e.doc.Len())
}
