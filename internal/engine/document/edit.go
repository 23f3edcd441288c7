package document

import (
	"fmt"

	"github.com/dshills/rewind/internal/engine/history"
)

// Edit is an applied replacement of oldText by newText at offset.
// It implements history.Action.
type Edit struct {
	doc     *Document
	offset  int
	oldText string
	newText string
}

// Document returns the edited document.
func (e *Edit) Document() *Document {
	return e.doc
}

// Offset returns where the edit starts.
func (e *Edit) Offset() int {
	return e.offset
}

// OldText returns the replaced text.
func (e *Edit) OldText() string {
	return e.oldText
}

// NewText returns the inserted text.
func (e *Edit) NewText() string {
	return e.newText
}

// Delta returns the change in document length.
func (e *Edit) Delta() int {
	return len(e.newText) - len(e.oldText)
}

// Undo restores the replaced text.
func (e *Edit) Undo() error {
	return e.swap(e.newText, e.oldText)
}

// Redo reapplies the edit.
func (e *Edit) Redo() error {
	return e.swap(e.oldText, e.newText)
}

// swap replaces expected, which must be present at the edit offset, by text.
func (e *Edit) swap(expected, text string) error {
	d := e.doc
	if d.closed {
		return fmt.Errorf("%s: %w", d.name, ErrClosed)
	}
	end := e.offset + len(expected)
	if err := d.checkRange(e.offset, end); err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}
	if d.text[e.offset:end] != expected {
		return fmt.Errorf("%s at %d: %w", d.name, e.offset, ErrContentMismatch)
	}
	d.splice(e.offset, end, text)
	return nil
}

// Scopes returns the scope of the edited document.
func (e *Edit) Scopes() []history.Scope {
	return []history.Scope{e.doc.Scope()}
}

// Description returns a human-readable description.
func (e *Edit) Description() string {
	switch {
	case e.oldText == "":
		return fmt.Sprintf("Insert %d bytes", len(e.newText))
	case e.newText == "":
		return fmt.Sprintf("Delete %d bytes", len(e.oldText))
	default:
		return fmt.Sprintf("Replace %d with %d bytes", len(e.oldText), len(e.newText))
	}
}
