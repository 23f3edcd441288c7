// Package document provides the in-memory documents edited through the
// history engine.
//
// Every edit is applied immediately and returns a history.Action scoped to
// the document, ready to be appended to the current command:
//
//	doc := document.New("notes.txt", "Hello")
//	act, _ := doc.Insert(5, ", World")
//	manager.Append(act)
//
// Replaying an action checks that the document is still open and still
// holds the text the action expects, so a stale action fails instead of
// corrupting the document.
package document

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/engine/history"
)

// Errors returned by document operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrClosed           = errors.New("document is closed")
	ErrContentMismatch  = errors.New("document content does not match edit")
)

// ID is the stable handle of a document.
type ID = uuid.UUID

// Document is a named, mutable text.
type Document struct {
	id       ID
	name     string
	text     string
	revision uint64
	closed   bool
}

// New creates an open document.
func New(name, text string) *Document {
	return &Document{
		id:   uuid.New(),
		name: name,
		text: text,
	}
}

// ID returns the document handle.
func (d *Document) ID() ID {
	return d.id
}

// Scope returns the history scope of the document.
func (d *Document) Scope() history.Scope {
	return history.DocumentScope(d.id)
}

// Name returns the document name.
func (d *Document) Name() string {
	return d.name
}

// Text returns the full content.
func (d *Document) Text() string {
	return d.text
}

// Len returns the content length in bytes.
func (d *Document) Len() int {
	return len(d.text)
}

// Revision returns a counter incremented by every change, replays included.
func (d *Document) Revision() uint64 {
	return d.revision
}

// TextRange returns the text between start and end.
func (d *Document) TextRange(start, end int) (string, error) {
	if err := d.checkRange(start, end); err != nil {
		return "", err
	}
	return d.text[start:end], nil
}

// Close marks the document closed. Later edits and replays fail.
func (d *Document) Close() {
	d.closed = true
}

// Closed returns true once the document has been closed.
func (d *Document) Closed() bool {
	return d.closed
}

// Insert inserts text at offset.
func (d *Document) Insert(offset int, text string) (*Edit, error) {
	return d.Replace(offset, offset, text)
}

// Delete removes the text between start and end.
func (d *Document) Delete(start, end int) (*Edit, error) {
	return d.Replace(start, end, "")
}

// Replace replaces the text between start and end.
func (d *Document) Replace(start, end int, text string) (*Edit, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if err := d.checkRange(start, end); err != nil {
		return nil, err
	}

	e := &Edit{
		doc:     d,
		offset:  start,
		oldText: d.text[start:end],
		newText: text,
	}
	d.splice(start, end, text)
	return e, nil
}

func (d *Document) splice(start, end int, text string) {
	d.text = d.text[:start] + text + d.text[end:]
	d.revision++
}

func (d *Document) checkRange(start, end int) error {
	if start < 0 || end > len(d.text) {
		return fmt.Errorf("[%d,%d) in %d bytes: %w", start, end, len(d.text), ErrOffsetOutOfRange)
	}
	if end < start {
		return fmt.Errorf("[%d,%d): %w", start, end, ErrRangeInvalid)
	}
	return nil
}
