package engine

import "errors"

// Errors returned by workspace operations.
var (
	// ErrNoFocus indicates an editing operation with no focused editor.
	ErrNoFocus = errors.New("no focused editor")

	// ErrNoDocument indicates a document name that is not open.
	ErrNoDocument = errors.New("no such document")

	// ErrDocumentExists indicates a document name that is already open.
	ErrDocumentExists = errors.New("document already open")

	// ErrEmptyText indicates an insertion of nothing.
	ErrEmptyText = errors.New("empty text")
)
