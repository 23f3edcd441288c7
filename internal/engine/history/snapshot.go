package history

import (
	"time"
	"weak"
)

// Span is a selection between an anchor and a head offset.
// When Anchor == Head the span is a bare caret.
type Span struct {
	Anchor int
	Head   int
}

// IsEmpty returns true if the span has no extent.
func (s Span) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound of the span.
func (s Span) Start() int {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the span.
func (s Span) End() int {
	return max(s.Anchor, s.Head)
}

// ViewState is the visual context of an editor at a point in time.
type ViewState struct {
	Caret     int
	Selection Span
	Scroll    int
}

// Editor is a view that can report and restore its visual state.
type Editor interface {
	View() ViewState
	ApplyView(ViewState)
	Closed() bool
}

// EditorRef resolves an editor at restoration time.
// Resolve returns false if the editor no longer exists or has been closed.
type EditorRef interface {
	Resolve() (Editor, bool)
}

type weakEditor[T any, P interface {
	*T
	Editor
}] struct {
	ptr weak.Pointer[T]
}

// WeakEditor returns a reference that does not keep the editor alive.
func WeakEditor[T any, P interface {
	*T
	Editor
}](e P) EditorRef {
	if (*T)(e) == nil {
		return nil
	}
	return weakEditor[T, P]{ptr: weak.Make((*T)(e))}
}

func (w weakEditor[T, P]) Resolve() (Editor, bool) {
	p := w.ptr.Value()
	if p == nil {
		return nil, false
	}
	e := P(p)
	if e.Closed() {
		return nil, false
	}
	return e, true
}

type strongEditor struct {
	e Editor
}

// StrongEditor returns a reference that holds the editor directly.
// Restoration is still skipped once the editor reports itself closed.
func StrongEditor(e Editor) EditorRef {
	if e == nil {
		return nil
	}
	return strongEditor{e: e}
}

func (s strongEditor) Resolve() (Editor, bool) {
	if s.e.Closed() {
		return nil, false
	}
	return s.e, true
}

// Snapshot is the view state of an editor captured at a point in time.
// A zero Snapshot has no editor and restores nothing.
type Snapshot struct {
	editor EditorRef
	View   ViewState
	Taken  time.Time
}

// CaptureSnapshot records the current view state of the referenced editor.
// A nil or unresolvable reference yields an empty snapshot.
func CaptureSnapshot(ref EditorRef) Snapshot {
	s := Snapshot{Taken: time.Now()}
	if ref == nil {
		return s
	}
	e, ok := ref.Resolve()
	if !ok {
		return s
	}
	s.editor = ref
	s.View = e.View()
	return s
}

// HasEditor returns true if the snapshot was taken from an editor.
func (s Snapshot) HasEditor() bool {
	return s.editor != nil
}

// Editor returns the referenced editor if it is still open.
func (s Snapshot) Editor() (Editor, bool) {
	if s.editor == nil {
		return nil, false
	}
	return s.editor.Resolve()
}

// Restore applies the captured view state to its editor.
// Returns false without error if the editor is gone.
func (s Snapshot) Restore() bool {
	e, ok := s.Editor()
	if !ok {
		return false
	}
	e.ApplyView(s.View)
	return true
}

// Recapture returns a fresh snapshot of the same editor. If the editor is
// gone s is returned unchanged.
func (s Snapshot) Recapture() Snapshot {
	if _, ok := s.Editor(); !ok {
		return s
	}
	return CaptureSnapshot(s.editor)
}
