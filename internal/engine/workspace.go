package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/rewind/internal/engine/document"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/logging"
)

// Workspace holds the open documents, one editor per document, global
// settings, and the history that records every change to them.
type Workspace struct {
	docs    map[string]*document.Document
	editors map[document.ID]*Editor
	focus   *Editor

	settings map[string]string

	history     *history.Manager
	historyOpts []history.Option
	log         *logging.Logger
}

// New creates an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		docs:     make(map[string]*document.Document),
		editors:  make(map[document.ID]*Editor),
		settings: make(map[string]string),
		log:      logging.Null(),
	}
	for _, opt := range opts {
		opt(w)
	}
	hopts := append([]history.Option{history.WithLogger(w.log)}, w.historyOpts...)
	w.history = history.NewManager(hopts...)
	w.log = w.log.WithComponent("workspace")
	return w
}

// History returns the history manager.
func (w *Workspace) History() *history.Manager {
	return w.history
}

// ============================================================================
// Documents and Editors
// ============================================================================

// Open creates a document with an editor and focuses it.
func (w *Workspace) Open(name, text string) (*Editor, error) {
	if _, ok := w.docs[name]; ok {
		return nil, fmt.Errorf("open %s: %w", name, ErrDocumentExists)
	}
	doc := document.New(name, text)
	ed := newEditor(doc)
	w.docs[name] = doc
	w.editors[doc.ID()] = ed
	w.focus = ed
	w.log.Debug("opened %s (%s)", name, doc.ID())
	return ed, nil
}

// Focus makes the editor of the named document the focused one, reopening
// the view if it was closed.
func (w *Workspace) Focus(name string) (*Editor, error) {
	doc, ok := w.docs[name]
	if !ok {
		return nil, fmt.Errorf("focus %s: %w", name, ErrNoDocument)
	}
	ed := w.editors[doc.ID()]
	if ed == nil || ed.Closed() {
		ed = newEditor(doc)
		w.editors[doc.ID()] = ed
	}
	w.focus = ed
	return ed, nil
}

// CloseEditor closes the view on a document. Its history stays; view
// restoration for commands recorded through it is skipped from now on.
func (w *Workspace) CloseEditor(name string) error {
	doc, ok := w.docs[name]
	if !ok {
		return fmt.Errorf("close %s: %w", name, ErrNoDocument)
	}
	if ed := w.editors[doc.ID()]; ed != nil {
		ed.Close()
		delete(w.editors, doc.ID())
		if w.focus == ed {
			w.focus = nil
		}
	}
	return nil
}

// Dispose closes a document and drops its history. Commands that also
// touched other documents are dropped there too, together with the older
// history of those documents.
func (w *Workspace) Dispose(name string) error {
	doc, ok := w.docs[name]
	if !ok {
		return fmt.Errorf("dispose %s: %w", name, ErrNoDocument)
	}
	if err := w.CloseEditor(name); err != nil {
		return err
	}
	if err := w.history.Forget(doc.Scope()); err != nil {
		return err
	}
	doc.Close()
	delete(w.docs, name)
	w.log.Debug("disposed %s", name)
	return nil
}

// Focused returns the focused editor, or nil.
func (w *Workspace) Focused() *Editor {
	return w.focus
}

// Document returns an open document by name.
func (w *Workspace) Document(name string) (*document.Document, bool) {
	doc, ok := w.docs[name]
	return doc, ok
}

// Documents returns the open documents sorted by name.
func (w *Workspace) Documents() []*document.Document {
	out := make([]*document.Document, 0, len(w.docs))
	for _, d := range w.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Editor returns the editor of an open document, if its view is open.
func (w *Workspace) Editor(name string) (*Editor, bool) {
	doc, ok := w.docs[name]
	if !ok {
		return nil, false
	}
	ed, ok := w.editors[doc.ID()]
	return ed, ok
}

// ============================================================================
// Editing
// ============================================================================

// Insert replaces the selection of the focused editor with text as one
// command.
func (w *Workspace) Insert(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	return w.edit(CommandInsert, func(ed *Editor) error {
		return w.replaceSelection(ed, text)
	})
}

// Type enters text one grapheme cluster at a time, each as its own Typing
// command, the way keystrokes arrive.
func (w *Workspace) Type(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		cluster := gr.Str()
		err := w.edit(CommandTyping, func(ed *Editor) error {
			return w.replaceSelection(ed, cluster)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Backspace deletes the selection, or n grapheme clusters before the caret.
func (w *Workspace) Backspace(n int) error {
	return w.edit(CommandBackspace, func(ed *Editor) error {
		start, end := ed.sel.Start(), ed.sel.End()
		if start == end {
			start = graphemesBefore(ed.doc.Text(), end, n)
		}
		if start == end {
			return nil
		}
		e, err := ed.doc.Delete(start, end)
		if err != nil {
			return err
		}
		ed.MoveCaret(start)
		return w.history.Append(e)
	})
}

// ReplaceAll replaces every occurrence of old in every open document as a
// single command spanning all changed documents. Returns the number of
// replacements.
func (w *Workspace) ReplaceAll(old, replacement string) (int, error) {
	if old == "" {
		return 0, ErrEmptyText
	}

	var ref history.EditorRef
	if w.focus != nil {
		ref = w.focus.ref()
	}
	if err := w.history.StartCommand(CommandReplaceAll, ref); err != nil {
		return 0, err
	}

	count := 0
	for _, doc := range w.Documents() {
		n, err := w.replaceIn(doc, old, replacement)
		count += n
		if err != nil {
			w.history.CancelCommand()
			return count, err
		}
	}

	if err := w.history.EndCommand(); err != nil {
		return count, err
	}
	w.log.Info("replaced %d occurrence(s) of %q", count, old)
	return count, nil
}

func (w *Workspace) replaceIn(doc *document.Document, old, replacement string) (int, error) {
	text := doc.Text()
	var offsets []int
	for i := 0; ; {
		j := strings.Index(text[i:], old)
		if j < 0 {
			break
		}
		offsets = append(offsets, i+j)
		i += j + len(old)
	}

	ed := w.editors[doc.ID()]
	caret := 0
	if ed != nil {
		caret = ed.Caret()
	}
	shift := 0

	// Replace back to front so earlier offsets stay valid.
	for k := len(offsets) - 1; k >= 0; k-- {
		off := offsets[k]
		e, err := doc.Replace(off, off+len(old), replacement)
		if err != nil {
			return len(offsets) - 1 - k, err
		}
		if err := w.history.Append(e); err != nil {
			return len(offsets) - k, err
		}
		if off+len(old) <= caret {
			shift += e.Delta()
		}
	}

	if ed != nil && len(offsets) > 0 {
		ed.MoveCaret(caret + shift)
	}
	return len(offsets), nil
}

// Set changes a global setting as a command filed under the global scope.
func (w *Workspace) Set(key, value string) error {
	prev, existed := w.settings[key]
	apply := func() error {
		w.settings[key] = value
		return nil
	}
	revert := func() error {
		if existed {
			w.settings[key] = prev
		} else {
			delete(w.settings, key)
		}
		return nil
	}

	rec := history.NewRecord(apply, revert).Describe("Set " + key)
	if err := w.history.StartCommand("Set "+key, nil); err != nil {
		return err
	}
	if err := w.history.Do(rec); err != nil {
		return err
	}
	return w.history.EndCommand()
}

// Setting returns a global setting.
func (w *Workspace) Setting(key string) (string, bool) {
	v, ok := w.settings[key]
	return v, ok
}

// edit runs fn against the focused editor as one command.
func (w *Workspace) edit(name string, fn func(ed *Editor) error) error {
	ed := w.focus
	if ed == nil {
		return ErrNoFocus
	}
	ed.clampView()
	return w.history.Transaction(name, ed.ref(), func() error {
		return fn(ed)
	})
}

func (w *Workspace) replaceSelection(ed *Editor, text string) error {
	start, end := ed.sel.Start(), ed.sel.End()
	e, err := ed.doc.Replace(start, end, text)
	if err != nil {
		return err
	}
	ed.MoveCaret(start + len(text))
	return w.history.Append(e)
}

// graphemesBefore returns the offset n grapheme clusters before offset end
// of text. end is clamped to the text.
func graphemesBefore(text string, end, n int) int {
	text = text[:min(max(end, 0), len(text))]
	if n <= 0 {
		return len(text)
	}
	var starts []int
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		from, _ := gr.Positions()
		starts = append(starts, from)
	}
	if n >= len(starts) {
		return 0
	}
	return starts[len(starts)-n]
}

// ============================================================================
// Undo and Redo
// ============================================================================

// Undo reverses the last command of the focused document.
func (w *Workspace) Undo() error {
	if w.focus == nil {
		return ErrNoFocus
	}
	return w.replay(history.Undo, w.focus.doc.Scope())
}

// Redo reapplies the last undone command of the focused document.
func (w *Workspace) Redo() error {
	if w.focus == nil {
		return ErrNoFocus
	}
	return w.replay(history.Redo, w.focus.doc.Scope())
}

// UndoGlobal reverses the last command filed under the global scope.
func (w *Workspace) UndoGlobal() error {
	return w.replay(history.Undo, history.GlobalScope())
}

// RedoGlobal reapplies the last undone global command.
func (w *Workspace) RedoGlobal() error {
	return w.replay(history.Redo, history.GlobalScope())
}

// replay undoes or redoes the top command of scope, then clamps every open
// editor on a document the command touched. Only the recording editor gets
// its view restored; the others, and a reopened view of a closed one, may
// be left past the end of a shorter text.
func (w *Workspace) replay(dir history.Direction, scope history.Scope) error {
	kind := history.UndoStack
	if dir == history.Redo {
		kind = history.RedoStack
	}
	g, ok := w.history.Stacks().Peek(scope, kind)

	var err error
	if dir == history.Redo {
		err = w.history.Redo(scope)
	} else {
		err = w.history.Undo(scope)
	}

	if ok {
		for _, s := range g.Scopes() {
			id, isDoc := s.Document()
			if !isDoc {
				continue
			}
			if ed := w.editors[id]; ed != nil {
				ed.clampView()
			}
		}
	}
	return err
}

// ScopeName returns a readable name for a history scope.
func (w *Workspace) ScopeName(s history.Scope) string {
	id, ok := s.Document()
	if !ok {
		return "global"
	}
	for name, d := range w.docs {
		if d.ID() == id {
			return name
		}
	}
	return s.String()
}
