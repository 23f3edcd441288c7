package history

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var errMismatch = errors.New("content mismatch")

// textDoc is a minimal document whose edits produce applied records.
type textDoc struct {
	id   uuid.UUID
	text string
}

func newTextDoc(text string) *textDoc {
	return &textDoc{id: uuid.New(), text: text}
}

func (d *textDoc) scope() Scope {
	return DocumentScope(d.id)
}

func (d *textDoc) put(off int, s string) error {
	if off < 0 || off > len(d.text) {
		return fmt.Errorf("offset %d: %w", off, errMismatch)
	}
	d.text = d.text[:off] + s + d.text[off:]
	return nil
}

func (d *textDoc) cut(off int, s string) error {
	if off < 0 || off+len(s) > len(d.text) || d.text[off:off+len(s)] != s {
		return errMismatch
	}
	d.text = d.text[:off] + d.text[off+len(s):]
	return nil
}

// insert applies an insertion and returns its record.
func (d *textDoc) insert(off int, s string) *Record {
	if err := d.put(off, s); err != nil {
		panic(err)
	}
	return NewAppliedRecord(
		func() error { return d.put(off, s) },
		func() error { return d.cut(off, s) },
		d.scope(),
	).Describe("insert " + s)
}

// fakeEditor records the view it was asked to restore.
type fakeEditor struct {
	view    ViewState
	closed  bool
	applied int
	pad     []byte
}

func (e *fakeEditor) View() ViewState { return e.view }

func (e *fakeEditor) ApplyView(v ViewState) {
	e.view = v
	e.applied++
}

func (e *fakeEditor) Closed() bool { return e.closed }

// failing returns a record whose effects fail while *fail is true.
func failing(fail *bool, scopes ...Scope) *Record {
	effect := func() error {
		if *fail {
			return errors.New("boom")
		}
		return nil
	}
	return NewAppliedRecord(effect, effect, scopes...)
}

// sealed builds a sealed group from records.
func sealed(name string, actions ...Action) *Group {
	g := NewGroup(name, Snapshot{})
	for _, a := range actions {
		if err := g.Append(a); err != nil {
			panic(err)
		}
	}
	if err := g.Seal(Snapshot{}); err != nil {
		panic(err)
	}
	return g
}

func noop(scopes ...Scope) *Record {
	return NewAppliedRecord(nil, nil, scopes...)
}

func ids(groups []*Group) []GroupID {
	out := make([]GroupID, len(groups))
	for i, g := range groups {
		out[i] = g.ID()
	}
	return out
}

func sameIDs(got []*Group, want ...*Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
