package history

import (
	"errors"
	"testing"
	"time"
)

func TestRecordSequence(t *testing.T) {
	calls := 0
	r := NewRecord(func() error { calls++; return nil }, func() error { calls--; return nil })

	if calls != 0 {
		t.Fatal("record ran an effect at construction")
	}
	if err := r.Undo(); !errors.Is(err, ErrSequenceViolation) {
		t.Errorf("Undo before Redo = %v, want ErrSequenceViolation", err)
	}
	if err := r.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if err := r.Redo(); !errors.Is(err, ErrSequenceViolation) {
		t.Errorf("second Redo = %v, want ErrSequenceViolation", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err := r.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if calls != 0 || r.Applied() {
		t.Errorf("after Undo: calls = %d, applied = %v", calls, r.Applied())
	}
}

func TestRecordFailedEffectKeepsState(t *testing.T) {
	r := NewAppliedRecord(nil, func() error { return errors.New("gone") })
	if err := r.Undo(); err == nil {
		t.Fatal("expected undo error")
	}
	if !r.Applied() {
		t.Error("failed undo changed the applied state")
	}
}

func TestGroupAppendAfterSeal(t *testing.T) {
	g := NewGroup("edit", Snapshot{})
	if err := g.Append(noop(GlobalScope())); err != nil {
		t.Fatal(err)
	}
	if err := g.Seal(Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if err := g.Append(noop(GlobalScope())); !errors.Is(err, ErrGroupSealed) {
		t.Errorf("Append after Seal = %v, want ErrGroupSealed", err)
	}
	if err := g.Seal(Snapshot{}); !errors.Is(err, ErrGroupSealed) {
		t.Errorf("second Seal = %v, want ErrGroupSealed", err)
	}
}

func TestGroupSealEmpty(t *testing.T) {
	g := NewGroup("nothing", Snapshot{})
	if err := g.Seal(Snapshot{}); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("Seal on empty group = %v, want ErrEmptyGroup", err)
	}
	if g.Sealed() {
		t.Error("empty group was sealed")
	}
}

func TestGroupScopes(t *testing.T) {
	d1, d2 := newTextDoc(""), newTextDoc("")

	tests := []struct {
		name       string
		actions    []Action
		global     bool
		want       []Scope
		globalOnly bool
	}{
		{"single document", []Action{noop(d1.scope()), noop(d1.scope())}, false, []Scope{d1.scope()}, false},
		{"two documents", []Action{noop(d1.scope()), noop(d2.scope(), d1.scope())}, false, []Scope{d1.scope(), d2.scope()}, false},
		{"no scopes is global", []Action{noop()}, false, []Scope{GlobalScope()}, true},
		{"marked global", []Action{noop(d1.scope())}, true, []Scope{d1.scope(), GlobalScope()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGroup(tt.name, Snapshot{})
			for _, a := range tt.actions {
				_ = g.Append(a)
			}
			if tt.global {
				_ = g.MarkGlobal()
			}
			if err := g.Seal(Snapshot{}); err != nil {
				t.Fatal(err)
			}
			got := g.Scopes()
			if len(got) != len(tt.want) {
				t.Fatalf("Scopes() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Scopes()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if g.GlobalOnly() != tt.globalOnly {
				t.Errorf("GlobalOnly() = %v, want %v", g.GlobalOnly(), tt.globalOnly)
			}
		})
	}
}

func TestGroupMergeWith(t *testing.T) {
	doc := newTextDoc("")
	first := NewGroup("Typing", Snapshot{View: ViewState{Caret: 0}})
	_ = first.Append(doc.insert(0, "a"))
	_ = first.Seal(Snapshot{View: ViewState{Caret: 1}})

	second := NewGroup("Typing", Snapshot{View: ViewState{Caret: 1}})
	_ = second.Append(doc.insert(1, "b"))
	_ = second.Seal(Snapshot{View: ViewState{Caret: 2}})

	if err := first.MergeWith(second, Redo); err != nil {
		t.Fatalf("MergeWith failed: %v", err)
	}
	if first.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", first.Len())
	}
	if first.Before().View.Caret != 0 || first.After().View.Caret != 2 {
		t.Errorf("merged snapshots = %d..%d, want 0..2", first.Before().View.Caret, first.After().View.Caret)
	}

	if err := first.run(Undo); err != nil {
		t.Fatal(err)
	}
	if doc.text != "" {
		t.Errorf("text after merged undo = %q, want empty", doc.text)
	}
}

func TestGroupMergeEarlier(t *testing.T) {
	doc := newTextDoc("")
	earlier := NewGroup("e", Snapshot{View: ViewState{Scroll: 1}})
	_ = earlier.Append(doc.insert(0, "x"))
	_ = earlier.Seal(Snapshot{})

	later := NewGroup("l", Snapshot{View: ViewState{Scroll: 2}})
	_ = later.Append(doc.insert(1, "y"))
	_ = later.Seal(Snapshot{View: ViewState{Scroll: 3}})

	if err := later.MergeWith(earlier, Undo); err != nil {
		t.Fatal(err)
	}
	if later.Before().View.Scroll != 1 || later.After().View.Scroll != 3 {
		t.Errorf("snapshots = %d..%d, want 1..3", later.Before().View.Scroll, later.After().View.Scroll)
	}
	if err := later.run(Undo); err != nil {
		t.Fatalf("undo merged group: %v", err)
	}
	if doc.text != "" {
		t.Errorf("text = %q, want empty", doc.text)
	}
}

func TestGroupMergeIneligible(t *testing.T) {
	doc := newTextDoc("")
	open := NewGroup("open", Snapshot{})
	_ = open.Append(noop(doc.scope()))

	tests := []struct {
		name string
		a, b *Group
	}{
		{"open group", sealed("a", noop(doc.scope())), open},
		{"global only", sealed("a", noop(doc.scope())), sealed("g", noop(GlobalScope()))},
		{"self", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.a, tt.b
			if a == nil {
				a = sealed("x", noop(doc.scope()))
				b = a
			}
			if err := a.MergeWith(b, Redo); !errors.Is(err, ErrNotMergeable) {
				t.Errorf("MergeWith = %v, want ErrNotMergeable", err)
			}
		})
	}
}

func TestMergeConsecutive(t *testing.T) {
	policy := MergeConsecutive(time.Minute)

	prev := NewGroup("Typing", Snapshot{})
	_ = prev.Append(noop(GlobalScope()))
	_ = prev.Seal(Snapshot{View: ViewState{Caret: 3}})

	next := NewGroup("Typing", Snapshot{View: ViewState{Caret: 3}})
	if !policy(prev, next) {
		t.Error("expected consecutive typing to merge")
	}

	moved := NewGroup("Typing", Snapshot{View: ViewState{Caret: 7}})
	if policy(prev, moved) {
		t.Error("caret moved between commands; expected no merge")
	}

	other := NewGroup("Paste", Snapshot{View: ViewState{Caret: 3}})
	if policy(prev, other) {
		t.Error("different command names; expected no merge")
	}

	if MergeConsecutive(-time.Second)(prev, next) {
		t.Error("expected window to reject")
	}
}
