package history

import "fmt"

// Action is a single reversible operation recorded in a Group.
//
// Redo applies the forward effect and Undo the backward effect. The history
// only calls them alternately: an action appended to a Group is assumed to
// have been applied already, so the first call it receives is Undo.
type Action interface {
	// Redo applies the forward effect.
	Redo() error

	// Undo applies the backward effect.
	Undo() error

	// Scopes returns the scopes the action touches. An action with no scopes
	// is attributed to the global scope.
	Scopes() []Scope
}

// Describer is implemented by actions that can describe themselves.
type Describer interface {
	Description() string
}

// Record is an Action built from a pair of functions.
//
// Record guards the redo/undo alternation itself: calling Undo before Redo,
// or Redo twice, returns ErrSequenceViolation without running the effect.
type Record struct {
	redo    func() error
	undo    func() error
	scopes  []Scope
	name    string
	applied bool
}

// NewRecord creates a record that has not been applied yet.
// Nothing runs until Redo is called.
func NewRecord(redo, undo func() error, scopes ...Scope) *Record {
	return &Record{
		redo:   redo,
		undo:   undo,
		scopes: scopes,
	}
}

// NewAppliedRecord creates a record whose forward effect has already happened.
func NewAppliedRecord(redo, undo func() error, scopes ...Scope) *Record {
	r := NewRecord(redo, undo, scopes...)
	r.applied = true
	return r
}

// Describe sets the description and returns the record for chaining.
func (r *Record) Describe(name string) *Record {
	r.name = name
	return r
}

// Redo runs the forward effect.
func (r *Record) Redo() error {
	if r.applied {
		return fmt.Errorf("redo %s: %w", r.label(), ErrSequenceViolation)
	}
	if r.redo != nil {
		if err := r.redo(); err != nil {
			return err
		}
	}
	r.applied = true
	return nil
}

// Undo runs the backward effect.
func (r *Record) Undo() error {
	if !r.applied {
		return fmt.Errorf("undo %s: %w", r.label(), ErrSequenceViolation)
	}
	if r.undo != nil {
		if err := r.undo(); err != nil {
			return err
		}
	}
	r.applied = false
	return nil
}

// Applied returns true if the forward effect is currently in place.
func (r *Record) Applied() bool {
	return r.applied
}

// Scopes returns the scopes the record touches.
func (r *Record) Scopes() []Scope {
	return r.scopes
}

// Description returns the record's name.
func (r *Record) Description() string {
	return r.name
}

func (r *Record) label() string {
	if r.name == "" {
		return "record"
	}
	return fmt.Sprintf("%q", r.name)
}
