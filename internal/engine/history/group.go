package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GroupID uniquely identifies a group in the stacks arena.
type GroupID = uuid.UUID

// Group is the ordered set of actions produced by one user command.
// A group is open while its command runs, then sealed. Sealed groups are
// never partially undone: they are the unit that moves between stacks.
type Group struct {
	id      GroupID
	name    string
	actions []Action

	scopes scopeSet
	global bool

	before Snapshot
	after  Snapshot

	started  time.Time
	sealedAt time.Time
	sealed   bool

	// progress is set while a replay is interrupted part way through.
	progress *progress
}

type progress struct {
	dir  Direction
	done int
}

// NewGroup creates an open group.
func NewGroup(name string, before Snapshot) *Group {
	return &Group{
		id:      uuid.New(),
		name:    name,
		before:  before,
		started: time.Now(),
	}
}

// Append adds an action to an open group.
func (g *Group) Append(a Action) error {
	if g.sealed {
		return ErrGroupSealed
	}
	g.actions = append(g.actions, a)
	return nil
}

// MarkGlobal files the group under the global scope in addition to the
// scopes of its actions.
func (g *Group) MarkGlobal() error {
	if g.sealed {
		return ErrGroupSealed
	}
	g.global = true
	return nil
}

// Seal closes the group and resolves its scopes.
func (g *Group) Seal(after Snapshot) error {
	if g.sealed {
		return ErrGroupSealed
	}
	if len(g.actions) == 0 {
		return ErrEmptyGroup
	}

	var scopes scopeSet
	for _, a := range g.actions {
		s := a.Scopes()
		if len(s) == 0 {
			scopes = scopes.add(GlobalScope())
			continue
		}
		scopes = scopes.add(s...)
	}
	if g.global {
		scopes = scopes.add(GlobalScope())
	}

	g.scopes = scopes
	g.after = after
	g.sealedAt = time.Now()
	g.sealed = true
	return nil
}

// MergeWith absorbs an adjacent group. With Redo, other is the later group;
// with Undo, other is the earlier one. The merged group keeps the outermost
// view snapshots and the actions of both in chronological order.
func (g *Group) MergeWith(other *Group, dir Direction) error {
	if other == nil || other == g {
		return ErrNotMergeable
	}
	if !g.sealed || !other.sealed {
		return fmt.Errorf("%w: group is still open", ErrNotMergeable)
	}
	if g.GlobalOnly() || other.GlobalOnly() {
		return fmt.Errorf("%w: global group", ErrNotMergeable)
	}
	if g.progress != nil || other.progress != nil {
		return fmt.Errorf("%w: group was partially replayed", ErrNotMergeable)
	}

	actions := make([]Action, 0, len(g.actions)+len(other.actions))
	switch dir {
	case Redo:
		actions = append(append(actions, g.actions...), other.actions...)
		g.after = other.after
		g.sealedAt = other.sealedAt
	case Undo:
		actions = append(append(actions, other.actions...), g.actions...)
		g.before = other.before
		g.started = other.started
	default:
		return fmt.Errorf("%w: unknown direction %d", ErrNotMergeable, dir)
	}

	g.actions = actions
	g.scopes = g.scopes.add(other.scopes...)
	g.global = g.global || other.global
	return nil
}

// ID returns the group's identifier.
func (g *Group) ID() GroupID {
	return g.id
}

// Name returns the command name.
func (g *Group) Name() string {
	return g.name
}

// Description returns the command name, falling back to the description of
// a single action.
func (g *Group) Description() string {
	if g.name != "" {
		return g.name
	}
	if len(g.actions) == 1 {
		if d, ok := g.actions[0].(Describer); ok {
			return d.Description()
		}
	}
	return ""
}

// Len returns the number of actions.
func (g *Group) Len() int {
	return len(g.actions)
}

// Actions returns a copy of the action sequence.
func (g *Group) Actions() []Action {
	out := make([]Action, len(g.actions))
	copy(out, g.actions)
	return out
}

// Scopes returns the scopes the sealed group is filed under.
func (g *Group) Scopes() []Scope {
	out := make([]Scope, len(g.scopes))
	copy(out, g.scopes)
	return out
}

// Spans returns true if the group is filed under scope.
func (g *Group) Spans(scope Scope) bool {
	return g.scopes.contains(scope)
}

// Global returns true if the group touches the global scope.
func (g *Group) Global() bool {
	return g.scopes.contains(GlobalScope())
}

// GlobalOnly returns true if the global scope is the only scope.
func (g *Group) GlobalOnly() bool {
	return len(g.scopes) == 1 && g.scopes[0].IsGlobal()
}

// Sealed returns true once the group has been sealed.
func (g *Group) Sealed() bool {
	return g.sealed
}

// Before returns the view snapshot taken when the command started.
func (g *Group) Before() Snapshot {
	return g.before
}

// After returns the view snapshot taken when the command ended.
func (g *Group) After() Snapshot {
	return g.after
}

// Started returns when the command started.
func (g *Group) Started() time.Time {
	return g.started
}

// SealedAt returns when the command ended.
func (g *Group) SealedAt() time.Time {
	return g.sealedAt
}

// Partial returns true if the last replay of the group stopped part way.
func (g *Group) Partial() bool {
	return g.progress != nil
}

// GroupInfo provides read-only info about a group.
// Used for displaying undo/redo history to users.
type GroupInfo struct {
	ID          GroupID
	Description string
	Scopes      []Scope
	Actions     int
	Timestamp   time.Time
	Partial     bool
}

// Info returns a summary of the group.
func (g *Group) Info() GroupInfo {
	return GroupInfo{
		ID:          g.id,
		Description: g.Description(),
		Scopes:      g.Scopes(),
		Actions:     len(g.actions),
		Timestamp:   g.sealedAt,
		Partial:     g.progress != nil,
	}
}
