package history

import "fmt"

// DefaultMaxDepth is the default per-scope undo depth.
const DefaultMaxDepth = 1000

// StackKind selects the undo or the redo stack of a scope.
type StackKind int

const (
	// UndoStack holds groups that can be undone.
	UndoStack StackKind = iota
	// RedoStack holds groups that can be redone.
	RedoStack
)

// String returns the stack name.
func (k StackKind) String() string {
	if k == RedoStack {
		return "redo"
	}
	return "undo"
}

// Opposite returns the other stack kind.
func (k StackKind) Opposite() StackKind {
	if k == RedoStack {
		return UndoStack
	}
	return RedoStack
}

// MergePolicy decides whether next may be merged into prev, the group on top
// of the undo stacks next would be pushed onto.
type MergePolicy func(prev, next *Group) bool

// stackPair holds the group ids filed under one scope, oldest first.
type stackPair struct {
	undo []GroupID
	redo []GroupID
}

func (p *stackPair) stack(kind StackKind) *[]GroupID {
	if kind == RedoStack {
		return &p.redo
	}
	return &p.undo
}

func (p *stackPair) empty() bool {
	return len(p.undo) == 0 && len(p.redo) == 0
}

// PushResult describes the outcome of Stacks.Push.
type PushResult struct {
	// Merged is the group the pushed group was merged into, if any.
	Merged *Group
	// Evicted lists groups dropped to honor the depth bound.
	Evicted []*Group
	// Discarded lists redo groups invalidated by the push.
	Discarded []*Group
}

// Stacks owns the undo and redo stacks of every scope.
//
// Groups live in an arena keyed by id; the per-scope stacks hold ids only, so
// a group filed under several scopes is the same entry in each of them.
type Stacks struct {
	arena    map[GroupID]*Group
	scopes   map[Scope]*stackPair
	maxDepth int
	merge    MergePolicy
}

// NewStacks creates empty stacks bounded to maxDepth entries per scope.
func NewStacks(maxDepth int) *Stacks {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stacks{
		arena:    make(map[GroupID]*Group),
		scopes:   make(map[Scope]*stackPair),
		maxDepth: maxDepth,
	}
}

// SetMergePolicy sets the policy used by Push. A nil policy disables merging.
func (s *Stacks) SetMergePolicy(p MergePolicy) {
	s.merge = p
}

// Push files a sealed group on the undo stack of each of its scopes and
// clears their redo stacks.
func (s *Stacks) Push(g *Group) (PushResult, error) {
	var res PushResult
	if g == nil || !g.sealed {
		return res, fmt.Errorf("push: %w", ErrEmptyGroup)
	}
	if len(g.actions) == 0 {
		return res, fmt.Errorf("push: %w", ErrEmptyGroup)
	}
	if len(g.scopes) == 0 {
		return res, fmt.Errorf("push: %w", ErrNoScopes)
	}
	if _, ok := s.arena[g.id]; ok {
		return res, fmt.Errorf("push %s: already filed", g.id)
	}

	for _, scope := range g.scopes {
		res.Discarded = append(res.Discarded, s.clearRedo(scope)...)
	}

	if t := s.mergeTarget(g); t != nil {
		if err := t.MergeWith(g, Redo); err == nil {
			res.Merged = t
			return res, nil
		}
	}

	s.arena[g.id] = g
	for _, scope := range g.scopes {
		p := s.pair(scope)
		p.undo = append(p.undo, g.id)
	}
	for _, scope := range g.scopes {
		res.Evicted = append(res.Evicted, s.trim(scope)...)
	}
	return res, nil
}

// mergeTarget returns the group g may be merged into, or nil.
func (s *Stacks) mergeTarget(g *Group) *Group {
	if s.merge == nil || g.GlobalOnly() {
		return nil
	}
	var target *Group
	for _, scope := range g.scopes {
		t, ok := s.Peek(scope, UndoStack)
		if !ok || (target != nil && t != target) {
			return nil
		}
		target = t
	}
	if target == nil || target.GlobalOnly() || target.progress != nil {
		return nil
	}
	if !target.scopes.equal(g.scopes) {
		return nil
	}
	if !s.merge(target, g) {
		return nil
	}
	return target
}

// Peek returns the top group of a scope's stack.
func (s *Stacks) Peek(scope Scope, kind StackKind) (*Group, bool) {
	p, ok := s.scopes[scope]
	if !ok {
		return nil, false
	}
	st := *p.stack(kind)
	if len(st) == 0 {
		return nil, false
	}
	return s.arena[st[len(st)-1]], true
}

// PeekUndo returns the group that would be undone next in scope.
func (s *Stacks) PeekUndo(scope Scope) (*Group, bool) {
	return s.Peek(scope, UndoStack)
}

// PeekRedo returns the group that would be redone next in scope.
func (s *Stacks) PeekRedo(scope Scope) (*Group, bool) {
	return s.Peek(scope, RedoStack)
}

// CheckTop verifies g is the top entry of the given stack in every scope it
// spans.
func (s *Stacks) CheckTop(g *Group, kind StackKind) error {
	for _, scope := range g.scopes {
		top, ok := s.Peek(scope, kind)
		if !ok || top != g {
			return fmt.Errorf("%s stack of %s: %w", kind, scope, ErrNotAtTop)
		}
	}
	return nil
}

// Transfer moves g from the top of the from stacks to the top of the
// opposite stacks in every scope it spans. Nothing changes on error.
func (s *Stacks) Transfer(g *Group, from StackKind) error {
	if err := s.CheckTop(g, from); err != nil {
		return err
	}
	to := from.Opposite()
	for _, scope := range g.scopes {
		p := s.scopes[scope]
		src := p.stack(from)
		*src = (*src)[:len(*src)-1]
		dst := p.stack(to)
		*dst = append(*dst, g.id)
	}
	return nil
}

// Depth returns the number of groups on a scope's stack.
func (s *Stacks) Depth(scope Scope, kind StackKind) int {
	p, ok := s.scopes[scope]
	if !ok {
		return 0
	}
	return len(*p.stack(kind))
}

// Entries returns the groups on a scope's stack, oldest first.
func (s *Stacks) Entries(scope Scope, kind StackKind) []*Group {
	p, ok := s.scopes[scope]
	if !ok {
		return nil
	}
	st := *p.stack(kind)
	out := make([]*Group, len(st))
	for i, id := range st {
		out[i] = s.arena[id]
	}
	return out
}

// Scopes returns every scope with a non-empty stack.
func (s *Stacks) Scopes() []Scope {
	out := make([]Scope, 0, len(s.scopes))
	for scope, p := range s.scopes {
		if !p.empty() {
			out = append(out, scope)
		}
	}
	return out
}

// Len returns the number of groups in the arena.
func (s *Stacks) Len() int {
	return len(s.arena)
}

// Clear drops every group filed under scope, from all scopes it spans.
//
// A dropped group that also spans another scope takes with it the entries
// of that scope recorded against its changes: the undo entries older than
// it and the redo entries undone before it. Those could never replay
// cleanly with the group gone. The cascade continues through any further
// scopes the extra entries span.
func (s *Stacks) Clear(scope Scope) []*Group {
	p, ok := s.scopes[scope]
	if !ok {
		return nil
	}
	pending := make([]GroupID, 0, len(p.undo)+len(p.redo))
	pending = append(append(pending, p.undo...), p.redo...)

	var dropped []*Group
	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		g, ok := s.arena[id]
		if !ok {
			continue
		}
		for _, other := range g.scopes {
			if q, ok := s.scopes[other]; ok && other != scope {
				pending = append(pending, below(q.undo, id)...)
				pending = append(pending, below(q.redo, id)...)
			}
		}
		s.remove(id)
		dropped = append(dropped, g)
	}
	delete(s.scopes, scope)
	return dropped
}

// ClearAll removes all groups.
func (s *Stacks) ClearAll() {
	s.arena = make(map[GroupID]*Group)
	s.scopes = make(map[Scope]*stackPair)
}

// MaxDepth returns the per-scope depth bound.
func (s *Stacks) MaxDepth() int {
	return s.maxDepth
}

// SetMaxDepth changes the depth bound, evicting the oldest groups of any
// scope that exceeds it.
func (s *Stacks) SetMaxDepth(n int) []*Group {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	s.maxDepth = n

	var evicted []*Group
	for scope := range s.scopes {
		evicted = append(evicted, s.trim(scope)...)
	}
	return evicted
}

// trim evicts the oldest entries of a scope until it fits the depth bound.
// Undo and redo together are bounded since a push clears redo.
func (s *Stacks) trim(scope Scope) []*Group {
	var evicted []*Group
	for {
		p, ok := s.scopes[scope]
		if !ok {
			return evicted
		}
		if len(p.undo)+len(p.redo) <= s.maxDepth {
			return evicted
		}
		// Drop the oldest undo entry; with no undo history left, drop the
		// redo entry furthest from the present.
		var id GroupID
		if len(p.undo) > 0 {
			id = p.undo[0]
		} else {
			id = p.redo[0]
		}
		if g := s.remove(id); g != nil {
			evicted = append(evicted, g)
		}
	}
}

// clearRedo drops the redo stack of a scope. Groups are removed from every
// scope they span, which keeps the redo history of a multi-scope group
// consistent.
func (s *Stacks) clearRedo(scope Scope) []*Group {
	p, ok := s.scopes[scope]
	if !ok || len(p.redo) == 0 {
		return nil
	}
	ids := append([]GroupID(nil), p.redo...)
	var dropped []*Group
	for _, id := range ids {
		if g := s.remove(id); g != nil {
			dropped = append(dropped, g)
		}
	}
	return dropped
}

// remove deletes a group from the arena and from every stack holding it.
func (s *Stacks) remove(id GroupID) *Group {
	g, ok := s.arena[id]
	if !ok {
		return nil
	}
	delete(s.arena, id)
	for _, scope := range g.scopes {
		p, ok := s.scopes[scope]
		if !ok {
			continue
		}
		p.undo = without(p.undo, id)
		p.redo = without(p.redo, id)
		if p.empty() {
			delete(s.scopes, scope)
		}
	}
	return g
}

func (s *Stacks) pair(scope Scope) *stackPair {
	p, ok := s.scopes[scope]
	if !ok {
		p = &stackPair{}
		s.scopes[scope] = p
	}
	return p
}

func without(ids []GroupID, id GroupID) []GroupID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// below returns the entries under id, oldest first.
func below(ids []GroupID, id GroupID) []GroupID {
	for i, x := range ids {
		if x == id {
			return append([]GroupID(nil), ids[:i]...)
		}
	}
	return nil
}
