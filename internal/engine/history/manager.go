package history

import (
	"fmt"

	"github.com/dshills/rewind/internal/logging"
)

// Manager records commands and replays them per scope.
//
// A Manager is either idle or recording one command. StartCommand opens a
// group, actions are appended to it, and EndCommand seals the group and files
// it under every scope it touched.
type Manager struct {
	stacks *Stacks

	// Recording state
	open       *Group
	openEditor EditorRef
	depth      int

	// busy is set while a group is being replayed or a prompt is pending.
	busy bool

	confirm Confirmer
	log     *logging.Logger
}

// NewManager creates a history manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		stacks:  NewStacks(DefaultMaxDepth),
		confirm: AutoConfirm,
		log:     logging.Null(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartCommand begins recording a command. The view state of editor is
// captured as the group's before snapshot; editor may be nil.
// Starting a command while one is recording continues the outer command.
func (m *Manager) StartCommand(name string, editor EditorRef) error {
	if m.busy {
		return ErrCommandInProgress
	}
	if m.open != nil {
		m.depth++
		return nil
	}
	m.open = NewGroup(name, CaptureSnapshot(editor))
	m.openEditor = editor
	m.depth = 1
	return nil
}

// Append records an action that has already been applied.
// Outside of a command the action is filed as a command of its own.
func (m *Manager) Append(a Action) error {
	if m.busy {
		return ErrCommandInProgress
	}
	if m.open != nil {
		return m.open.Append(a)
	}

	name := ""
	if d, ok := a.(Describer); ok {
		name = d.Description()
	}
	g := NewGroup(name, Snapshot{})
	if err := g.Append(a); err != nil {
		return err
	}
	if err := g.Seal(Snapshot{}); err != nil {
		return err
	}
	return m.file(g)
}

// Do applies an action and records it. If the action fails the current
// command is aborted.
func (m *Manager) Do(a Action) error {
	if m.busy {
		return ErrCommandInProgress
	}
	if err := a.Redo(); err != nil {
		if m.open != nil {
			m.log.Warn("command %q aborted: %v", m.open.Name(), err)
			m.CancelCommand()
		}
		return fmt.Errorf("do: %w", err)
	}
	return m.Append(a)
}

// MarkGlobal files the current command under the global scope as well.
func (m *Manager) MarkGlobal() error {
	if m.open == nil {
		return nil
	}
	return m.open.MarkGlobal()
}

// EndCommand finishes the current command. The outermost EndCommand seals
// the group and files it; a command that recorded nothing is discarded.
func (m *Manager) EndCommand() error {
	if m.open == nil {
		return nil
	}
	m.depth--
	if m.depth > 0 {
		return nil
	}

	g, editor := m.open, m.openEditor
	m.open, m.openEditor = nil, nil

	if g.Len() == 0 {
		m.log.Debug("command %q recorded nothing", g.Name())
		return nil
	}
	if err := g.Seal(CaptureSnapshot(editor)); err != nil {
		return err
	}
	return m.file(g)
}

// CancelCommand discards the current command, nested levels included.
// Actions already applied stay applied.
func (m *Manager) CancelCommand() {
	m.open = nil
	m.openEditor = nil
	m.depth = 0
}

// IsRecording returns true while a command is open.
func (m *Manager) IsRecording() bool {
	return m.open != nil
}

// Transaction runs fn as one command. If fn returns an error the command is
// cancelled and the error returned.
func (m *Manager) Transaction(name string, editor EditorRef, fn func() error) error {
	if err := m.StartCommand(name, editor); err != nil {
		return err
	}
	if err := fn(); err != nil {
		m.CancelCommand()
		return err
	}
	return m.EndCommand()
}

func (m *Manager) file(g *Group) error {
	res, err := m.stacks.Push(g)
	if err != nil {
		return err
	}
	if res.Merged != nil {
		m.log.Debug("merged %q into %s", g.Description(), res.Merged.ID())
	} else {
		m.log.Debug("filed %q under %d scope(s)", g.Description(), len(g.scopes))
	}
	if len(res.Discarded) > 0 {
		m.log.Debug("discarded %d redo group(s)", len(res.Discarded))
	}
	for _, e := range res.Evicted {
		m.log.Debug("evicted %q", e.Description())
	}
	return nil
}

// Undo reverses the most recent command of scope.
func (m *Manager) Undo(scope Scope) error {
	return m.replay(Undo, scope)
}

// Redo reapplies the most recently undone command of scope.
func (m *Manager) Redo(scope Scope) error {
	return m.replay(Redo, scope)
}

// CanUndo returns true if scope has a command to undo.
func (m *Manager) CanUndo(scope Scope) bool {
	return m.stacks.Depth(scope, UndoStack) > 0
}

// CanRedo returns true if scope has a command to redo.
func (m *Manager) CanRedo(scope Scope) bool {
	return m.stacks.Depth(scope, RedoStack) > 0
}

// UndoName returns the description of the next command to undo in scope.
func (m *Manager) UndoName(scope Scope) (string, bool) {
	g, ok := m.stacks.PeekUndo(scope)
	if !ok {
		return "", false
	}
	return g.Description(), true
}

// RedoName returns the description of the next command to redo in scope.
func (m *Manager) RedoName(scope Scope) (string, bool) {
	g, ok := m.stacks.PeekRedo(scope)
	if !ok {
		return "", false
	}
	return g.Description(), true
}

// UndoInfo returns the undo stack of scope, oldest first.
func (m *Manager) UndoInfo(scope Scope) []GroupInfo {
	return infos(m.stacks.Entries(scope, UndoStack))
}

// RedoInfo returns the redo stack of scope, oldest first.
func (m *Manager) RedoInfo(scope Scope) []GroupInfo {
	return infos(m.stacks.Entries(scope, RedoStack))
}

func infos(groups []*Group) []GroupInfo {
	out := make([]GroupInfo, len(groups))
	for i, g := range groups {
		out[i] = g.Info()
	}
	return out
}

// Stacks returns the underlying stacks.
func (m *Manager) Stacks() *Stacks {
	return m.stacks
}

// Forget drops every command filed under scope, typically when its document
// is disposed. Commands spanning other scopes are dropped from those too,
// along with the older history of those scopes that depended on them; see
// Stacks.Clear.
func (m *Manager) Forget(scope Scope) error {
	if m.busy {
		return ErrCommandInProgress
	}
	dropped := m.stacks.Clear(scope)
	if len(dropped) > 0 {
		m.log.Debug("forgot %d group(s) of %s", len(dropped), scope)
	}
	return nil
}

// Clear removes all history and any command being recorded.
func (m *Manager) Clear() error {
	if m.busy {
		return ErrCommandInProgress
	}
	m.stacks.ClearAll()
	m.CancelCommand()
	return nil
}

// SetMaxDepth changes the per-scope depth bound.
// Scopes above the new bound lose their oldest commands.
func (m *Manager) SetMaxDepth(n int) error {
	if m.busy {
		return ErrCommandInProgress
	}
	evicted := m.stacks.SetMaxDepth(n)
	if len(evicted) > 0 {
		m.log.Info("max depth %d: evicted %d group(s)", m.stacks.MaxDepth(), len(evicted))
	}
	return nil
}

// SetMergePolicy replaces the merge policy. Nil disables merging.
func (m *Manager) SetMergePolicy(p MergePolicy) error {
	if m.busy {
		return ErrCommandInProgress
	}
	m.stacks.SetMergePolicy(p)
	return nil
}

// MaxDepth returns the per-scope depth bound.
func (m *Manager) MaxDepth() int {
	return m.stacks.MaxDepth()
}
