package history

import (
	"fmt"
	"strings"
)

// Direction selects which way a group is replayed.
type Direction int

const (
	// Undo reverses a group, replaying its actions last to first.
	Undo Direction = iota
	// Redo reapplies a group, replaying its actions first to last.
	Redo
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Redo {
		return "redo"
	}
	return "undo"
}

// source returns the stack a group is taken from.
func (d Direction) source() StackKind {
	if d == Redo {
		return RedoStack
	}
	return UndoStack
}

func (d Direction) nothing() error {
	if d == Redo {
		return ErrNothingToRedo
	}
	return ErrNothingToUndo
}

// Prompt describes a confirmation request.
type Prompt struct {
	Direction Direction
	Command   string
	Focus     Scope
	Others    []Scope
}

// Message returns the question to show the user.
func (p Prompt) Message() string {
	return p.Format(Scope.String)
}

// Format is Message with scopes rendered by name.
func (p Prompt) Format(name func(Scope) string) string {
	verb := "Undo"
	if p.Direction == Redo {
		verb = "Redo"
	}
	cmd := p.Command
	if cmd == "" {
		cmd = "last action"
	}
	others := make([]string, len(p.Others))
	for i, s := range p.Others {
		others[i] = name(s)
	}
	return fmt.Sprintf("%s %s? It also affects %s.", verb, cmd, strings.Join(others, ", "))
}

// Confirmer asks the user whether to proceed.
type Confirmer interface {
	Confirm(p Prompt) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(p Prompt) bool

// Confirm calls f(p).
func (f ConfirmFunc) Confirm(p Prompt) bool {
	return f(p)
}

// AutoConfirm accepts every prompt. It is the default for headless use.
var AutoConfirm Confirmer = ConfirmFunc(func(Prompt) bool { return true })

// replay runs the operation shared by Undo and Redo. Every check happens
// before the first effect, and the stacks only change once every action
// succeeded.
func (m *Manager) replay(dir Direction, focus Scope) error {
	if m.busy || m.open != nil {
		return ErrCommandInProgress
	}

	from := dir.source()
	g, ok := m.stacks.Peek(focus, from)
	if !ok {
		return dir.nothing()
	}
	if err := m.stacks.CheckTop(g, from); err != nil {
		m.log.Error("%s %q aborted: %v", dir, g.Description(), err)
		return err
	}

	m.busy = true
	defer func() { m.busy = false }()

	if others := otherScopes(g, focus); len(others) > 0 {
		p := Prompt{Direction: dir, Command: g.Description(), Focus: focus, Others: others}
		if !m.confirm.Confirm(p) {
			m.log.Debug("%s %q declined", dir, g.Description())
			return ErrDeclined
		}
	}

	// The live view is what the opposite replay must return to, which may
	// differ from the view recorded when the command ended.
	var live Snapshot
	if dir == Undo {
		live = g.after.Recapture()
	} else {
		live = g.before.Recapture()
	}

	if err := g.run(dir); err != nil {
		m.log.Warn("%v", err)
		return err
	}

	if dir == Undo {
		g.after = live
		g.before.Restore()
	} else {
		g.before = live
		g.after.Restore()
	}

	if err := m.stacks.Transfer(g, from); err != nil {
		return err
	}
	m.log.Debug("%s %q across %d scope(s)", dir, g.Description(), len(g.scopes))
	return nil
}

// run replays the group's actions. An interrupted replay in the same
// direction resumes after the actions that already succeeded.
func (g *Group) run(dir Direction) error {
	n := len(g.actions)
	start := 0
	if g.progress != nil && g.progress.dir == dir {
		start = g.progress.done
	}

	for i := start; i < n; i++ {
		idx := i
		if dir == Undo {
			idx = n - 1 - i
		}

		a := g.actions[idx]
		var err error
		if dir == Undo {
			err = a.Undo()
		} else {
			err = a.Redo()
		}
		if err != nil {
			g.progress = &progress{dir: dir, done: i}
			return &PartialFailureError{
				Direction: dir,
				Group:     g.Description(),
				Index:     idx,
				Done:      i,
				Err:       err,
			}
		}
	}

	g.progress = nil
	return nil
}

func otherScopes(g *Group, focus Scope) []Scope {
	var out []Scope
	for _, s := range g.scopes {
		if s != focus {
			out = append(out, s)
		}
	}
	return out
}
