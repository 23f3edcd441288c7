package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
)

type command struct {
	usage   string
	help    string
	minArgs int
	maxArgs int // -1 for no limit
	run     func(s *Session, args []string) error
}

func builtins() map[string]*command {
	return map[string]*command{
		"open": {"open <name> [text]", "open a document and focus it", 1, 2, cmdOpen},
		"focus": {"focus <name>", "focus a document, reopening its view if closed", 1, 1, func(s *Session, a []string) error {
			_, err := s.ws.Focus(a[0])
			return err
		}},
		"close": {"close <name>", "close the view on a document, keeping its history", 1, 1, func(s *Session, a []string) error {
			return s.ws.CloseEditor(a[0])
		}},
		"dispose": {"dispose <name>", "close a document and drop its history", 1, 1, func(s *Session, a []string) error {
			return s.ws.Dispose(a[0])
		}},

		"type": {"type <text>...", "type text one character at a time", 1, -1, func(s *Session, a []string) error {
			return s.ws.Type(strings.Join(a, " "))
		}},
		"insert": {"insert <text>...", "insert text as a single command", 1, -1, func(s *Session, a []string) error {
			return s.ws.Insert(strings.Join(a, " "))
		}},
		"backspace": {"backspace [n]", "delete the selection or n characters before the caret", 0, 1, cmdBackspace},
		"replace":   {"replace <old> <new>", "replace text in every open document", 2, 2, cmdReplace},
		"set": {"set <key> <value>", "change a global setting", 2, 2, func(s *Session, a []string) error {
			return s.ws.Set(a[0], a[1])
		}},

		"move":   {"move <offset>", "place the caret", 1, 1, cmdMove},
		"select": {"select <anchor> <head>", "select a range", 2, 2, cmdSelect},
		"scroll": {"scroll <line>", "scroll to a line", 1, 1, cmdScroll},

		"undo":        {"undo", "undo the last command of the focused document", 0, 0, replay(history.Undo, false)},
		"redo":        {"redo", "redo the last undone command of the focused document", 0, 0, replay(history.Redo, false)},
		"undo-global": {"undo-global", "undo the last global command", 0, 0, replay(history.Undo, true)},
		"redo-global": {"redo-global", "redo the last undone global command", 0, 0, replay(history.Redo, true)},

		"show":    {"show [name]", "print documents with caret and selection", 0, 1, cmdShow},
		"history": {"history [name|global]", "print the undo and redo stacks", 0, 1, cmdHistory},
		"help":    {"help", "list commands", 0, 0, cmdHelp},
		"quit": {"quit", "leave the session", 0, 0, func(*Session, []string) error {
			return ErrQuit
		}},
	}
}

// ============================================================================
// Editing
// ============================================================================

func cmdOpen(s *Session, a []string) error {
	text := ""
	if len(a) > 1 {
		text = a[1]
	}
	_, err := s.ws.Open(a[0], text)
	return err
}

func cmdBackspace(s *Session, a []string) error {
	n := 1
	if len(a) == 1 {
		var err error
		if n, err = atoi(a[0]); err != nil {
			return err
		}
	}
	return s.ws.Backspace(n)
}

func cmdReplace(s *Session, a []string) error {
	n, err := s.ws.ReplaceAll(a[0], a[1])
	if err != nil {
		return err
	}
	s.printf("replaced %d occurrence(s)\n", n)
	return nil
}

// ============================================================================
// View
// ============================================================================

func focused(s *Session) (*engine.Editor, error) {
	ed := s.ws.Focused()
	if ed == nil {
		return nil, engine.ErrNoFocus
	}
	return ed, nil
}

func cmdMove(s *Session, a []string) error {
	ed, err := focused(s)
	if err != nil {
		return err
	}
	off, err := atoi(a[0])
	if err != nil {
		return err
	}
	ed.MoveCaret(off)
	return nil
}

func cmdSelect(s *Session, a []string) error {
	ed, err := focused(s)
	if err != nil {
		return err
	}
	anchor, err := atoi(a[0])
	if err != nil {
		return err
	}
	head, err := atoi(a[1])
	if err != nil {
		return err
	}
	ed.Select(anchor, head)
	return nil
}

func cmdScroll(s *Session, a []string) error {
	ed, err := focused(s)
	if err != nil {
		return err
	}
	line, err := atoi(a[0])
	if err != nil {
		return err
	}
	ed.Scroll(line)
	return nil
}

// ============================================================================
// History
// ============================================================================

func replay(dir history.Direction, global bool) func(*Session, []string) error {
	return func(s *Session, _ []string) error {
		scope := history.GlobalScope()
		if !global {
			ed, err := focused(s)
			if err != nil {
				return err
			}
			scope = ed.Document().Scope()
		}

		h := s.ws.History()
		name, _ := h.UndoName(scope)
		if dir == history.Redo {
			name, _ = h.RedoName(scope)
		}

		var err error
		switch {
		case dir == history.Undo && global:
			err = s.ws.UndoGlobal()
		case dir == history.Undo:
			err = s.ws.Undo()
		case global:
			err = s.ws.RedoGlobal()
		default:
			err = s.ws.Redo()
		}

		switch {
		case errors.Is(err, history.ErrNothingToDo):
			s.printf("%v\n", err)
			return nil
		case errors.Is(err, history.ErrDeclined):
			s.printf("%s %s cancelled\n", dir, name)
			return nil
		case err != nil:
			return err
		}
		s.printf("%s %s\n", dir, name)
		return nil
	}
}

func cmdHistory(s *Session, a []string) error {
	var scope history.Scope
	switch {
	case len(a) == 1 && a[0] == "global":
		scope = history.GlobalScope()
	case len(a) == 1:
		doc, ok := s.ws.Document(a[0])
		if !ok {
			return fmt.Errorf("history %s: %w", a[0], engine.ErrNoDocument)
		}
		scope = doc.Scope()
	default:
		ed, err := focused(s)
		if err != nil {
			return err
		}
		scope = ed.Document().Scope()
	}

	h := s.ws.History()
	name := s.ws.ScopeName(scope)
	s.printStack("undo", name, h.UndoInfo(scope))
	s.printStack("redo", name, h.RedoInfo(scope))
	return nil
}

func (s *Session) printStack(kind, scope string, infos []history.GroupInfo) {
	if len(infos) == 0 {
		s.printf("%s (%s): empty\n", kind, scope)
		return
	}
	s.printf("%s (%s):\n", kind, scope)
	// Most recent first.
	for i := len(infos) - 1; i >= 0; i-- {
		info := infos[i]
		names := make([]string, len(info.Scopes))
		for j, sc := range info.Scopes {
			names[j] = s.ws.ScopeName(sc)
		}
		partial := ""
		if info.Partial {
			partial = " (partial)"
		}
		s.printf("  %s [%s] %d action(s)%s\n", info.Description, strings.Join(names, ", "), info.Actions, partial)
	}
}

// ============================================================================
// Output
// ============================================================================

func cmdShow(s *Session, a []string) error {
	docs := s.ws.Documents()
	if len(a) == 1 {
		doc, ok := s.ws.Document(a[0])
		if !ok {
			return fmt.Errorf("show %s: %w", a[0], engine.ErrNoDocument)
		}
		docs = docs[:0]
		docs = append(docs, doc)
	}

	focus := s.ws.Focused()
	for _, doc := range docs {
		ed, open := s.ws.Editor(doc.Name())
		mark := " "
		if open && ed == focus {
			mark = "*"
		}
		if !open {
			s.printf("%s%s %q (closed)\n", mark, doc.Name(), doc.Text())
			continue
		}
		s.printf("%s%s %s scroll=%d\n", mark, doc.Name(), render(doc.Text(), ed.Selection()), ed.ScrollOffset())
	}
	if len(s.ws.Documents()) == 0 {
		s.printf("no documents\n")
	}
	return nil
}

// render quotes text with the caret shown as | and a selection in brackets.
func render(text string, sel history.Span) string {
	start := min(max(sel.Start(), 0), len(text))
	end := min(max(sel.End(), start), len(text))
	if start == end {
		return strconv.Quote(text[:start] + "|" + text[start:])
	}
	return strconv.Quote(text[:start] + "[" + text[start:end] + "]" + text[end:])
}

func cmdHelp(s *Session, _ []string) error {
	for _, name := range s.Commands() {
		cmd := s.commands[name]
		s.printf("  %-24s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrUsage, s)
	}
	return n, nil
}
