// Package shell provides a line-oriented command interpreter over a
// workspace. It drives the REPL and script runner of the rewind command.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/logging"
)

// Shell errors.
var (
	// ErrQuit is returned by Execute for the quit command.
	ErrQuit = errors.New("quit requested")

	// ErrUnknownCommand indicates a command name with no handler.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage indicates a command was given the wrong arguments.
	ErrUsage = errors.New("usage")

	// ErrUnterminatedQuote indicates a quoted argument with no closing quote.
	ErrUnterminatedQuote = errors.New("unterminated quote")
)

// LineError reports the script line a command failed on.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Session interprets commands against one workspace.
type Session struct {
	ws  *engine.Workspace
	out io.Writer
	log *logging.Logger

	prompt      string
	stopOnError bool
	before      func()

	commands map[string]*command
}

// Option configures a Session.
type Option func(*Session)

// WithPrompt sets the prompt written before each line is read.
func WithPrompt(p string) Option {
	return func(s *Session) {
		s.prompt = p
	}
}

// WithStopOnError makes Run return at the first failing command.
func WithStopOnError(stop bool) Option {
	return func(s *Session) {
		s.stopOnError = stop
	}
}

// WithBeforeCommand registers fn to run on the session's goroutine before
// every command.
func WithBeforeCommand(fn func()) Option {
	return func(s *Session) {
		s.before = fn
	}
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a session writing results to out.
func New(ws *engine.Workspace, out io.Writer, opts ...Option) *Session {
	s := &Session{
		ws:  ws,
		out: out,
		log: logging.Null(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("shell")
	s.commands = builtins()
	return s
}

// Workspace returns the workspace the session drives.
func (s *Session) Workspace() *engine.Workspace {
	return s.ws
}

// Execute runs one command line. Blank lines and lines starting with # are
// ignored.
func (s *Session) Execute(line string) error {
	args, err := split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}

	cmd, ok := s.commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	if len(args)-1 < cmd.minArgs || (cmd.maxArgs >= 0 && len(args)-1 > cmd.maxArgs) {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}

	if s.before != nil {
		s.before()
	}
	s.log.Debug("exec %s", args[0])
	return cmd.run(s, args[1:])
}

// Run reads and executes lines from in until EOF, quit, or ctx is done.
// Errors are written to the output; with WithStopOnError the first one is
// returned as a *LineError instead.
func (s *Session) Run(ctx context.Context, in *bufio.Reader) error {
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.prompt != "" {
			fmt.Fprint(s.out, s.prompt)
		}

		line, readErr := in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		line = strings.TrimRight(line, "\r\n")

		if line != "" {
			err := s.Execute(line)
			switch {
			case errors.Is(err, ErrQuit):
				return nil
			case err != nil && s.stopOnError:
				return &LineError{Line: n, Text: line, Err: err}
			case err != nil:
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

// Commands returns the command names, sorted.
func (s *Session) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// split breaks a line into arguments. Double-quoted arguments may contain
// spaces and Go escape sequences.
func split(line string) ([]string, error) {
	var args []string
	i := 0
	for i < len(line) {
		switch c := line[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			end := closingQuote(line, i+1)
			if end < 0 {
				return nil, ErrUnterminatedQuote
			}
			arg, err := strconv.Unquote(line[i : end+1])
			if err != nil {
				return nil, fmt.Errorf("bad quoted argument %s: %w", line[i:end+1], err)
			}
			args = append(args, arg)
			i = end + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			args = append(args, line[i:j])
			i = j
		}
	}
	return args, nil
}

func closingQuote(line string, from int) int {
	for i := from; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
