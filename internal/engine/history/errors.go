package history

import (
	"errors"
	"fmt"
)

// Errors returned by history operations.
var (
	// ErrGroupSealed indicates an append to a group that has already been sealed.
	ErrGroupSealed = errors.New("group is sealed")

	// ErrEmptyGroup indicates an attempt to seal or file a group with no actions.
	ErrEmptyGroup = errors.New("group has no actions")

	// ErrNoScopes indicates a group that touches no scope.
	ErrNoScopes = errors.New("group has no scopes")

	// ErrNotMergeable indicates two groups that cannot be merged.
	ErrNotMergeable = errors.New("groups cannot be merged")

	// ErrSequenceViolation indicates an effect was called out of redo/undo order.
	ErrSequenceViolation = errors.New("action effect called out of sequence")

	// ErrNotAtTop indicates the stacks of a multi-scope group disagree on ordering.
	ErrNotAtTop = errors.New("group is not at the top of its stack")

	// ErrNothingToDo indicates the relevant stack is empty.
	ErrNothingToDo = errors.New("nothing to do")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo error = &emptyStackError{op: "undo"}

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo error = &emptyStackError{op: "redo"}

	// ErrCommandInProgress indicates a history operation was attempted while a
	// command is being recorded or replayed.
	ErrCommandInProgress = errors.New("command in progress")

	// ErrDeclined indicates the user declined the confirmation prompt.
	ErrDeclined = errors.New("declined by user")

	// ErrPartialFailure indicates a group could only be partially replayed.
	ErrPartialFailure = errors.New("partial failure")
)

type emptyStackError struct {
	op string
}

func (e *emptyStackError) Error() string {
	return "nothing to " + e.op
}

func (e *emptyStackError) Is(target error) bool {
	return target == ErrNothingToDo
}

// PartialFailureError reports an action that failed while a group was replayed.
// The group stays on its original stack; replaying it again in the same
// direction resumes at the failed action.
type PartialFailureError struct {
	Direction Direction
	Group     string
	Index     int // index of the failed action within the group
	Done      int // actions replayed successfully so far
	Err       error
}

func (e *PartialFailureError) Error() string {
	name := e.Group
	if name == "" {
		name = "unnamed command"
	}
	return fmt.Sprintf("%s %q: action %d failed after %d replayed: %v", e.Direction, name, e.Index, e.Done, e.Err)
}

// Unwrap returns the cause.
func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Is reports ErrPartialFailure as a match.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}
