// Package history provides multi-scope undo/redo for the editing engine.
//
// Edits are recorded as Actions: reversible operations that know how to redo
// and undo themselves and which scopes (documents, or the global scope) they
// touch. Actions produced by one user command are collected into a Group,
// the atomic unit of reversal.
//
// # Scopes
//
// Every document has its own pair of undo/redo stacks. A Group that touches
// several documents is filed under each of them, by reference:
//
//	undo(D1): [A, B]
//	undo(D2): [B]
//
// Undoing B from D1 removes it from D2 as well. Commands that touch no
// document are filed under the global scope.
//
// # Recording
//
// The Manager collects actions between StartCommand and EndCommand:
//
//	m := history.NewManager(history.WithMaxDepth(500))
//	m.StartCommand("Replace All", history.WeakEditor(ed))
//	m.Append(action1)
//	m.Append(action2)
//	m.EndCommand()
//
// Nested StartCommand calls continue the outer group. A command that records
// nothing is discarded.
//
// # Undo and Redo
//
// Undo and Redo share one algorithm parameterized by Direction: find the top
// group of the scope, confirm if it spans other scopes, replay its actions
// (in reverse for Undo), restore the editor view captured around the command
// and move the group to the opposite stack. If an action fails the group stays
// where it is and a PartialFailureError is returned.
//
// # View Restoration
//
// Snapshots hold a weak reference to the editor they were taken from.
// Restoring a snapshot whose editor has been closed or collected does nothing.
//
// The Manager is not safe for concurrent use; callers serialize access.
package history
