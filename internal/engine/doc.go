// Package engine ties documents, editor views and the history manager into
// a Workspace.
//
// Each user-level operation of the workspace is recorded as one history
// command, with the focused editor's view captured before and after:
//
//	ws := engine.New(engine.WithHistory(history.WithMaxDepth(200)))
//	ed, _ := ws.Open("a.txt", "hello")
//	ws.Type(" world")   // one Typing command per grapheme cluster
//	ws.Undo()           // undoes the last command of a.txt
//
// Undo and Redo act on the scope of the focused document. Commands that
// changed several documents ask for confirmation through the history
// Confirmer before they are reversed.
//
// Workspace methods must be called from a single goroutine.
package engine
