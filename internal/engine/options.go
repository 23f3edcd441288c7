package engine

import (
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/logging"
)

// Command names used by the workspace. Consecutive Typing commands merge
// when the history runs with history.MergeConsecutive.
const (
	CommandInsert     = "Insert"
	CommandTyping     = "Typing"
	CommandBackspace  = "Backspace"
	CommandReplaceAll = "Replace All"
)

// Option configures a Workspace during creation.
type Option func(*Workspace)

// WithHistory passes options to the history manager.
func WithHistory(opts ...history.Option) Option {
	return func(w *Workspace) {
		w.historyOpts = append(w.historyOpts, opts...)
	}
}

// WithLogger sets the logger for the workspace and its history.
func WithLogger(l *logging.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.log = l
		}
	}
}
