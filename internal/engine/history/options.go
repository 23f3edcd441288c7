package history

import (
	"time"

	"github.com/dshills/rewind/internal/logging"
)

// Option configures a Manager during creation.
type Option func(*Manager)

// WithMaxDepth sets the maximum number of groups kept per scope.
func WithMaxDepth(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.stacks.SetMaxDepth(n)
		}
	}
}

// WithConfirmer sets the prompt used before undoing or redoing a command
// that also affects scopes other than the focused one.
func WithConfirmer(c Confirmer) Option {
	return func(m *Manager) {
		if c != nil {
			m.confirm = c
		}
	}
}

// WithMergePolicy sets the policy deciding whether a committed group is
// merged into the group below it.
func WithMergePolicy(p MergePolicy) Option {
	return func(m *Manager) {
		m.stacks.SetMergePolicy(p)
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l.WithComponent("history")
		}
	}
}

// MergeConsecutive returns a policy that merges groups with the same
// non-empty name when next started within window of prev ending and the
// editor view did not change in between.
func MergeConsecutive(window time.Duration) MergePolicy {
	return func(prev, next *Group) bool {
		if prev.Name() == "" || prev.Name() != next.Name() {
			return false
		}
		if next.Started().Sub(prev.SealedAt()) > window {
			return false
		}
		return prev.After().View == next.Before().View
	}
}
