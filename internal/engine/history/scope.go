package history

import "github.com/google/uuid"

// Scope identifies what a group affects: one document or the global scope.
// Scope is comparable and may be used as a map key.
type Scope struct {
	global bool
	doc    uuid.UUID
}

// DocumentScope returns the scope of the document with the given handle.
func DocumentScope(id uuid.UUID) Scope {
	return Scope{doc: id}
}

// GlobalScope returns the scope for changes that touch no document.
func GlobalScope() Scope {
	return Scope{global: true}
}

// IsGlobal returns true for the global scope.
func (s Scope) IsGlobal() bool {
	return s.global
}

// Document returns the document handle of a document scope.
func (s Scope) Document() (uuid.UUID, bool) {
	if s.global {
		return uuid.Nil, false
	}
	return s.doc, true
}

// String returns a readable form of the scope.
func (s Scope) String() string {
	if s.global {
		return "global"
	}
	return "doc:" + s.doc.String()
}

// scopeSet is an insertion-ordered set of scopes.
type scopeSet []Scope

func (ss scopeSet) contains(s Scope) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (ss scopeSet) add(scopes ...Scope) scopeSet {
	for _, s := range scopes {
		if !ss.contains(s) {
			ss = append(ss, s)
		}
	}
	return ss
}

func (ss scopeSet) equal(other scopeSet) bool {
	if len(ss) != len(other) {
		return false
	}
	for _, s := range ss {
		if !other.contains(s) {
			return false
		}
	}
	return true
}
