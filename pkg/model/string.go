package model

import (
	"strings"
	"time"
)

// String is a single translatable string.
//
// Null marks an absent text, which is not the same as an empty text.
// A deleted string is a tombstone: it is kept in history but not part of any snapshot.
type String struct {
	ID       string    `json:"id" yaml:"id"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	Null     bool      `json:"null,omitempty" yaml:"null,omitempty"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Deleted  bool      `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	_        struct{}
}

// StringOption sets optional fields on a String
type StringOption func(*String)

// ModifiedAt sets the last modification time of a string
func ModifiedAt(t time.Time) StringOption {
	return func(s *String) {
		s.Modified = t
	}
}

// AsDeleted marks a string as a deletion
func AsDeleted() StringOption {
	return func(s *String) {
		s.Deleted = true
	}
}

// NewString builds a string with some text
func NewString(id, text string, opts ...StringOption) String {
	s := String{ID: id, Text: text}
	for _, apply := range opts {
		apply(&s)
	}
	return s
}

// NullString builds a string with no text
func NullString(id string, opts ...StringOption) String {
	s := String{ID: id, Null: true}
	for _, apply := range opts {
		apply(&s)
	}
	return s
}

// Differ tells if two strings carry a different value.
//
// Identifiers are not compared. Texts are compared after trimming surrounding white space.
// A null text differs from any non-null text, even an empty one.
func Differ(a, b String) bool {
	if a.Deleted != b.Deleted {
		return true
	}
	if a.Null || b.Null {
		return a.Null != b.Null
	}
	return strings.TrimSpace(a.Text) != strings.TrimSpace(b.Text)
}
