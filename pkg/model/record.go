package model

import "time"

// Record is an immutable entry of the repository log: the value of one string
// at some point in history.
//
// Seq is assigned by the log on append and strictly increases with insertion order.
type Record struct {
	Seq       uint64    `json:"seq" yaml:"seq"`
	CommitID  string    `json:"commit" yaml:"commit"`
	Component string    `json:"component" yaml:"component"`
	Language  string    `json:"lang" yaml:"lang"`
	Version   int       `json:"branch" yaml:"branch"`
	StringID  string    `json:"stringid" yaml:"stringid"`
	Text      string    `json:"text,omitempty" yaml:"text,omitempty"`
	Null      bool      `json:"null,omitempty" yaml:"null,omitempty"`
	Modified  time.Time `json:"timemodified" yaml:"timemodified"`
	Deleted   bool      `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// NewRecord builds the record of a string held by some set
func NewRecord(key SetKey, s String) Record {
	return Record{
		Component: key.Component,
		Language:  key.Language,
		Version:   key.Version,
		StringID:  s.ID,
		Text:      s.Text,
		Null:      s.Null,
		Modified:  s.Modified,
		Deleted:   s.Deleted,
	}
}

// Key of the set this record belongs to
func (r Record) Key() StringKey {
	return StringKey{
		SetKey:   SetKey{Component: r.Component, Language: r.Language, Version: r.Version},
		StringID: r.StringID,
	}
}

// Value materializes the string carried by this record
func (r Record) Value() String {
	return String{
		ID:       r.StringID,
		Text:     r.Text,
		Null:     r.Null,
		Modified: r.Modified,
		Deleted:  r.Deleted,
	}
}

// Supersedes tells if record a wins over record b for the same key.
//
// The most recent modification time wins. On equal times, the most recently inserted record wins.
func Supersedes(a, b Record) bool {
	if !a.Modified.Equal(b.Modified) {
		return a.Modified.After(b.Modified)
	}
	return a.Seq > b.Seq
}

// Commit describes an atomic append of records to the repository log
type Commit struct {
	ID        string            `json:"id" yaml:"id"`
	Message   string            `json:"message" yaml:"message"`
	Source    string            `json:"source,omitempty" yaml:"source,omitempty"`
	Meta      map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	Committed time.Time         `json:"committed" yaml:"committed"`
}
