package model

import (
	"sort"
	"time"

	"github.com/oneconcern/amos/pkg/model/status"
)

// StringSet holds the strings of a component, for one language, on one version.
//
// A StringSet is not safe for concurrent use.
type StringSet struct {
	Name     string
	Language string
	Version  Version

	strings map[string]String
}

// NewStringSet builds an empty string set
func NewStringSet(name, language string, version Version) *StringSet {
	return &StringSet{
		Name:     name,
		Language: language,
		Version:  version,
		strings:  make(map[string]String),
	}
}

// Key of this set
func (s *StringSet) Key() SetKey {
	return SetKey{Component: s.Name, Language: s.Language, Version: s.Version.Code}
}

// Add a string to the set. Unless overwrite is true, adding an id already held fails with ErrAlreadyExists.
func (s *StringSet) Add(str String, overwrite bool) error {
	if s.strings == nil {
		s.strings = make(map[string]String)
	}
	if _, exists := s.strings[str.ID]; exists && !overwrite {
		return status.ErrAlreadyExists.Wrapf("%q in %s", str.ID, s.Key())
	}
	s.strings[str.ID] = str
	return nil
}

// MustAdd adds a string, overwriting any string held with the same id
func (s *StringSet) MustAdd(strs ...String) *StringSet {
	for _, str := range strs {
		_ = s.Add(str, true)
	}
	return s
}

// Get a string by id
func (s *StringSet) Get(id string) (String, bool) {
	str, ok := s.strings[id]
	return str, ok
}

// Has tells if a string with this id is held
func (s *StringSet) Has(id string) bool {
	_, ok := s.strings[id]
	return ok
}

// IsEmpty tells if the set holds no string at all
func (s *StringSet) IsEmpty() bool {
	return len(s.strings) == 0
}

// Len is the number of strings held
func (s *StringSet) Len() int {
	return len(s.strings)
}

// Remove a string. Removing an absent id is a no-op.
func (s *StringSet) Remove(id string) {
	delete(s.strings, id)
}

// Clear releases all the strings held
func (s *StringSet) Clear() {
	s.strings = make(map[string]String)
}

// IDs returns the sorted ids of the strings held
func (s *StringSet) IDs() []string {
	ids := make([]string, 0, len(s.strings))
	for id := range s.strings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Strings returns the strings held, sorted by id
func (s *StringSet) Strings() []String {
	result := make([]String, 0, len(s.strings))
	for _, id := range s.IDs() {
		result = append(result, s.strings[id])
	}
	return result
}

// Clone makes a deep copy of the set
func (s *StringSet) Clone() *StringSet {
	c := NewStringSet(s.Name, s.Language, s.Version)
	for id, str := range s.strings {
		c.strings[id] = str
	}
	return c
}

// Diff returns the sorted ids whose strings differ between both sets.
//
// An id held by only one of the sets is a difference.
func (s *StringSet) Diff(other *StringSet) []string {
	diff := make([]string, 0)
	for id, str := range s.strings {
		o, ok := other.strings[id]
		if !ok || Differ(str, o) {
			diff = append(diff, id)
		}
	}
	for id := range other.strings {
		if _, ok := s.strings[id]; !ok {
			diff = append(diff, id)
		}
	}
	sort.Strings(diff)
	return diff
}

// Intersect retains only the ids also held by other, regardless of their text
func (s *StringSet) Intersect(other *StringSet) {
	for id := range s.strings {
		if !other.Has(id) {
			delete(s.strings, id)
		}
	}
}

// MergeFrom copies the strings of source which are absent from this set.
//
// Strings already held are left untouched. When both sets belong to versions
// with different legacy formats, the text is converted with FixSyntax.
func (s *StringSet) MergeFrom(source *StringSet) error {
	to, from := s.Version.Format(), source.Version.Format()
	pending := make([]String, 0, source.Len())
	for _, str := range source.Strings() {
		if s.Has(str.ID) {
			continue
		}
		if to != from && !str.Null {
			text, err := FixSyntax(str.Text, to, from)
			if err != nil {
				return err
			}
			str.Text = text
		}
		pending = append(pending, str)
	}
	s.MustAdd(pending...)
	return nil
}

// MostRecent returns the most recent modification time of the strings held.
//
// The zero time is returned when no string carries a modification time.
func (s *StringSet) MostRecent() time.Time {
	var latest time.Time
	for _, str := range s.strings {
		if str.Modified.After(latest) {
			latest = str.Modified
		}
	}
	return latest
}
