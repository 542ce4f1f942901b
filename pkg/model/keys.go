package model

import "fmt"

// SetKey identifies a string set: a component, for one language, on one version
type SetKey struct {
	Component string `json:"component" yaml:"component"`
	Language  string `json:"language" yaml:"language"`
	Version   int    `json:"version" yaml:"version"`
}

// StringKey identifies a single string in history
type StringKey struct {
	SetKey
	StringID string `json:"stringid" yaml:"stringid"`
}

func (k SetKey) String() string {
	return fmt.Sprintf("%s/%s@%d", k.Component, k.Language, k.Version)
}

// Less orders set keys by version, language then component
func (k SetKey) Less(other SetKey) bool {
	if k.Version != other.Version {
		return k.Version < other.Version
	}
	if k.Language != other.Language {
		return k.Language < other.Language
	}
	return k.Component < other.Component
}

// WithString builds the key of a string held in this set
func (k SetKey) WithString(id string) StringKey {
	return StringKey{SetKey: k, StringID: id}
}

func (k StringKey) String() string {
	return k.SetKey.String() + ":" + k.StringID
}
