package store

import (
	"sort"
	"strconv"
	"time"

	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store/status"
)

// Dimension of the repository log on which distinct values may be listed
type Dimension string

// Dimensions of the log
const (
	DimensionVersion   Dimension = "branch"
	DimensionLanguage  Dimension = "lang"
	DimensionComponent Dimension = "component"
)

// Filter constrains queries on the log.
//
// A nil slice puts no constraint on its dimension. Values within a dimension are alternatives,
// dimensions must all match.
type Filter struct {
	Versions   []int    `json:"versions,omitempty" yaml:"versions,omitempty"`
	Languages  []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Components []string `json:"components,omitempty" yaml:"components,omitempty"`
}

// Match tells if a record satisfies the filter
func (f Filter) Match(r model.Record) bool {
	return matchInt(f.Versions, r.Version) &&
		matchString(f.Languages, r.Language) &&
		matchString(f.Components, r.Component)
}

// Value of a record on some dimension
func (d Dimension) Value(r model.Record) (string, error) {
	switch d {
	case DimensionVersion:
		return strconv.Itoa(r.Version), nil
	case DimensionLanguage:
		return r.Language, nil
	case DimensionComponent:
		return r.Component, nil
	default:
		return "", status.ErrUnknownDimension.Wrapf("%q", string(d))
	}
}

// Valid tells if the dimension is known
func (d Dimension) Valid() error {
	_, err := d.Value(model.Record{})
	return err
}

// SortDistinct sorts the values of a dimension: versions numerically, other dimensions lexically
func SortDistinct(d Dimension, values []string) {
	if d != DimensionVersion {
		sort.Strings(values)
		return
	}
	sort.Slice(values, func(i, j int) bool {
		a, _ := strconv.Atoi(values[i])
		b, _ := strconv.Atoi(values[j])
		return a < b
	})
}

func matchInt(accepted []int, v int) bool {
	if accepted == nil {
		return true
	}
	for _, a := range accepted {
		if a == v {
			return true
		}
	}
	return false
}

func matchString(accepted []string, v string) bool {
	if accepted == nil {
		return true
	}
	for _, a := range accepted {
		if a == v {
			return true
		}
	}
	return false
}

// Winners retains, for every string, the record which is current as of some time.
//
// The result is sorted by string key.
func Winners(records []model.Record, asOf time.Time) []model.Record {
	current := make(map[model.StringKey]model.Record, len(records))
	for _, r := range records {
		if r.Modified.After(asOf) {
			continue
		}
		k := r.Key()
		if w, ok := current[k]; !ok || model.Supersedes(r, w) {
			current[k] = r
		}
	}

	result := make([]model.Record, 0, len(current))
	for _, r := range current {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		ki, kj := result[i].Key(), result[j].Key()
		if ki.SetKey != kj.SetKey {
			return ki.SetKey.Less(kj.SetKey)
		}
		return ki.StringID < kj.StringID
	})
	return result
}

// CountLive counts the strings which are not deleted as of some time, per set
func CountLive(records []model.Record, asOf time.Time) []GroupCount {
	counts := make(map[model.SetKey]int)
	for _, r := range Winners(records, asOf) {
		if r.Deleted {
			continue
		}
		counts[r.Key().SetKey]++
	}

	result := make([]GroupCount, 0, len(counts))
	for k, c := range counts {
		result = append(result, GroupCount{SetKey: k, Count: c})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SetKey.Less(result[j].SetKey) })
	return result
}

// Validate checks a batch of records before it is appended
func Validate(commit model.Commit, records []model.Record) error {
	if commit.ID == "" {
		return status.ErrCommitIDRequired
	}
	for _, r := range records {
		if r.Component == "" || r.Language == "" || r.StringID == "" || r.Version <= 0 {
			return status.ErrInvalidRecord.Wrapf("%s", r.Key())
		}
		if r.Modified.IsZero() {
			return status.ErrInvalidRecord.Wrapf("%s has no modification time", r.Key())
		}
	}
	return nil
}
