package core

import (
	"context"
	"sort"
	"time"

	"github.com/oneconcern/amos/pkg/core/status"
	"github.com/oneconcern/amos/pkg/model"
	"go.uber.org/zap"
)

// Stage holds string sets waiting to be committed, at most one per component, language and version.
//
// A Stage is local to its caller and not safe for concurrent use.
type Stage struct {
	repo *Repository
	sets map[model.SetKey]*model.StringSet
}

// Put a copy of a string set on stage.
//
// When a set with the same component, language and version is already staged, strings are merged into it.
// Unless overwrite is true, merging a string id already staged fails with ErrAlreadyExists and leaves the stage unchanged.
func (s *Stage) Put(set *model.StringSet, overwrite bool) error {
	if set == nil || set.Name == "" || set.Language == "" || set.Version.Code == 0 {
		return status.ErrInvalidSet
	}

	key := set.Key()
	staged, ok := s.sets[key]
	if !ok {
		s.sets[key] = set.Clone()
		return nil
	}

	merged := staged.Clone()
	for _, str := range set.Strings() {
		if err := merged.Add(str, overwrite); err != nil {
			return err
		}
	}
	s.sets[key] = merged
	return nil
}

// Get the staged set for a component, language and version, or nil
func (s *Stage) Get(name, lang string, version model.Version) *model.StringSet {
	return s.sets[model.SetKey{Component: name, Language: lang, Version: version.Code}]
}

// Remove a staged set. Removing a set which is not staged is a no-op.
func (s *Stage) Remove(name, lang string, version model.Version) {
	delete(s.sets, model.SetKey{Component: name, Language: lang, Version: version.Code})
}

// HasComponent tells if the stage holds at least one set
func (s *Stage) HasComponent() bool {
	return len(s.sets) > 0
}

// Components lists the staged sets, ordered by version, language and component
func (s *Stage) Components() []*model.StringSet {
	keys := s.keys()
	sets := make([]*model.StringSet, 0, len(keys))
	for _, k := range keys {
		sets = append(sets, s.sets[k])
	}
	return sets
}

// Clear the stage
func (s *Stage) Clear() {
	s.sets = make(map[model.SetKey]*model.StringSet)
}

func (s *Stage) keys() []model.SetKey {
	keys := make([]model.SetKey, 0, len(s.sets))
	for k := range s.sets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// RebaseOption sets options for a rebase
type RebaseOption func(*rebaseSettings)

type rebaseSettings struct {
	asOf        time.Time
	full        bool
	historyUpTo time.Time
}

// RebaseAt sets the time stamped on deletions produced by a full rebase. It defaults to now.
func RebaseAt(t time.Time) RebaseOption {
	return func(s *rebaseSettings) {
		s.asOf = t
	}
}

// FullSnapshot considers every staged set as the complete desired state of its component:
// live strings missing from the set are staged as deletions.
func FullSnapshot() RebaseOption {
	return func(s *rebaseSettings) {
		s.full = true
	}
}

// HistoryUpTo sets the time of the snapshot the stage is rebased on. It defaults to the rebase time.
func HistoryUpTo(t time.Time) RebaseOption {
	return func(s *rebaseSettings) {
		s.historyUpTo = t
	}
}

// Rebase reconciles the stage with the repository log, leaving only the strings which would change
// the current snapshot.
//
// Staged strings which do not differ from the snapshot are dropped, as are strings staged with an
// older modification time than their value in the snapshot, and deletions of strings which are
// not live. Sets left empty are removed from the stage.
func (s *Stage) Rebase(ctx context.Context, opts ...RebaseOption) error {
	var rs rebaseSettings
	for _, apply := range opts {
		apply(&rs)
	}
	rs.asOf = s.repo.orNow(rs.asOf)
	if rs.historyUpTo.IsZero() {
		rs.historyUpTo = rs.asOf
	}

	rebased := make(map[model.SetKey]*model.StringSet, len(s.sets))
	dropped := 0
	for _, key := range s.keys() {
		staged := s.sets[key]
		snapshot, err := s.repo.Snapshot(ctx, staged.Name, staged.Language, staged.Version, rs.historyUpTo)
		if err != nil {
			return status.ErrRebase.Wrapf("%s", key).Wrap(err)
		}

		result := staged.Clone()
		if rs.full {
			for _, current := range snapshot.Strings() {
				if result.Has(current.ID) {
					continue
				}
				result.MustAdd(model.NewString(current.ID, current.Text, model.ModifiedAt(rs.asOf), model.AsDeleted()))
			}
		}

		for _, str := range staged.Strings() {
			if !keepOnRebase(str, snapshot) {
				result.Remove(str.ID)
				dropped++
			}
		}

		if !result.IsEmpty() {
			rebased[key] = result
		}
	}

	s.sets = rebased
	s.repo.settings.metrics.RebaseDropped.Add(float64(dropped))
	s.repo.settings.logger.Debug("stage rebased",
		zap.Time("as_of", rs.asOf),
		zap.Bool("full_snapshot", rs.full),
		zap.Int("dropped", dropped),
		zap.Int("sets", len(rebased)),
	)
	return nil
}

func keepOnRebase(str model.String, snapshot *model.StringSet) bool {
	current, live := snapshot.Get(str.ID)
	switch {
	case !live:
		return !str.Deleted
	case str.Deleted:
		return true
	case !model.Differ(str, current):
		return false
	case !str.Modified.IsZero() && str.Modified.Before(current.Modified):
		return false
	default:
		return true
	}
}
