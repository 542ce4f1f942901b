package core

import (
	"context"
	"sort"

	"github.com/oneconcern/amos/pkg/core/status"
	"github.com/oneconcern/amos/pkg/model"
	"go.uber.org/zap"
)

type translationKey struct {
	component string
	language  string
	stringID  string
}

type authoringKey struct {
	component string
	version   int
}

// Propagate copies staged translations to other versions, and returns the number of strings added to the stage.
//
// A translation staged for some version is copied to a candidate version when the authoring string
// it translates is the same on both versions. Translations staged with different texts on several
// versions are not propagated. Deletions and strings of the authoring language are never propagated,
// and a string already staged on the target version is left as is.
func (s *Stage) Propagate(ctx context.Context, versions []model.Version) (int, error) {
	groups := make(map[translationKey]map[int]model.String)
	for _, set := range s.Components() {
		if set.Language == s.repo.settings.authoring {
			continue
		}
		for _, str := range set.Strings() {
			if str.Deleted {
				continue
			}
			k := translationKey{component: set.Name, language: set.Language, stringID: str.ID}
			if groups[k] == nil {
				groups[k] = make(map[int]model.String)
			}
			groups[k][set.Version.Code] = str
		}
	}

	// a stable order makes the stage independent of map iteration
	keys := make([]translationKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.component != b.component {
			return a.component < b.component
		}
		if a.language != b.language {
			return a.language < b.language
		}
		return a.stringID < b.stringID
	})

	authoring := make(map[authoringKey]*model.StringSet)
	authoringSnapshot := func(component string, version model.Version) (*model.StringSet, error) {
		k := authoringKey{component: component, version: version.Code}
		if set, ok := authoring[k]; ok {
			return set, nil
		}
		set, err := s.repo.Snapshot(ctx, component, s.repo.settings.authoring, version, s.repo.Now())
		if err != nil {
			return nil, err
		}
		authoring[k] = set
		return set, nil
	}

	count := 0
	for _, k := range keys {
		staged := groups[k]
		translation, ok := uniqueTranslation(staged)
		if !ok {
			s.repo.settings.logger.Debug("conflicting translations not propagated",
				zap.String("component", k.component),
				zap.String("lang", k.language),
				zap.String("stringid", k.stringID),
			)
			continue
		}

		for _, target := range versions {
			if _, isSource := staged[target.Code]; isSource {
				continue
			}

			eligible, err := s.propagates(k, staged, target, authoringSnapshot)
			if err != nil {
				return count, status.ErrPropagate.Wrapf("%s/%s/%s", k.component, k.language, k.stringID).Wrap(err)
			}
			if !eligible {
				continue
			}

			targetSet := s.Get(k.component, k.language, target)
			if targetSet != nil && targetSet.Has(k.stringID) {
				continue
			}
			copied := model.NewStringSet(k.component, k.language, target).MustAdd(translation)
			if err := s.Put(copied, false); err != nil {
				return count, status.ErrPropagate.Wrapf("%s/%s/%s", k.component, k.language, k.stringID).Wrap(err)
			}
			count++
		}
	}

	s.repo.settings.metrics.Propagated.Add(float64(count))
	s.repo.settings.logger.Debug("translations propagated", zap.Int("count", count), zap.Int("versions", len(versions)))
	return count, nil
}

func uniqueTranslation(staged map[int]model.String) (model.String, bool) {
	var (
		first model.String
		found bool
	)
	for _, str := range staged {
		if !found {
			first, found = str, true
			continue
		}
		if model.Differ(first, str) {
			return model.String{}, false
		}
	}
	return first, found
}

func (s *Stage) propagates(
	k translationKey,
	staged map[int]model.String,
	target model.Version,
	authoringSnapshot func(string, model.Version) (*model.StringSet, error),
) (bool, error) {
	targetSet, err := authoringSnapshot(k.component, target)
	if err != nil {
		return false, err
	}
	targetString, ok := targetSet.Get(k.stringID)
	if !ok {
		return false, nil
	}

	for code := range staged {
		version, err := model.VersionByCode(code)
		if err != nil {
			return false, err
		}
		sourceSet, err := authoringSnapshot(k.component, version)
		if err != nil {
			return false, err
		}
		sourceString, ok := sourceSet.Get(k.stringID)
		if ok && !model.Differ(sourceString, targetString) {
			return true, nil
		}
	}
	return false, nil
}
