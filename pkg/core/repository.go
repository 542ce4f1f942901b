// Package core implements the translation repository workflow: strings are staged,
// rebased against the repository log, committed, then possibly propagated to other versions.
//
// It also provides read-only queries over the repository log: snapshots, languages,
// components and grouped string counts.
package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/oneconcern/amos/pkg/core/status"
	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	storestatus "github.com/oneconcern/amos/pkg/store/status"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	languagesCacheKey  = "languages"
	componentsCacheKey = "components"

	maxParallel = 8
)

// Repository of translated strings, backed by a repository log
type Repository struct {
	log      store.Log
	settings Settings

	// cached listings of languages and components
	lists *lru.Cache
}

// Tree counts live strings per version code, language and component
type Tree map[int]map[string]map[string]int

// New repository on top of a repository log
func New(log store.Log, opts ...Option) (*Repository, error) {
	if log == nil {
		return nil, status.ErrLogRequired
	}
	settings := defaultSettings()
	for _, apply := range opts {
		apply(&settings)
	}

	lists, err := lru.New(settings.cacheSize)
	if err != nil {
		return nil, err
	}

	return &Repository{
		log:      log,
		settings: settings,
		lists:    lists,
	}, nil
}

// Log backing this repository
func (r *Repository) Log() store.Log {
	return r.log
}

// Authoring language of the repository
func (r *Repository) Authoring() string {
	return r.settings.authoring
}

// Logger used by the repository
func (r *Repository) Logger() *zap.Logger {
	return r.settings.logger
}

// Now according to the repository clock
func (r *Repository) Now() time.Time {
	return r.settings.clock()
}

func (r *Repository) orNow(t time.Time) time.Time {
	if t.IsZero() {
		return r.Now()
	}
	return t
}

// NewStage creates an empty stage for this repository
func (r *Repository) NewStage() *Stage {
	return &Stage{
		repo: r,
		sets: make(map[model.SetKey]*model.StringSet),
	}
}

// Snapshot reconstructs the live strings of a component, for one language and version,
// as of some time. The zero time stands for now.
//
// Deleted strings are not part of a snapshot. An unknown component yields an empty set.
func (r *Repository) Snapshot(ctx context.Context, name, lang string, version model.Version, asOf time.Time) (*model.StringSet, error) {
	set := model.NewStringSet(name, lang, version)
	records, err := r.log.Records(ctx, set.Key(), r.orNow(asOf))
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Deleted {
			continue
		}
		set.MustAdd(rec.Value())
	}
	return set, nil
}

// ListLanguages returns the known languages, as a map of language codes to display names.
//
// The display name of a language is its "thislanguageint" string in the "langconfig"
// component, as found on the most recent version holding it. It defaults to the language code.
func (r *Repository) ListLanguages(ctx context.Context, opts ...ListOption) (map[string]string, error) {
	ls := defaultListSettings()
	for _, apply := range opts {
		apply(&ls)
	}

	var names map[string]string
	if cached, ok := r.lists.Get(languagesCacheKey); ok && ls.useCache {
		names = cached.(map[string]string)
	} else {
		var err error
		names, err = r.languageNames(ctx)
		if err != nil {
			return nil, err
		}
		r.lists.Add(languagesCacheKey, names)
	}

	result := make(map[string]string, len(names))
	for code, name := range names {
		if !ls.withAuthoring && code == r.settings.authoring {
			continue
		}
		if ls.showCode {
			name = fmt.Sprintf("%s (%s)", name, code)
		}
		result[code] = name
	}
	return result, nil
}

func (r *Repository) languageNames(ctx context.Context) (map[string]string, error) {
	codes, err := r.log.Distinct(ctx, store.DimensionLanguage, store.Filter{})
	if err != nil {
		return nil, err
	}

	var mx sync.Mutex
	names := make(map[string]string, len(codes))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallel)
	for _, code := range codes {
		code := code
		group.Go(func() error {
			name, err := r.languageName(gctx, code)
			if err != nil {
				return err
			}
			mx.Lock()
			names[code] = name
			mx.Unlock()
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *Repository) languageName(ctx context.Context, code string) (string, error) {
	versions, err := r.log.Distinct(ctx, store.DimensionVersion, store.Filter{
		Languages:  []string{code},
		Components: []string{r.settings.langinfo},
	})
	if err != nil {
		return "", err
	}

	now := r.Now()
	for i := len(versions) - 1; i >= 0; i-- {
		v, err := strconv.Atoi(versions[i])
		if err != nil {
			return "", err
		}
		key := model.SetKey{Component: r.settings.langinfo, Language: code, Version: v}.WithString(r.settings.langname)
		rec, err := r.log.Latest(ctx, key, now)
		if errors.Is(err, storestatus.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if !rec.Deleted && strings.TrimSpace(rec.Text) != "" {
			return strings.TrimSpace(rec.Text), nil
		}
	}
	return code, nil
}

// ListComponents returns the sorted names of the components holding strings in the authoring language
func (r *Repository) ListComponents(ctx context.Context, opts ...ListOption) ([]string, error) {
	ls := defaultListSettings()
	for _, apply := range opts {
		apply(&ls)
	}

	if cached, ok := r.lists.Get(componentsCacheKey); ok && ls.useCache {
		return append([]string{}, cached.([]string)...), nil
	}

	components, err := r.log.Distinct(ctx, store.DimensionComponent, store.Filter{Languages: []string{r.settings.authoring}})
	if err != nil {
		return nil, err
	}
	r.lists.Add(componentsCacheKey, components)
	return append([]string{}, components...), nil
}

// invalidate cached listings touched by some records
func (r *Repository) invalidate(records []model.Record) {
	if cached, ok := r.lists.Peek(languagesCacheKey); ok {
		names := cached.(map[string]string)
		for _, rec := range records {
			if _, known := names[rec.Language]; !known || rec.Component == r.settings.langinfo {
				r.lists.Remove(languagesCacheKey)
				r.settings.logger.Debug("languages cache invalidated", zap.String("lang", rec.Language), zap.String("component", rec.Component))
				break
			}
		}
	}

	if cached, ok := r.lists.Peek(componentsCacheKey); ok {
		components := cached.([]string)
		for _, rec := range records {
			if rec.Language != r.settings.authoring {
				continue
			}
			if i := sort.SearchStrings(components, rec.Component); i == len(components) || components[i] != rec.Component {
				r.lists.Remove(componentsCacheKey)
				r.settings.logger.Debug("components cache invalidated", zap.String("component", rec.Component))
				break
			}
		}
	}
}

// ComponentsTree counts the live strings per version, language and component, among those matching a filter.
//
// No matching data yields an empty tree.
func (r *Repository) ComponentsTree(ctx context.Context, filter store.Filter) (Tree, error) {
	counts, err := r.log.CountGrouped(ctx, filter, r.Now())
	if err != nil {
		return nil, err
	}

	tree := make(Tree)
	for _, c := range counts {
		langs, ok := tree[c.Version]
		if !ok {
			langs = make(map[string]map[string]int)
			tree[c.Version] = langs
		}
		components, ok := langs[c.Language]
		if !ok {
			components = make(map[string]int)
			langs[c.Language] = components
		}
		components[c.Component] = c.Count
	}
	return tree, nil
}
