package core

import (
	"time"

	"github.com/oneconcern/amos/pkg/metrics"
	"go.uber.org/zap"
)

// Option sets options for the repository
type Option func(*Settings)

// Settings defines various settings for the repository
type Settings struct {
	logger    *zap.Logger
	metrics   *metrics.M
	clock     func() time.Time
	authoring string
	baseName  string
	langinfo  string
	langname  string
	cacheSize int
}

const (
	defaultAuthoring = "en"
	defaultBaseName  = "moodle"
	defaultCacheSize = 64
	langConfig       = "langconfig"
	langName         = "thislanguageint"
)

func defaultSettings() Settings {
	return Settings{
		logger:    zap.NewNop(),
		metrics:   metrics.Discard(),
		clock:     time.Now,
		authoring: defaultAuthoring,
		baseName:  defaultBaseName,
		langinfo:  langConfig,
		langname:  langName,
		cacheSize: defaultCacheSize,
	}
}

// WithLogger sets a logger for the repository. It defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics collected by the repository. They default to unregistered collectors.
func WithMetrics(m *metrics.M) Option {
	return func(s *Settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock sets the clock used to stamp commits and default query times
func WithClock(clock func() time.Time) Option {
	return func(s *Settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// AuthoringLanguage sets the language in which strings are originally written. It defaults to "en".
func AuthoringLanguage(lang string) Option {
	return func(s *Settings) {
		if lang != "" {
			s.authoring = lang
		}
	}
}

// BaseName sets the legacy name of the core component. It defaults to "moodle".
func BaseName(name string) Option {
	return func(s *Settings) {
		if name != "" {
			s.baseName = name
		}
	}
}

// CacheSize sets the number of entries kept by the languages and components caches
func CacheSize(size int) Option {
	return func(s *Settings) {
		if size <= 0 {
			s.cacheSize = defaultCacheSize
			return
		}
		s.cacheSize = size
	}
}

// ListOption sets options for listing languages and components
type ListOption func(*listSettings)

type listSettings struct {
	withAuthoring bool
	showCode      bool
	useCache      bool
}

func defaultListSettings() listSettings {
	return listSettings{
		withAuthoring: true,
		useCache:      true,
	}
}

// WithAuthoring includes or excludes the authoring language. It is included by default.
func WithAuthoring(enabled bool) ListOption {
	return func(s *listSettings) {
		s.withAuthoring = enabled
	}
}

// ShowCode appends the language code to its name, as in "Czech (cs)"
func ShowCode(enabled bool) ListOption {
	return func(s *listSettings) {
		s.showCode = enabled
	}
}

// NoCache bypasses the cache
func NoCache() ListOption {
	return func(s *listSettings) {
		s.useCache = false
	}
}
