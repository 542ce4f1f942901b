// Package config loads the configuration of the translation repository,
// from a file, the environment and defaults, using viper.
package config

import (
	"fmt"
	"strings"

	units "github.com/docker/go-units"
	"github.com/oneconcern/amos/pkg/config/status"
	"github.com/oneconcern/amos/pkg/dlogger"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/bdgr"
	"github.com/oneconcern/amos/pkg/store/instrumented"
	"github.com/oneconcern/amos/pkg/store/memory"
	"github.com/oneconcern/amos/pkg/store/sqldb"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendSqlite3  = sqldb.DriverSqlite3
	BackendPostgres = sqldb.DriverPostgres

	// EnvPrefix is the prefix of environment variables overriding the configuration
	EnvPrefix = "AMOS"
)

// Config of the translation repository
type Config struct {
	Store     StoreConfig `mapstructure:"store" yaml:"store"`
	Authoring string      `mapstructure:"authoring" yaml:"authoring"`
	BaseName  string      `mapstructure:"basename" yaml:"basename"`
	CacheSize int         `mapstructure:"cache_size" yaml:"cache_size"`
	LogLevel  string      `mapstructure:"log_level" yaml:"log_level"`
	Tracing   bool        `mapstructure:"tracing" yaml:"tracing"`
}

// StoreConfig selects and locates the repository log backend
type StoreConfig struct {
	// Must be one of memory, badger, sqlite3 or postgres
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Directory of a badger store, or file of a sqlite3 database
	Path string `mapstructure:"path" yaml:"path"`
	// Connection string of a postgres database
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// Size of the badger index cache, e.g. "64MB"
	IndexCache string `mapstructure:"index_cache" yaml:"index_cache"`
}

// IndexCacheBytes parses the badger index cache size
func (s StoreConfig) IndexCacheBytes() (int64, error) {
	if s.IndexCache == "" {
		return 64 * units.MiB, nil
	}
	size, err := units.RAMInBytes(s.IndexCache)
	if err != nil {
		return 0, status.ErrInvalidConfig.Wrapf("store.index_cache %q", s.IndexCache).Wrap(err)
	}
	if size <= 0 {
		return 0, status.ErrInvalidConfig.Wrapf("store.index_cache must be positive")
	}
	return size, nil
}

// SetDefaults registers default values on a viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.path", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.index_cache", "64MB")
	v.SetDefault("authoring", "en")
	v.SetDefault("basename", "moodle")
	v.SetDefault("cache_size", 64)
	v.SetDefault("log_level", dlogger.LogLevelInfo)
	v.SetDefault("tracing", false)
}

// New viper instance reading the configuration file, if any, and AMOS_* environment variables
func New(file string) (*viper.Viper, error) {
	return NewWithFs(afero.NewOsFs(), file)
}

// NewWithFs reads the configuration file from some file system
func NewWithFs(fs afero.Fs, file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(fs)
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		v.SetConfigName("amos")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.amos")
		v.AddConfigPath("/etc/amos")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, err
			}
		}
		return v, nil
	}

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// Load the configuration held by a viper instance
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks if the Config is valid in its current state.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendBadger, BackendSqlite3:
		if c.Store.Path == "" {
			return status.ErrInvalidConfig.Wrapf("missing store.path value for backend %q", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return status.ErrInvalidConfig.Wrapf("missing store.dsn value")
		}
	default:
		backends := []string{BackendMemory, BackendBadger, BackendSqlite3, BackendPostgres}
		return status.ErrInvalidConfig.Wrapf("invalid store.backend value %q (must be one of: %s)", c.Store.Backend, strings.Join(backends, ", "))
	}
	if c.Authoring == "" {
		return status.ErrInvalidConfig.Wrapf("missing authoring language")
	}
	if _, err := c.Store.IndexCacheBytes(); err != nil {
		return err
	}
	if c.CacheSize < 0 {
		return status.ErrInvalidConfig.Wrapf("cache_size must not be negative")
	}
	if _, err := dlogger.GetLogger(c.LogLevel); err != nil {
		return status.ErrInvalidConfig.Wrapf("log_level %q", c.LogLevel).Wrap(err)
	}
	return nil
}

// OpenLog opens the repository log configured as backend
func (c *Config) OpenLog(logger *zap.Logger) (store.Log, error) {
	var (
		l   store.Log
		err error
	)

	switch c.Store.Backend {
	case BackendMemory:
		l = memory.New()
	case BackendBadger:
		var size int64
		if size, err = c.Store.IndexCacheBytes(); err != nil {
			break
		}
		l, err = bdgr.Open(c.Store.Path, bdgr.WithLogger(logger), bdgr.WithIndexCacheSize(size))
	case BackendSqlite3:
		l, err = sqldb.Open(sqldb.DriverSqlite3, c.Store.Path, sqldb.WithLogger(logger))
	case BackendPostgres:
		l, err = sqldb.Open(sqldb.DriverPostgres, c.Store.DSN, sqldb.WithLogger(logger))
	default:
		err = status.ErrInvalidConfig.Wrapf("backend %q", c.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s repository log: %w", c.Store.Backend, err)
	}

	if c.Tracing {
		l = instrumented.NewLog(c.Store.Backend, opentracing.GlobalTracer(), l)
	}
	return l, nil
}
