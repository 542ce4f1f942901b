package bdgr

import "go.uber.org/zap"

// Option configures the badger log
type Option func(*options)

type options struct {
	logger         *zap.Logger
	syncWrites     bool
	indexCacheSize int64
}

func defaultOptions() *options {
	return &options{
		logger:         zap.NewNop(),
		syncWrites:     true,
		indexCacheSize: 64 << 20,
	}
}

// WithLogger sets a logger for the badger log
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSyncWrites toggles synchronous writes. It defaults to true.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) {
		o.syncWrites = enabled
	}
}

// WithIndexCacheSize sets the size of the badger index cache, in bytes
func WithIndexCacheSize(size int64) Option {
	return func(o *options) {
		o.indexCacheSize = size
	}
}
