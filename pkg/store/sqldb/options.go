package sqldb

import "go.uber.org/zap"

// Option configures the SQL log
type Option func(*options)

type options struct {
	logger       *zap.Logger
	maxOpenConns int
}

func defaultOptions() *options {
	return &options{logger: zap.NewNop()}
}

// WithLogger sets a logger for the SQL log
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxOpenConns limits the number of open connections to the database.
// In-memory sqlite databases must be limited to 1.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}
