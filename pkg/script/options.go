package script

import (
	"github.com/oneconcern/amos/pkg/metrics"
	"go.uber.org/zap"
)

// Option sets options for the script engine
type Option func(*Engine)

// WithLogger sets the logger of the engine. It defaults to the repository logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics collected by the engine
func WithMetrics(m *metrics.M) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// Source tags the commits produced by Run. It defaults to "commitscript".
func Source(source string) Option {
	return func(e *Engine) {
		if source != "" {
			e.source = source
		}
	}
}
