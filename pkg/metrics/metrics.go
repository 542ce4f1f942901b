// Package metrics exposes prometheus collectors for the translation repository.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "amos"

// M describes the metrics collected by the repository
type M struct {
	Commits            prometheus.Counter
	RecordsAppended    prometheus.Counter
	RebaseDropped      prometheus.Counter
	Propagated         prometheus.Counter
	ScriptInstructions *prometheus.CounterVec
	CommitDuration     prometheus.Histogram
}

// New builds the repository metrics and registers them.
//
// A nil registerer yields unregistered collectors. Collectors already registered
// on the same registerer are reused.
func New(reg prometheus.Registerer) (*M, error) {
	m := &M{
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Number of commits appended to the repository log.",
		}),
		RecordsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_appended_total",
			Help:      "Number of string records appended to the repository log.",
		}),
		RebaseDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebase_dropped_strings_total",
			Help:      "Number of staged strings dropped by a rebase.",
		}),
		Propagated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagated_strings_total",
			Help:      "Number of translations propagated to other versions.",
		}),
		ScriptInstructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "script_instructions_total",
			Help:      "Number of script instructions processed, by verb and outcome.",
		}, []string{"verb", "outcome"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Time spent committing a stage.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return m, nil
	}

	if err := register(reg, &m.Commits); err != nil {
		return nil, err
	}
	if err := register(reg, &m.RecordsAppended); err != nil {
		return nil, err
	}
	if err := register(reg, &m.RebaseDropped); err != nil {
		return nil, err
	}
	if err := register(reg, &m.Propagated); err != nil {
		return nil, err
	}
	if err := register(reg, &m.ScriptInstructions); err != nil {
		return nil, err
	}
	if err := register(reg, &m.CommitDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew builds the repository metrics or panics
func MustNew(reg prometheus.Registerer) *M {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// Discard yields unregistered metrics
func Discard() *M {
	return MustNew(nil)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		existing, ok := are.ExistingCollector.(T)
		if ok {
			*c = existing
			return nil
		}
	}
	return err
}
