// Package store defines the repository log: an append-only history of string records,
// queried by key and time.
//
// Backends live in sub-packages: memory, bdgr (badger), sqldb (sqlite3, postgres).
// The instrumented package decorates any backend with tracing.
package store

import (
	"context"
	"time"

	"github.com/oneconcern/amos/pkg/model"
)

// Log is an append-only store of string records.
//
// Records are never updated nor removed. The value of a string as of some time is
// the record with the greatest modification time not after that time, ties being
// resolved by insertion order (see model.Supersedes).
type Log interface {
	// Append atomically writes a commit and its records.
	// The log assigns increasing sequence numbers and stamps the commit id on every record.
	Append(ctx context.Context, commit model.Commit, records []model.Record) error

	// Latest returns the current record for a string as of some time, or status.ErrNotFound.
	Latest(ctx context.Context, key model.StringKey, asOf time.Time) (model.Record, error)

	// Records returns the current record of every string ever recorded for a set as of some time,
	// including deletions, sorted by string id.
	Records(ctx context.Context, key model.SetKey, asOf time.Time) ([]model.Record, error)

	// Distinct lists the distinct values of a dimension among records matching a filter.
	Distinct(ctx context.Context, dim Dimension, filter Filter) ([]string, error)

	// CountGrouped counts the live strings per version, language and component as of some time.
	CountGrouped(ctx context.Context, filter Filter, asOf time.Time) ([]GroupCount, error)

	// GetCommit retrieves the description of a commit, or status.ErrNotFound.
	GetCommit(ctx context.Context, id string) (model.Commit, error)

	Close() error
}

// GroupCount is the number of live strings held by a set
type GroupCount struct {
	model.SetKey
	Count int `json:"count" yaml:"count"`
}
