// Package memory implements a repository log held in memory, on top of an immutable radix tree.
//
// Readers work on a consistent snapshot of the tree, while appends swap the tree atomically.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/status"
)

const (
	recordPrefix = "r\x00"
	commitPrefix = "c\x00"
	sep          = "\x00"
)

var _ store.Log = &Log{}

// Log is an in-memory repository log
type Log struct {
	mu     sync.RWMutex
	tree   *iradix.Tree
	seq    uint64
	closed bool
}

// New in-memory repository log
func New() *Log {
	return &Log{tree: iradix.New()}
}

func setPrefix(k model.SetKey) []byte {
	return []byte(recordPrefix + k.Component + sep + k.Language + sep + fmt.Sprintf("%08d", k.Version) + sep)
}

func stringPrefix(k model.StringKey) []byte {
	return append(setPrefix(k.SetKey), []byte(k.StringID+sep)...)
}

func recordKey(r model.Record) []byte {
	return append(stringPrefix(r.Key()), []byte(fmt.Sprintf("%020d", r.Seq))...)
}

func (l *Log) snapshot() (*iradix.Tree, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, status.ErrClosed
	}
	return l.tree, nil
}

// Append a commit and its records in a single swap of the tree
func (l *Log) Append(_ context.Context, commit model.Commit, records []model.Record) error {
	if err := store.Validate(commit, records); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return status.ErrClosed
	}

	txn := l.tree.Txn()
	if _, exists := txn.Get([]byte(commitPrefix + commit.ID)); exists {
		return status.ErrCommitExists.Wrapf("%s", commit.ID)
	}
	txn.Insert([]byte(commitPrefix+commit.ID), commit)

	seq := l.seq
	for _, r := range records {
		seq++
		r.Seq = seq
		r.CommitID = commit.ID
		txn.Insert(recordKey(r), r)
	}

	l.tree = txn.Commit()
	l.seq = seq
	return nil
}

func (l *Log) collect(prefix []byte, filter func(model.Record) bool) ([]model.Record, error) {
	tree, err := l.snapshot()
	if err != nil {
		return nil, err
	}

	var records []model.Record
	tree.Root().WalkPrefix(prefix, func(_ []byte, v interface{}) bool {
		r := v.(model.Record)
		if filter == nil || filter(r) {
			records = append(records, r)
		}
		return false
	})
	return records, nil
}

// Latest record for a string as of some time
func (l *Log) Latest(_ context.Context, key model.StringKey, asOf time.Time) (model.Record, error) {
	records, err := l.collect(stringPrefix(key), nil)
	if err != nil {
		return model.Record{}, err
	}
	winners := store.Winners(records, asOf)
	if len(winners) == 0 {
		return model.Record{}, status.ErrNotFound.Wrapf("%s", key)
	}
	return winners[0], nil
}

// Records current as of some time for all the strings of a set
func (l *Log) Records(_ context.Context, key model.SetKey, asOf time.Time) ([]model.Record, error) {
	records, err := l.collect(setPrefix(key), nil)
	if err != nil {
		return nil, err
	}
	return store.Winners(records, asOf), nil
}

// Distinct values of a dimension
func (l *Log) Distinct(_ context.Context, dim store.Dimension, filter store.Filter) ([]string, error) {
	if err := dim.Valid(); err != nil {
		return nil, err
	}
	records, err := l.collect([]byte(recordPrefix), filter.Match)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v, _ := dim.Value(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	store.SortDistinct(dim, values)
	return values, nil
}

// CountGrouped live strings per set
func (l *Log) CountGrouped(_ context.Context, filter store.Filter, asOf time.Time) ([]store.GroupCount, error) {
	records, err := l.collect([]byte(recordPrefix), filter.Match)
	if err != nil {
		return nil, err
	}
	return store.CountLive(records, asOf), nil
}

// GetCommit by id
func (l *Log) GetCommit(_ context.Context, id string) (model.Commit, error) {
	tree, err := l.snapshot()
	if err != nil {
		return model.Commit{}, err
	}
	v, ok := tree.Get([]byte(commitPrefix + id))
	if !ok {
		return model.Commit{}, status.ErrNotFound.Wrapf("commit %s", id)
	}
	return v.(model.Commit), nil
}

// Close the log. Further operations fail with ErrClosed.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
