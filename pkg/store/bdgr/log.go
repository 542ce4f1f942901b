// Package bdgr implements a persistent repository log on top of a badger key-value store.
package bdgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/status"
	"go.uber.org/zap"
)

const (
	recordPrefix = "r\x00"
	commitPrefix = "c\x00"
	sequenceKey  = "s\x00records"
	sep          = "\x00"

	sequenceBandwidth = 1000
	retryInterval     = 10 * time.Millisecond
	maxRetries        = 50
)

var (
	_    store.Log = &Log{}
	json           = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Log is a repository log persisted in badger
type Log struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *zap.Logger

	// appends are serialized so sequence numbers follow the order of commits
	mu    sync.Mutex
	close sync.Once
}

// Open a badger repository log located in dir.
// An empty dir opens a volatile, in-memory store.
func Open(dir string, opts ...Option) (*Log, error) {
	o := defaultOptions()
	for _, apply := range opts {
		apply(o)
	}

	bopts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(o.syncWrites).
		WithIndexCacheSize(o.indexCacheSize)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger log at %q: %w", dir, err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("allocating record sequence: %w", err)
	}

	return &Log{db: db, seq: seq, logger: o.logger}, nil
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

// Append a commit and its records within a single badger transaction
func (l *Log) Append(_ context.Context, commit model.Commit, records []model.Record) error {
	if err := store.Validate(commit, records); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	commitKey := []byte(commitPrefix + commit.ID)
	commitValue, err := json.Marshal(commit)
	if err != nil {
		return err
	}

	return backoff.Retry(func() error {
		err := l.db.Update(func(txn *badger.Txn) error {
			_, e := txn.Get(commitKey)
			if e == nil {
				return status.ErrCommitExists.Wrapf("%s", commit.ID)
			}
			if !errors.Is(e, badger.ErrKeyNotFound) {
				return e
			}

			if e = txn.Set(commitKey, commitValue); e != nil {
				return e
			}

			for _, r := range records {
				seq, e := l.seq.Next()
				if e != nil {
					return e
				}
				r.Seq = seq + 1 // badger sequences start at 0
				r.CommitID = commit.ID
				value, e := json.Marshal(r)
				if e != nil {
					return e
				}
				if e = txn.Set(recordKey(r), value); e != nil {
					return e
				}
			}
			return nil
		})

		switch {
		case err == nil:
			return nil
		case errors.Is(err, badger.ErrConflict):
			l.logger.Debug("conflict on badger append, retrying", zap.String("commit", commit.ID))
			return err
		default:
			return backoff.Permanent(err)
		}
	},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), maxRetries),
	)
}

func (l *Log) collect(prefix []byte, filter func(model.Record) bool) ([]model.Record, error) {
	var records []model.Record
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchSize:   100,
			PrefetchValues: true,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r model.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			if filter == nil || filter(r) {
				records = append(records, r)
			}
		}
		return nil
	})
	return records, err
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
	seen := make(map[string]struct{})
	values := make([]string, 0)
	_, err := l.collect([]byte(recordPrefix), func(r model.Record) bool {
		if !filter.Match(r) {
			return false
		}
		v, _ := dim.Value(r)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
		return false
	})
	if err != nil {
		return nil, err
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
	var c model.Commit
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(commitPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.Commit{}, status.ErrNotFound.Wrapf("commit %s", id)
	}
	return c, err
}

// Close the underlying badger store
func (l *Log) Close() error {
	var err error
	l.close.Do(func() {
		if e := l.seq.Release(); e != nil {
			l.logger.Warn("releasing badger sequence", zap.Error(e))
		}
		err = l.db.Close()
	})
	return err
}
