// Package sqldb implements the repository log on a SQL database (sqlite3 or postgres).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/status"
	"go.uber.org/zap"
)

var (
	_    store.Log = &Log{}
	json           = jsoniter.ConfigCompatibleWithStandardLibrary
)

const recordColumns = `id, commitid, branch, lang, component, stringid, text, textnull, timemodified, deleted`

type recordRow struct {
	ID           uint64 `db:"id"`
	CommitID     string `db:"commitid"`
	Branch       int    `db:"branch"`
	Lang         string `db:"lang"`
	Component    string `db:"component"`
	StringID     string `db:"stringid"`
	Text         string `db:"text"`
	TextNull     bool   `db:"textnull"`
	TimeModified int64  `db:"timemodified"`
	Deleted      bool   `db:"deleted"`
}

func (r recordRow) record() model.Record {
	return model.Record{
		Seq:       r.ID,
		CommitID:  r.CommitID,
		Component: r.Component,
		Language:  r.Lang,
		Version:   r.Branch,
		StringID:  r.StringID,
		Text:      r.Text,
		Null:      r.TextNull,
		Modified:  time.Unix(0, r.TimeModified).UTC(),
		Deleted:   r.Deleted,
	}
}

type commitRow struct {
	ID        string `db:"id"`
	Message   string `db:"message"`
	Source    string `db:"source"`
	Meta      string `db:"meta"`
	Committed int64  `db:"committed"`
}

// Log is a repository log stored in a SQL database
type Log struct {
	db      *sqlx.DB
	adapter Adapter
	logger  *zap.Logger
}

// Open a SQL repository log and migrates its schema to the latest version
func Open(driver, dsn string, opts ...Option) (*Log, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	l, err := New(db, driver, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New repository log on an already opened database.
//
// The driver parameter selects the database adapter, and should be one of the Driver* constants.
func New(db *sqlx.DB, driver string, opts ...Option) (*Log, error) {
	o := defaultOptions()
	for _, apply := range opts {
		apply(o)
	}

	adapter, err := newAdapter(driver)
	if err != nil {
		return nil, err
	}
	if o.maxOpenConns > 0 {
		db.SetMaxOpenConns(o.maxOpenConns)
	}
	if err = adapter.PostCreate(db); err != nil {
		return nil, err
	}

	l := &Log{db: db, adapter: adapter, logger: o.logger}
	version, err := l.MigrateUp()
	if err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	l.logger.Debug("sql repository log ready", zap.String("driver", driver), zap.Int64("schema", version))
	return l, nil
}

func (l *Log) version() (version int64, err error) {
	if err = l.adapter.EnsureVersionTableExists(l.db); err != nil {
		return 0, err
	}
	err = l.db.Get(&version, `SELECT version FROM schema_migrations`)
	return version, err
}

func (l *Log) updateVersion(tx *sqlx.Tx, version int64) error {
	_, err := tx.Exec(l.db.Rebind(`UPDATE schema_migrations SET version = ?`), version)
	return err
}

func (l *Log) migrate(statement string, to int64) error {
	tx, err := l.db.Beginx()
	if err != nil {
		return err
	}
	if _, err = tx.Exec(statement); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = l.updateVersion(tx, to); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MigrateUp applies all the pending schema migrations and returns the resulting schema version
func (l *Log) MigrateUp() (version int64, err error) {
	startVer, err := l.version()
	if err != nil {
		return 0, err
	}
	version = startVer

	for i, statement := range l.adapter.Up() {
		migTo := int64(i + 1)
		if migTo <= startVer {
			continue
		}
		if err = l.migrate(statement, migTo); err != nil {
			return version, err
		}
		version = migTo
	}
	return version, nil
}

// MigrateDown reverts all the schema migrations
func (l *Log) MigrateDown() (version int64, err error) {
	startVer, err := l.version()
	if err != nil {
		return 0, err
	}
	version = startVer

	down := l.adapter.Down()
	for i := len(down) - 1; i >= 0; i-- {
		migVer := int64(i + 1)
		if migVer > startVer {
			continue
		}
		if err = l.migrate(down[i], int64(i)); err != nil {
			return version, err
		}
		version = int64(i)
	}
	return version, nil
}

// Append a commit and its records within a single transaction
func (l *Log) Append(ctx context.Context, commit model.Commit, records []model.Record) error {
	if err := store.Validate(commit, records); err != nil {
		return err
	}
	meta, err := json.MarshalToString(commit.Meta)
	if err != nil {
		return err
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.GetContext(ctx, &exists, l.db.Rebind(`SELECT COUNT(*) FROM amos_commits WHERE id = ?`), commit.ID); err != nil {
		return err
	}
	if exists > 0 {
		err = status.ErrCommitExists.Wrapf("%s", commit.ID)
		return err
	}

	if _, err = tx.ExecContext(ctx,
		l.db.Rebind(`INSERT INTO amos_commits (id, message, source, meta, committed) VALUES (?, ?, ?, ?, ?)`),
		commit.ID, commit.Message, commit.Source, meta, commit.Committed.UnixNano(),
	); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, l.db.Rebind(
		`INSERT INTO amos_repository (commitid, branch, lang, component, stringid, text, textnull, timemodified, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx,
			commit.ID, r.Version, r.Language, r.Component, r.StringID, r.Text, r.Null, r.Modified.UnixNano(), r.Deleted,
		); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

func (l *Log) selectRecords(ctx context.Context, where string, args ...interface{}) ([]model.Record, error) {
	var rows []recordRow
	query := `SELECT ` + recordColumns + ` FROM amos_repository WHERE ` + where + ` ORDER BY id`
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

// Latest record for a string as of some time
func (l *Log) Latest(ctx context.Context, key model.StringKey, asOf time.Time) (model.Record, error) {
	var row recordRow
	err := l.db.GetContext(ctx, &row, l.db.Rebind(
		`SELECT `+recordColumns+` FROM amos_repository
		WHERE component = ? AND lang = ? AND branch = ? AND stringid = ? AND timemodified <= ?
		ORDER BY timemodified DESC, id DESC LIMIT 1`),
		key.Component, key.Language, key.Version, key.StringID, asOf.UnixNano(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, status.ErrNotFound.Wrapf("%s", key)
	}
	if err != nil {
		return model.Record{}, err
	}
	return row.record(), nil
}

// Records current as of some time for all the strings of a set
func (l *Log) Records(ctx context.Context, key model.SetKey, asOf time.Time) ([]model.Record, error) {
	records, err := l.selectRecords(ctx,
		`component = ? AND lang = ? AND branch = ? AND timemodified <= ?`,
		key.Component, key.Language, key.Version, asOf.UnixNano(),
	)
	if err != nil {
		return nil, err
	}
	return store.Winners(records, asOf), nil
}

// whereFilter renders a filter as a SQL condition appended to some base conditions,
// with bind vars expanded for lists
func whereFilter(filter store.Filter, conds []string, args []interface{}) (string, []interface{}, error) {
	conds = append([]string{"1 = 1"}, conds...)

	add := func(column string, values interface{}, n int, isNil bool) {
		switch {
		case isNil:
		case n == 0:
			conds = append(conds, "1 = 0")
		default:
			conds = append(conds, column+" IN (?)")
			args = append(args, values)
		}
	}
	add("branch", filter.Versions, len(filter.Versions), filter.Versions == nil)
	add("lang", filter.Languages, len(filter.Languages), filter.Languages == nil)
	add("component", filter.Components, len(filter.Components), filter.Components == nil)

	return sqlx.In(strings.Join(conds, " AND "), args...)
}

// Distinct values of a dimension
func (l *Log) Distinct(ctx context.Context, dim store.Dimension, filter store.Filter) ([]string, error) {
	if err := dim.Valid(); err != nil {
		return nil, err
	}
	where, args, err := whereFilter(filter, nil, nil)
	if err != nil {
		return nil, err
	}

	// dimension names are the column names
	column := string(dim)
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM amos_repository WHERE %s`, column, where)
	if dim == store.DimensionVersion {
		query = fmt.Sprintf(`SELECT DISTINCT CAST(%s AS TEXT) FROM amos_repository WHERE %s`, column, where)
	}

	values := make([]string, 0)
	if err := l.db.SelectContext(ctx, &values, l.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	store.SortDistinct(dim, values)
	return values, nil
}

// CountGrouped live strings per set
func (l *Log) CountGrouped(ctx context.Context, filter store.Filter, asOf time.Time) ([]store.GroupCount, error) {
	where, args, err := whereFilter(filter, []string{"timemodified <= ?"}, []interface{}{asOf.UnixNano()})
	if err != nil {
		return nil, err
	}

	records, err := l.selectRecords(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	return store.CountLive(records, asOf), nil
}

// GetCommit by id
func (l *Log) GetCommit(ctx context.Context, id string) (model.Commit, error) {
	var row commitRow
	err := l.db.GetContext(ctx, &row, l.db.Rebind(`SELECT id, message, source, meta, committed FROM amos_commits WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Commit{}, status.ErrNotFound.Wrapf("commit %s", id)
	}
	if err != nil {
		return model.Commit{}, err
	}

	c := model.Commit{
		ID:        row.ID,
		Message:   row.Message,
		Source:    row.Source,
		Committed: time.Unix(0, row.Committed).UTC(),
	}
	if err := json.UnmarshalFromString(row.Meta, &c.Meta); err != nil {
		return model.Commit{}, err
	}
	return c, nil
}

// Close the database
func (l *Log) Close() error {
	return l.db.Close()
}
