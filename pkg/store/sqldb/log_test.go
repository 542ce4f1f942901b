package sqldb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/logtest"
	"github.com/oneconcern/amos/pkg/store/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSqlite(t testing.TB) *Log {
	l, err := Open(DriverSqlite3, ":memory:", WithMaxOpenConns(1))
	require.NoError(t, err)
	return l
}

func TestSqlite3Log(t *testing.T) {
	logtest.Run(t, func(t testing.TB) store.Log { return openSqlite(t) })
}

func TestPostgresLog(t *testing.T) {
	dsn := os.Getenv("AMOS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AMOS_TEST_POSTGRES_DSN not set")
	}

	logtest.Run(t, func(t testing.TB) store.Log {
		l, err := Open(DriverPostgres, dsn)
		require.NoError(t, err)
		_, err = l.MigrateDown()
		require.NoError(t, err)
		_, err = l.MigrateUp()
		require.NoError(t, err)
		return l
	})
}

func TestMigrations(t *testing.T) {
	l, err := Open(DriverSqlite3, filepath.Join(t.TempDir(), "amos.db"))
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	version, err := l.version()
	require.NoError(t, err)
	assert.Equal(t, int64(len(l.adapter.Up())), version)

	version, err = l.MigrateUp()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version, "migrating twice is a no-op")

	version, err = l.MigrateDown()
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	version, err = l.MigrateUp()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := newAdapter("mysql")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnsupportedDriver))
}

func TestWhereFilter(t *testing.T) {
	where, args, err := whereFilter(store.Filter{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", where)
	assert.Empty(t, args)

	where, args, err = whereFilter(store.Filter{
		Versions:   []int{2000, 2100},
		Languages:  []string{},
		Components: []string{"moodle"},
	}, []string{"timemodified <= ?"}, []interface{}{int64(42)})
	require.NoError(t, err)
	assert.Equal(t, "1 = 1 AND timemodified <= ? AND branch IN (?, ?) AND 1 = 0 AND component IN (?)", where)
	assert.Equal(t, []interface{}{int64(42), 2000, 2100, "moodle"}, args)
}
