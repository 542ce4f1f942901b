package sqldb

import (
	"github.com/jmoiron/sqlx"
	"github.com/oneconcern/amos/pkg/store/status"
)

// Supported drivers
const (
	DriverSqlite3  = "sqlite3"
	DriverPostgres = "postgres"
)

// Adapter provides database-driver-specific statements
type Adapter interface {
	// PostCreate tunes a freshly opened connection pool
	PostCreate(*sqlx.DB) error

	// EnsureVersionTableExists creates the schema_migrations table if needed
	EnsureVersionTableExists(*sqlx.DB) error

	// Up lists the schema migrations, in order
	Up() []string

	// Down lists the statements reverting each migration of Up
	Down() []string
}

func newAdapter(driver string) (Adapter, error) {
	switch driver {
	case DriverSqlite3:
		return sqlite3Adapter{}, nil
	case DriverPostgres:
		return postgresAdapter{}, nil
	default:
		return nil, status.ErrUnsupportedDriver.Wrapf("%q", driver)
	}
}

func ensureVersionTable(db *sqlx.DB, ddl string) error {
	if _, err := db.Exec(ddl); err != nil {
		return err
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		return err
	}
	switch {
	case count == 0:
		_, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES (0)`)
		return err
	case count > 1:
		return status.ErrInvalidRecord.Wrapf("too many rows in schema_migrations table")
	}
	return nil
}
