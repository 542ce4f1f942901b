package sqldb

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres driver
)

type postgresAdapter struct{}

func (postgresAdapter) PostCreate(*sqlx.DB) error {
	return nil
}

func (postgresAdapter) EnsureVersionTableExists(db *sqlx.DB) error {
	return ensureVersionTable(db, `CREATE TABLE IF NOT EXISTS schema_migrations (version BIGINT PRIMARY KEY NOT NULL)`)
}

func (postgresAdapter) Up() []string {
	return []string{
		// 1
		`
CREATE TABLE amos_commits (
    id TEXT PRIMARY KEY NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    meta TEXT NOT NULL DEFAULT '{}',
    committed BIGINT NOT NULL
);
CREATE TABLE amos_repository (
    id BIGSERIAL PRIMARY KEY,
    commitid TEXT NOT NULL REFERENCES amos_commits(id),
    branch INTEGER NOT NULL,
    lang VARCHAR(20) NOT NULL,
    component VARCHAR(255) NOT NULL,
    stringid VARCHAR(255) NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    textnull BOOLEAN NOT NULL DEFAULT FALSE,
    timemodified BIGINT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX amos_repository_key ON amos_repository (component, lang, branch, stringid);
CREATE INDEX amos_repository_lang ON amos_repository (lang);
`,
		// 2
		`CREATE INDEX amos_repository_commitid ON amos_repository (commitid)`,
	}
}

func (postgresAdapter) Down() []string {
	return []string{
		// 1
		`
DROP TABLE amos_repository;
DROP TABLE amos_commits;
`,
		// 2
		`DROP INDEX amos_repository_commitid`,
	}
}
