package sqldb

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

type sqlite3Adapter struct{}

func (sqlite3Adapter) PostCreate(db *sqlx.DB) error {
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		// Faster than using default journal file
		"PRAGMA journal_mode = WAL",
		// Default (full) is slower
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

func (sqlite3Adapter) EnsureVersionTableExists(db *sqlx.DB) error {
	return ensureVersionTable(db, `CREATE TABLE IF NOT EXISTS "schema_migrations" ("version" INTEGER PRIMARY KEY NOT NULL)`)
}

func (sqlite3Adapter) Up() []string {
	return []string{
		// 1
		`
CREATE TABLE "amos_commits" (
    "id" TEXT PRIMARY KEY NOT NULL,
    "message" TEXT NOT NULL DEFAULT '',
    "source" TEXT NOT NULL DEFAULT '',
    "meta" TEXT NOT NULL DEFAULT '{}',
    "committed" INTEGER NOT NULL
);
CREATE TABLE "amos_repository" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "commitid" TEXT NOT NULL REFERENCES "amos_commits"("id"),
    "branch" INTEGER NOT NULL,
    "lang" TEXT NOT NULL,
    "component" TEXT NOT NULL,
    "stringid" TEXT NOT NULL,
    "text" TEXT NOT NULL DEFAULT '',
    "textnull" INTEGER NOT NULL DEFAULT 0,
    "timemodified" INTEGER NOT NULL,
    "deleted" INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX "amos_repository_key" ON "amos_repository" ("component", "lang", "branch", "stringid");
CREATE INDEX "amos_repository_lang" ON "amos_repository" ("lang");
`,
		// 2
		`CREATE INDEX "amos_repository_commitid" ON "amos_repository" ("commitid")`,
	}
}

func (sqlite3Adapter) Down() []string {
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
