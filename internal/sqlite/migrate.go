package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// columnMigration adds a column that older stores may lack. Definitions must
// carry a default so the ALTER succeeds on tables that already hold rows.
type columnMigration struct {
	table  string
	column string
	def    string
}

// columnMigrations are applied in order; each is skipped when the column is
// already present, which makes the whole pass idempotent. Columns are only
// ever added, never dropped or renamed.
var columnMigrations = []columnMigration{
	{table: "task_steps", column: "type", def: "TEXT NOT NULL DEFAULT 'normal'"},
	{table: "task_steps", column: "step_kind", def: "TEXT NOT NULL DEFAULT 'main'"},
	{table: "task_steps", column: "sort_order", def: "INTEGER NOT NULL DEFAULT 0"},
	{table: "chat_messages", column: "model", def: "TEXT NOT NULL DEFAULT ''"},
	{table: "chat_threads", column: "created_at", def: "INTEGER NOT NULL DEFAULT 0"},
	{table: "chat_threads", column: "updated_at", def: "INTEGER NOT NULL DEFAULT 0"},
}

// initSchema creates missing tables, adds missing columns, backfills the
// zero sentinel left by added timestamp columns, and creates indexes. It runs
// in one transaction: either the store ends up well-formed or nothing changes.
func initSchema(db *sql.DB, now int64, logger *slog.Logger) error {
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("enabling WAL: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}

	for _, m := range columnMigrations {
		added, err := addColumnIfMissing(tx, m)
		if err != nil {
			return err
		}
		if added {
			logger.Info("added column", "table", m.table, "column", m.column)
		}
	}

	if err := backfillThreadTimestamps(tx, now); err != nil {
		return err
	}

	for _, ddl := range indexDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

// addColumnIfMissing reports whether the column had to be added.
func addColumnIfMissing(tx *sql.Tx, m columnMigration) (bool, error) {
	exists, err := columnExists(tx, m.table, m.column)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.def)
	if _, err := tx.Exec(stmt); err != nil {
		return false, fmt.Errorf("adding column %s.%s: %w", m.table, m.column, err)
	}
	return true, nil
}

func columnExists(q querier, table, column string) (bool, error) {
	var n int
	err := q.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

// backfillThreadTimestamps replaces the zero sentinel of chat thread
// timestamps: created_at becomes now, updated_at becomes created_at.
func backfillThreadTimestamps(tx *sql.Tx, now int64) error {
	if _, err := tx.Exec("UPDATE chat_threads SET created_at = ? WHERE created_at = 0", now); err != nil {
		return fmt.Errorf("backfilling chat_threads.created_at: %w", err)
	}
	if _, err := tx.Exec("UPDATE chat_threads SET updated_at = created_at WHERE updated_at = 0"); err != nil {
		return fmt.Errorf("backfilling chat_threads.updated_at: %w", err)
	}
	return nil
}
