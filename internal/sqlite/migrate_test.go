// Tests for schema creation and additive migration of older stores.
package sqlite

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// legacySchema is a store written before step ordering, step kinds, message
// models and thread timestamps existed.
var legacySchema = []string{
	`CREATE TABLE projects (id TEXT PRIMARY KEY, name TEXT NOT NULL, path TEXT NOT NULL, created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL)`,
	`CREATE TABLE agent_rules (id TEXT PRIMARY KEY, project_id TEXT NOT NULL, name TEXT NOT NULL, description TEXT, created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE)`,
	`CREATE TABLE tasks (id TEXT PRIMARY KEY, project_id TEXT NOT NULL, title TEXT NOT NULL, description TEXT NOT NULL, status TEXT NOT NULL, created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE)`,
	`CREATE TABLE task_steps (id TEXT PRIMARY KEY, task_id TEXT NOT NULL, title TEXT NOT NULL, content TEXT NOT NULL, status TEXT NOT NULL, created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE)`,
	`CREATE TABLE chat_threads (id TEXT PRIMARY KEY, project_id TEXT NOT NULL, title TEXT NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE)`,
	`CREATE TABLE chat_messages (id TEXT PRIMARY KEY, thread_id TEXT NOT NULL, role TEXT NOT NULL, content TEXT NOT NULL, created_at INTEGER NOT NULL,
		FOREIGN KEY (thread_id) REFERENCES chat_threads(id) ON DELETE CASCADE)`,
	`INSERT INTO projects VALUES ('p1', 'old', '/old', 1, 2)`,
	`INSERT INTO tasks VALUES ('t1', 'p1', 'task', '', 'completed', 1, 1)`,
	`INSERT INTO task_steps VALUES ('s1', 't1', 'step', 'body', 'in_progress', 1, 1)`,
	`INSERT INTO chat_threads VALUES ('th1', 'p1', 'legacy chat')`,
	`INSERT INTO chat_messages VALUES ('m1', 'th1', 'user', 'hello', 3)`,
}

func writeLegacyStore(t *testing.T, dir string) {
	t.Helper()
	writeStore(t, dir, legacySchema)
}

// writeStore runs stmts against a fresh database file in dir.
func writeStore(t *testing.T, dir string, stmts []string) {
	t.Helper()
	db, err := sql.Open(driverName, filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func openAt(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(types.Config{DataDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitSchemaCreatesTablesAndIndexes(t *testing.T) {
	s := setupStore(t)
	db, err := s.open()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range tableNames {
		var n int
		require.NoError(t, db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&n))
		assert.Equal(t, 1, n, "table %s", table)
	}

	for _, idx := range []string{
		"idx_agent_rules_project_id",
		"idx_tasks_project_id",
		"idx_task_steps_task_id",
		"idx_projects_path",
		"idx_chat_threads_project_id",
		"idx_chat_messages_thread_id",
	} {
		var n int
		require.NoError(t, db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", idx,
		).Scan(&n))
		assert.Equal(t, 1, n, "index %s", idx)
	}

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestInitSchemaMigratesLegacyStore(t *testing.T) {
	dir := t.TempDir()
	writeLegacyStore(t, dir)
	s := openAt(t, dir)

	db, err := s.open()
	require.NoError(t, err)
	for _, m := range columnMigrations {
		ok, err := columnExists(db, m.table, m.column)
		require.NoError(t, err)
		assert.True(t, ok, "%s.%s", m.table, m.column)
	}
	db.Close()

	p, found, err := s.LoadProject("p1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, types.StatusCompleted, p.Tasks[0].Status)
	require.Len(t, p.Tasks[0].Steps, 1)
	assert.Empty(t, p.Tasks[0].Presteps)
	assert.Equal(t, types.StepNormal, p.Tasks[0].Steps[0].Type)
	assert.Equal(t, types.StatusInProgress, p.Tasks[0].Steps[0].Status)

	th, found, err := s.LoadChatThread("th1")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotZero(t, th.CreatedAt)
	assert.Equal(t, th.CreatedAt, th.UpdatedAt)

	msgs, err := s.ListChatMessages("th1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "", msgs[0].Model)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeLegacyStore(t, dir)
	s := openAt(t, dir)

	before, _, err := s.LoadChatThread("th1")
	require.NoError(t, err)

	// A second pass with a different clock must not touch backfilled rows.
	db, err := s.open()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, initSchema(db, before.CreatedAt+1000, s.logger))
	require.NoError(t, initSchema(db, before.CreatedAt+2000, s.logger))

	after, _, err := s.LoadChatThread("th1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	var cols int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('task_steps')").Scan(&cols))
	assert.Equal(t, 10, cols)
}

func TestInitSchemaBackfillUsesClock(t *testing.T) {
	dir := t.TempDir()
	writeLegacyStore(t, dir)

	// Add the timestamp columns without backfilling, as a crashed older
	// build might have left them.
	db, err := sql.Open(driverName, filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	_, err = db.Exec("ALTER TABLE chat_threads ADD COLUMN created_at INTEGER NOT NULL DEFAULT 0")
	require.NoError(t, err)
	_, err = db.Exec("ALTER TABLE chat_threads ADD COLUMN updated_at INTEGER NOT NULL DEFAULT 0")
	require.NoError(t, err)
	db.Close()

	s := openAt(t, dir)
	execRaw(t, s, "UPDATE chat_threads SET created_at = 0, updated_at = 0")

	raw, err := s.open()
	require.NoError(t, err)
	defer raw.Close()
	require.NoError(t, initSchema(raw, 4242, s.logger))

	th, _, err := s.LoadChatThread("th1")
	require.NoError(t, err)
	assert.Equal(t, int64(4242), th.CreatedAt)
	assert.Equal(t, int64(4242), th.UpdatedAt)
}

func TestInitSchemaFailureIsFatalAndRollsBack(t *testing.T) {
	// chat_messages is a view, so adding its model column fails after the
	// task_steps columns were already added in the same transaction.
	var stmts []string
	for _, stmt := range legacySchema {
		if !strings.Contains(stmt, "chat_messages") {
			stmts = append(stmts, stmt)
		}
	}
	stmts = append(stmts, `CREATE VIEW chat_messages AS
		SELECT 'm1' AS id, 'th1' AS thread_id, 'user' AS role, 'hello' AS content, 3 AS created_at`)

	dir := t.TempDir()
	writeStore(t, dir, stmts)

	_, err := Open(types.Config{DataDir: dir, Logger: quietLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInitialization)

	db, err := sql.Open(driverName, filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()

	for _, column := range []string{"type", "step_kind", "sort_order"} {
		ok, err := columnExists(db, "task_steps", column)
		require.NoError(t, err)
		assert.False(t, ok, "task_steps.%s must be rolled back", column)
	}
	for _, table := range []string{"chat_threads", "task_steps"} {
		var n int
		require.NoError(t, db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%' AND tbl_name = ?", table,
		).Scan(&n))
		assert.Zero(t, n, "indexes on %s", table)
	}

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Zero(t, version)

	var status string
	require.NoError(t, db.QueryRow("SELECT status FROM task_steps WHERE id = 's1'").Scan(&status))
	assert.Equal(t, "in_progress", status)
}
