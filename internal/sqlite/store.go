package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// defaultProjectName is used when no name can be derived from a path.
const defaultProjectName = "Project"

// Store implements types.ProjectStore on a single SQLite file. It holds no
// open connection between calls: every operation opens its own connection,
// enables foreign keys on it, runs one transaction, and closes it on every
// exit path.
type Store struct {
	dbPath string
	dsn    string
	logger *slog.Logger
	now    func() int64

	// writeMu serializes writers inside this process so they do not contend
	// for the database lock; atomicity comes from the transactions.
	writeMu sync.Mutex
	closed  atomic.Bool
}

// Compile-time interface check.
var _ types.ProjectStore = (*Store)(nil)

// Open prepares the store in config.DataDir, creating the directory and the
// database file as needed, and brings the schema up to date. Any failure here
// is an initialization error: the store is not usable.
func Open(config types.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, &types.StoreError{Op: "open store", Kind: types.KindInit, Err: err}
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, &types.StoreError{Op: "open store", Kind: types.KindInit, Err: err}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dataDir, err := filepath.Abs(config.DataDir)
	if err != nil {
		return nil, &types.StoreError{Op: "open store", Kind: types.KindInit, Err: err}
	}
	dbPath := filepath.Join(dataDir, dbFileName)

	s := &Store{
		dbPath: dbPath,
		dsn:    fileDSN(dbPath),
		logger: logger.With("component", "store"),
		now:    func() int64 { return time.Now().UnixMilli() },
	}

	db, err := s.open()
	if err != nil {
		return nil, &types.StoreError{Op: "open store", Kind: types.KindInit, Err: err}
	}
	defer db.Close()

	if err := initSchema(db, s.now(), s.logger); err != nil {
		return nil, &types.StoreError{Op: "open store", Kind: types.KindInit, Err: err}
	}

	s.logger.Info("store opened", "path", dbPath)
	return s, nil
}

// DBPath returns the location of the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

// Close marks the store closed. Later operations fail with ErrStoreClosed.
// Close is idempotent.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// open returns a handle restricted to a single connection, so the pragmas
// in the DSN and every statement of a call apply to the same connection.
func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open(driverName, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

// fileDSN builds a file: URI for path. The path is escaped so that '?' or
// '#' in a directory name cannot end the file name early.
func fileDSN(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths: file:///C:/...
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "_pragma=busy_timeout(5000)"}
	return u.String()
}

// read runs fn inside a read transaction, so a multi-query load observes a
// single committed state.
func (s *Store) read(fn func(q querier) error) error {
	if s.closed.Load() {
		return types.ErrStoreClosed
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning read: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// write runs fn inside a transaction and commits only if fn succeeds.
func (s *Store) write(fn func(tx *sql.Tx) error) error {
	if s.closed.Load() {
		return types.ErrStoreClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// SaveProject upserts p and replaces its rules, tasks and steps.
func (s *Store) SaveProject(p *types.Project) error {
	const op = "save project"
	if err := p.Validate(); err != nil {
		return storeError(op, types.KindStorage, err)
	}
	err := s.write(func(tx *sql.Tx) error {
		return writeProject(tx, p)
	})
	return storeError(op, types.KindStorage, err)
}

// DeleteProject removes the project and everything it owns. Unknown ids are
// not an error.
func (s *Store) DeleteProject(id string) error {
	err := s.write(func(tx *sql.Tx) error {
		return deleteProject(tx, id)
	})
	return storeError("delete project", types.KindStorage, err)
}

// LoadProject returns the project with its full subtree.
func (s *Store) LoadProject(id string) (*types.Project, bool, error) {
	var p *types.Project
	err := s.read(func(q querier) error {
		var err error
		p, err = readProject(q, id)
		return err
	})
	if err != nil {
		return nil, false, storeError("load project", types.KindStorage, err)
	}
	return p, p != nil, nil
}

// LoadProjectByPath returns the most recently updated project at path.
func (s *Store) LoadProjectByPath(path string) (*types.Project, bool, error) {
	var p *types.Project
	err := s.read(func(q querier) error {
		id, err := projectIDByPath(q, path)
		if err != nil || id == "" {
			return err
		}
		p, err = readProject(q, id)
		return err
	})
	if err != nil {
		return nil, false, storeError("load project by path", types.KindStorage, err)
	}
	return p, p != nil, nil
}

// LoadOrCreateProjectByPath returns the project at path, or creates an empty
// one named after the last path segment. Lookup and creation share one
// transaction, so concurrent callers for the same path get the same project.
func (s *Store) LoadOrCreateProjectByPath(path string) (*types.Project, error) {
	var p *types.Project
	err := s.write(func(tx *sql.Tx) error {
		id, err := projectIDByPath(tx, path)
		if err != nil {
			return err
		}
		if id != "" {
			p, err = readProject(tx, id)
			return err
		}

		now := s.now()
		id, err = freeProjectID(tx, now)
		if err != nil {
			return err
		}
		p = &types.Project{
			ID:        id,
			Name:      ProjectNameFromPath(path),
			Path:      path,
			Rules:     []types.AgentRule{},
			Tasks:     []types.Task{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.logger.Info("creating project", "id", p.ID, "path", path)
		return writeProject(tx, p)
	})
	if err != nil {
		return nil, storeError("load or create project", types.KindStorage, err)
	}
	return p, nil
}

// ListRecentProjects returns at most count projects, newest first. A count
// of zero returns an empty list without opening the database.
func (s *Store) ListRecentProjects(count int) ([]*types.Project, error) {
	if count <= 0 {
		return []*types.Project{}, nil
	}
	s.logger.Debug("loading recent projects", "count", count)

	var projects []*types.Project
	err := s.read(func(q querier) error {
		var err error
		projects, err = readProjects(q, count)
		return err
	})
	if err != nil {
		return nil, storeError("list recent projects", types.KindStorage, err)
	}
	s.logger.Debug("loaded recent projects", "count", len(projects))
	return projects, nil
}

// ListProjects returns every project, newest first.
func (s *Store) ListProjects() ([]*types.Project, error) {
	var projects []*types.Project
	err := s.read(func(q querier) error {
		var err error
		projects, err = readProjects(q, -1)
		return err
	})
	if err != nil {
		return nil, storeError("list projects", types.KindStorage, err)
	}
	return projects, nil
}

// SaveChatThread upserts t. On conflict the created_at of the stored thread
// is kept.
func (s *Store) SaveChatThread(t *types.ChatThread) error {
	const op = "save chat thread"
	if t == nil || t.ID == "" {
		return storeError(op, types.KindStorage, types.ErrInvalidID)
	}
	err := s.write(func(tx *sql.Tx) error {
		return writeThread(tx, t)
	})
	return storeError(op, types.KindStorage, err)
}

// SaveChatMessage upserts m and advances its thread's updated_at.
func (s *Store) SaveChatMessage(m *types.ChatMessage) error {
	const op = "save chat message"
	if m == nil || m.ID == "" || m.ThreadID == "" {
		return storeError(op, types.KindStorage, types.ErrInvalidID)
	}
	err := s.write(func(tx *sql.Tx) error {
		return writeMessage(tx, m)
	})
	return storeError(op, types.KindStorage, err)
}

// LoadChatThread returns the thread with the given id.
func (s *Store) LoadChatThread(id string) (*types.ChatThread, bool, error) {
	var t *types.ChatThread
	err := s.read(func(q querier) error {
		var err error
		t, err = readThread(q, id)
		return err
	})
	if err != nil {
		return nil, false, storeError("load chat thread", types.KindStorage, err)
	}
	return t, t != nil, nil
}

// ListChatThreads returns the project's threads that hold messages, newest
// first, at most count of them.
func (s *Store) ListChatThreads(projectID string, count int) ([]*types.ChatThread, error) {
	if count <= 0 {
		return []*types.ChatThread{}, nil
	}
	s.logger.Debug("loading chat threads", "project", projectID, "count", count)

	var threads []*types.ChatThread
	err := s.read(func(q querier) error {
		var err error
		threads, err = readThreads(q, projectID, count)
		return err
	})
	if err != nil {
		return nil, storeError("list chat threads", types.KindStorage, err)
	}
	return threads, nil
}

// ListChatMessages returns all messages of the thread, oldest first.
func (s *Store) ListChatMessages(threadID string) ([]*types.ChatMessage, error) {
	var messages []*types.ChatMessage
	err := s.read(func(q querier) error {
		var err error
		messages, err = readMessages(q, threadID)
		return err
	})
	if err != nil {
		return nil, storeError("list chat messages", types.KindStorage, err)
	}
	return messages, nil
}

// freeProjectID derives a project id from the creation time. If another
// project already holds that id the timestamp suffix is advanced until the
// id is unused.
func freeProjectID(q querier, now int64) (string, error) {
	for ts := now; ; ts++ {
		id := fmt.Sprintf("project-%d", ts)
		taken, err := projectExists(q, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
}

// ProjectNameFromPath returns the last non-empty segment of path, treating
// both '/' and '\' as separators, or "Project" when there is none.
func ProjectNameFromPath(path string) string {
	segments := strings.Split(strings.ReplaceAll(path, `\`, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return defaultProjectName
}
