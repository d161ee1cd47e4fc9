package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// maxRecordSize bounds a single JSONL line; a project with its whole subtree
// is one line.
const maxRecordSize = 16 << 20

// Backup record kinds.
const (
	recordProject = "project"
	recordThread  = "thread"
	recordMessage = "message"
)

// backupRecord is one line of a backup file. Exactly one of the payload
// fields is set, matching Kind.
type backupRecord struct {
	Kind    string             `json:"kind"`
	Project *types.Project     `json:"project,omitempty"`
	Thread  *types.ChatThread  `json:"thread,omitempty"`
	Message *types.ChatMessage `json:"message,omitempty"`
}

// decodeJSONL returns each non-empty, syntactically valid line of r.
// Malformed lines are skipped.
func decodeJSONL(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	return records, nil
}

// readJSONL reads a JSONL file, see decodeJSONL.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return decodeJSONL(f)
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := encodeJSONL(w, records); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func encodeJSONL(w io.Writer, records []json.RawMessage) error {
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	return nil
}

// Export writes every project, then every thread and its messages, as JSONL
// records. The snapshot is taken in one read transaction.
func (s *Store) Export(w io.Writer) error {
	records, err := s.exportRecords()
	if err != nil {
		return storeError("export", types.KindStorage, err)
	}
	return encodeJSONL(w, records)
}

// ExportFile writes the backup to path, replacing any existing file
// atomically.
func (s *Store) ExportFile(path string) error {
	records, err := s.exportRecords()
	if err != nil {
		return storeError("export", types.KindStorage, err)
	}
	return writeJSONL(path, records)
}

func (s *Store) exportRecords() ([]json.RawMessage, error) {
	var records []json.RawMessage
	add := func(rec backupRecord) error {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding %s record: %w", rec.Kind, err)
		}
		records = append(records, b)
		return nil
	}

	err := s.read(func(q querier) error {
		projects, err := readProjects(q, -1)
		if err != nil {
			return err
		}
		for _, p := range projects {
			if err := add(backupRecord{Kind: recordProject, Project: p}); err != nil {
				return err
			}
		}
		for _, p := range projects {
			threads, err := readAllThreads(q, p.ID)
			if err != nil {
				return err
			}
			for _, t := range threads {
				if err := add(backupRecord{Kind: recordThread, Thread: t}); err != nil {
					return err
				}
				messages, err := readMessages(q, t.ID)
				if err != nil {
					return err
				}
				for _, m := range messages {
					if err := add(backupRecord{Kind: recordMessage, Message: m}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("exported records", "count", len(records))
	return records, nil
}

// readAllThreads lists every thread of a project, including threads without
// messages, oldest first.
func readAllThreads(q querier, projectID string) ([]*types.ChatThread, error) {
	rows, err := q.Query(
		"SELECT "+threadColumns+" FROM chat_threads WHERE project_id = ? ORDER BY created_at ASC, rowid ASC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat threads of %s: %w", projectID, err)
	}
	defer rows.Close()

	var threads []*types.ChatThread
	for rows.Next() {
		t, err := hydrateThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chat thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}
