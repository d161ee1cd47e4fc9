package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// ImportReport counts what an import applied and what it skipped.
type ImportReport struct {
	Projects int
	Threads  int
	Messages int
	Skipped  int
}

// Import loads backup records from r. Projects go through the same
// whole-subtree replace as SaveProject. Lines that are not JSON are dropped.
// Records of unknown kind and records rejected by a constraint (for example
// a message whose thread is missing) are skipped and counted; each record is
// applied under its own savepoint so a rejected record leaves nothing
// behind. Any other failure rolls back the whole import.
func (s *Store) Import(r io.Reader) (ImportReport, error) {
	records, err := decodeJSONL(r)
	if err != nil {
		return ImportReport{}, storeError("import", types.KindStorage, err)
	}
	return s.importRecords(records)
}

// ImportFile loads a backup file written by ExportFile.
func (s *Store) ImportFile(path string) (ImportReport, error) {
	records, err := readJSONL(path)
	if err != nil {
		return ImportReport{}, storeError("import", types.KindStorage, err)
	}
	return s.importRecords(records)
}

func (s *Store) importRecords(records []json.RawMessage) (ImportReport, error) {
	var report ImportReport
	err := s.write(func(tx *sql.Tx) error {
		for _, raw := range records {
			var rec backupRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				report.Skipped++
				continue
			}
			applied, err := applyRecord(tx, rec)
			if err != nil {
				return err
			}
			if !applied {
				report.Skipped++
				continue
			}
			switch rec.Kind {
			case recordProject:
				report.Projects++
			case recordThread:
				report.Threads++
			case recordMessage:
				report.Messages++
			}
		}
		return nil
	})
	if err != nil {
		return ImportReport{}, storeError("import", types.KindStorage, err)
	}
	s.logger.Info("import finished",
		"projects", report.Projects, "threads", report.Threads,
		"messages", report.Messages, "skipped", report.Skipped)
	return report, nil
}

// applyRecord writes one record inside a savepoint. It returns false when
// the record was invalid or rejected by a constraint.
func applyRecord(tx *sql.Tx, rec backupRecord) (bool, error) {
	var write func() error
	switch {
	case rec.Kind == recordProject && rec.Project != nil:
		if rec.Project.Validate() != nil {
			return false, nil
		}
		write = func() error { return writeProject(tx, rec.Project) }
	case rec.Kind == recordThread && rec.Thread != nil && rec.Thread.ID != "":
		write = func() error { return writeThread(tx, rec.Thread) }
	case rec.Kind == recordMessage && rec.Message != nil && rec.Message.ID != "":
		write = func() error { return writeMessage(tx, rec.Message) }
	default:
		return false, nil
	}

	if _, err := tx.Exec("SAVEPOINT import_record"); err != nil {
		return false, fmt.Errorf("creating savepoint: %w", err)
	}
	if err := write(); err != nil {
		if _, rbErr := tx.Exec("ROLLBACK TO import_record"); rbErr != nil {
			return false, fmt.Errorf("rolling back record: %w", rbErr)
		}
		if _, relErr := tx.Exec("RELEASE import_record"); relErr != nil {
			return false, fmt.Errorf("releasing savepoint: %w", relErr)
		}
		if isConstraint(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := tx.Exec("RELEASE import_record"); err != nil {
		return false, fmt.Errorf("releasing savepoint: %w", err)
	}
	return true, nil
}
