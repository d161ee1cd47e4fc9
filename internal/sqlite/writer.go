package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

const (
	upsertProjectSQL = `INSERT INTO projects (id, name, path, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    path = excluded.path,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`

	insertRuleSQL = `INSERT INTO agent_rules (id, project_id, name, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	insertTaskSQL = `INSERT INTO tasks (id, project_id, title, description, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertStepSQL = `INSERT INTO task_steps (id, task_id, title, content, status, created_at, updated_at, type, step_kind, sort_order)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	upsertThreadSQL = `INSERT INTO chat_threads (id, project_id, title, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    project_id = excluded.project_id,
    title = excluded.title,
    updated_at = excluded.updated_at`

	upsertMessageSQL = `INSERT INTO chat_messages (id, thread_id, role, content, model, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    thread_id = excluded.thread_id,
    role = excluded.role,
    content = excluded.content,
    model = excluded.model,
    created_at = excluded.created_at`

	// advanceThreadSQL moves updated_at forward only.
	advanceThreadSQL = `UPDATE chat_threads
SET updated_at = CASE WHEN updated_at > ? THEN updated_at ELSE ? END
WHERE id = ?`
)

// writeProject upserts the project row and replaces its whole subtree. The
// caller owns the transaction; any error must roll it back so the previous
// subtree stays on disk.
func writeProject(tx *sql.Tx, p *types.Project) error {
	if _, err := tx.Exec(upsertProjectSQL, projectArgs(p)...); err != nil {
		return fmt.Errorf("upserting project %s: %w", p.ID, err)
	}
	if err := replaceRules(tx, p); err != nil {
		return err
	}
	return replaceTasks(tx, p)
}

func replaceRules(tx *sql.Tx, p *types.Project) error {
	if _, err := tx.Exec("DELETE FROM agent_rules WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("deleting rules of %s: %w", p.ID, err)
	}
	if len(p.Rules) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(insertRuleSQL)
	if err != nil {
		return fmt.Errorf("preparing rule insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range p.Rules {
		if _, err := stmt.Exec(ruleArgs(p.ID, r)...); err != nil {
			return fmt.Errorf("inserting rule %s: %w", r.ID, err)
		}
	}
	return nil
}

// replaceTasks deletes the project's tasks, which cascades to their steps,
// then inserts the current tasks and their three step sequences.
func replaceTasks(tx *sql.Tx, p *types.Project) error {
	if _, err := tx.Exec("DELETE FROM tasks WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("deleting tasks of %s: %w", p.ID, err)
	}
	if len(p.Tasks) == 0 {
		return nil
	}

	taskStmt, err := tx.Prepare(insertTaskSQL)
	if err != nil {
		return fmt.Errorf("preparing task insert: %w", err)
	}
	defer taskStmt.Close()

	stepStmt, err := tx.Prepare(insertStepSQL)
	if err != nil {
		return fmt.Errorf("preparing step insert: %w", err)
	}
	defer stepStmt.Close()

	for _, t := range p.Tasks {
		if _, err := taskStmt.Exec(taskArgs(p.ID, t)...); err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
		if err := insertSteps(stepStmt, t.ID, bucketPre, t.Presteps); err != nil {
			return err
		}
		if err := insertSteps(stepStmt, t.ID, bucketMain, t.Steps); err != nil {
			return err
		}
		if err := insertSteps(stepStmt, t.ID, bucketPost, t.Poststeps); err != nil {
			return err
		}
	}
	return nil
}

// insertSteps stores one sequence with a zero-based sort_order so the
// original order can be recovered.
func insertSteps(stmt *sql.Stmt, taskID, bucket string, steps []types.TaskStep) error {
	for i, s := range steps {
		if _, err := stmt.Exec(stepArgs(taskID, bucket, i, s)...); err != nil {
			return fmt.Errorf("inserting %s step %s of task %s: %w", bucket, s.ID, taskID, err)
		}
	}
	return nil
}

func deleteProject(q querier, id string) error {
	if _, err := q.Exec("DELETE FROM projects WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}

func writeThread(q querier, t *types.ChatThread) error {
	if _, err := q.Exec(upsertThreadSQL, threadArgs(t)...); err != nil {
		return fmt.Errorf("upserting chat thread %s: %w", t.ID, err)
	}
	return nil
}

// writeMessage upserts the message, then advances the owning thread's
// updated_at to the message time unless the thread is already newer.
func writeMessage(q querier, m *types.ChatMessage) error {
	if _, err := q.Exec(upsertMessageSQL, messageArgs(m)...); err != nil {
		return fmt.Errorf("upserting chat message %s: %w", m.ID, err)
	}
	if _, err := q.Exec(advanceThreadSQL, m.CreatedAt, m.CreatedAt, m.ThreadID); err != nil {
		return fmt.Errorf("advancing chat thread %s: %w", m.ThreadID, err)
	}
	return nil
}
