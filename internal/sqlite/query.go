package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// readProject loads the project and its whole subtree with one query per
// child collection. It returns nil, nil when no project has the id.
func readProject(q querier, id string) (*types.Project, error) {
	p, err := hydrateProject(q.QueryRow("SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}

	if p.Rules, err = readRules(q, p.ID); err != nil {
		return nil, err
	}
	if p.Tasks, err = readTasks(q, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func readRules(q querier, projectID string) ([]types.AgentRule, error) {
	rows, err := q.Query(
		"SELECT "+ruleColumns+" FROM agent_rules WHERE project_id = ? ORDER BY updated_at DESC, rowid ASC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rules of %s: %w", projectID, err)
	}
	defer rows.Close()

	rules := []types.AgentRule{}
	for rows.Next() {
		r, err := hydrateRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule of %s: %w", projectID, err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules of %s: %w", projectID, err)
	}
	return rules, nil
}

// readTasks collects the task rows first and closes the cursor before
// reading steps, so only one statement is active on the connection.
func readTasks(q querier, projectID string) ([]types.Task, error) {
	rows, err := q.Query(
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY updated_at DESC, rowid ASC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks of %s: %w", projectID, err)
	}

	tasks := []types.Task{}
	for rows.Next() {
		t, err := hydrateTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning task of %s: %w", projectID, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating tasks of %s: %w", projectID, err)
	}
	rows.Close()

	for i := range tasks {
		if err := readSteps(q, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// readSteps fills the three sequences of t in sort_order.
func readSteps(q querier, t *types.Task) error {
	rows, err := q.Query(
		"SELECT "+stepColumns+" FROM task_steps WHERE task_id = ? ORDER BY sort_order ASC, updated_at ASC, rowid ASC",
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("querying steps of task %s: %w", t.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		s, bucket, err := hydrateStep(rows)
		if err != nil {
			return fmt.Errorf("scanning step of task %s: %w", t.ID, err)
		}
		appendToBucket(t, bucket, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating steps of task %s: %w", t.ID, err)
	}
	return nil
}

// projectIDByPath returns the id of the most recently updated project at
// path, or "" when there is none.
func projectIDByPath(q querier, path string) (string, error) {
	var id string
	err := q.QueryRow(
		"SELECT id FROM projects WHERE path = ? ORDER BY updated_at DESC LIMIT 1", path,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up project by path: %w", err)
	}
	return id, nil
}

func projectExists(q querier, id string) (bool, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM projects WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking project %s: %w", id, err)
	}
	return n > 0, nil
}

// readProjects loads full projects in updated_at order. limit < 0 means no
// limit.
func readProjects(q querier, limit int) ([]*types.Project, error) {
	ids, err := readStrings(q, "SELECT id FROM projects ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]*types.Project, 0, len(ids))
	for _, id := range ids {
		p, err := readProject(q, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

// readThreads lists threads of a project that hold at least one message.
func readThreads(q querier, projectID string, limit int) ([]*types.ChatThread, error) {
	rows, err := q.Query(`SELECT t.id, t.project_id, t.title, t.created_at, t.updated_at
FROM chat_threads t
WHERE t.project_id = ?
  AND EXISTS (SELECT 1 FROM chat_messages m WHERE m.thread_id = t.id)
ORDER BY t.updated_at DESC
LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat threads of %s: %w", projectID, err)
	}
	defer rows.Close()

	threads := []*types.ChatThread{}
	for rows.Next() {
		t, err := hydrateThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chat thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat threads: %w", err)
	}
	return threads, nil
}

// readThread returns nil, nil when the thread does not exist.
func readThread(q querier, id string) (*types.ChatThread, error) {
	t, err := hydrateThread(q.QueryRow("SELECT "+threadColumns+" FROM chat_threads WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat thread %s: %w", id, err)
	}
	return t, nil
}

func readMessages(q querier, threadID string) ([]*types.ChatMessage, error) {
	rows, err := q.Query(
		"SELECT "+messageColumns+" FROM chat_messages WHERE thread_id = ? ORDER BY created_at ASC, rowid ASC",
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages of %s: %w", threadID, err)
	}
	defer rows.Close()

	messages := []*types.ChatMessage{}
	for rows.Next() {
		m, err := hydrateMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return messages, nil
}

func readStrings(q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
