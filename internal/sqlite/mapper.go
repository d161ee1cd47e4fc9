package sqlite

import (
	"database/sql"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// Sequence buckets stored in task_steps.step_kind. The bucket decides which
// of a task's three sequences a step is loaded into; it is independent of
// the step's own kind tag stored in task_steps.type.
const (
	bucketPre  = "pre"
	bucketMain = "main"
	bucketPost = "post"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Column lists, kept next to the scan functions that depend on their order.
const (
	projectColumns = "id, name, path, created_at, updated_at"
	ruleColumns    = "id, project_id, name, description, created_at, updated_at"
	taskColumns    = "id, project_id, title, description, status, created_at, updated_at"
	stepColumns    = "id, title, content, status, type, step_kind, created_at, updated_at"
	threadColumns  = "id, project_id, title, created_at, updated_at"
	messageColumns = "id, thread_id, role, content, model, created_at"
)

// hydrateProject scans a projects row. Rules and tasks start empty; the
// query layer fills them.
func hydrateProject(row rowScanner) (*types.Project, error) {
	p := &types.Project{
		Rules: []types.AgentRule{},
		Tasks: []types.Task{},
	}
	if err := row.Scan(&p.ID, &p.Name, &p.Path, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func hydrateRule(row rowScanner) (types.AgentRule, error) {
	var r types.AgentRule
	var desc sql.NullString
	if err := row.Scan(&r.ID, &r.ProjectID, &r.Name, &desc, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return r, err
	}
	if desc.Valid {
		d := desc.String
		r.Description = &d
	}
	return r, nil
}

// hydrateTask scans a tasks row. An unreadable status decodes to pending.
func hydrateTask(row rowScanner) (types.Task, error) {
	t := types.Task{
		Presteps:  []types.TaskStep{},
		Steps:     []types.TaskStep{},
		Poststeps: []types.TaskStep{},
	}
	var status sql.NullString
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	t.Status = types.ParseTaskStatus(status.String)
	return t, nil
}

// hydrateStep scans a task_steps row and returns the step with the bucket
// it was stored in.
func hydrateStep(row rowScanner) (types.TaskStep, string, error) {
	var s types.TaskStep
	var status, kind, bucket sql.NullString
	if err := row.Scan(&s.ID, &s.Title, &s.Content, &status, &kind, &bucket, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return s, "", err
	}
	s.Status = types.ParseTaskStatus(status.String)
	s.Type = types.ParseStepType(kind.String)
	return s, parseBucket(bucket.String), nil
}

func hydrateThread(row rowScanner) (*types.ChatThread, error) {
	t := &types.ChatThread{}
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func hydrateMessage(row rowScanner) (*types.ChatMessage, error) {
	m := &types.ChatMessage{}
	if err := row.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &m.Model, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// parseBucket decodes task_steps.step_kind; anything unrecognized is the
// main sequence.
func parseBucket(s string) string {
	switch s {
	case bucketPre, bucketPost:
		return s
	default:
		return bucketMain
	}
}

// appendToBucket routes a loaded step into its task sequence.
func appendToBucket(t *types.Task, bucket string, s types.TaskStep) {
	switch bucket {
	case bucketPre:
		t.Presteps = append(t.Presteps, s)
	case bucketPost:
		t.Poststeps = append(t.Poststeps, s)
	default:
		t.Steps = append(t.Steps, s)
	}
}

// Dehydration: argument lists in the column order of the insert statements
// in writer.go.

func projectArgs(p *types.Project) []any {
	return []any{p.ID, p.Name, p.Path, p.CreatedAt, p.UpdatedAt}
}

func ruleArgs(projectID string, r types.AgentRule) []any {
	var desc any
	if r.Description != nil {
		desc = *r.Description
	}
	return []any{r.ID, projectID, r.Name, desc, r.CreatedAt, r.UpdatedAt}
}

func taskArgs(projectID string, t types.Task) []any {
	return []any{t.ID, projectID, t.Title, t.Description, t.Status.String(), t.CreatedAt, t.UpdatedAt}
}

func stepArgs(taskID, bucket string, order int, s types.TaskStep) []any {
	return []any{
		s.ID, taskID, s.Title, s.Content, s.Status.String(),
		s.CreatedAt, s.UpdatedAt, s.Type.String(), bucket, order,
	}
}

func threadArgs(t *types.ChatThread) []any {
	return []any{t.ID, t.ProjectID, t.Title, t.CreatedAt, t.UpdatedAt}
}

func messageArgs(m *types.ChatMessage) []any {
	return []any{m.ID, m.ThreadID, m.Role, m.Content, m.Model, m.CreatedAt}
}
