// Package sqlite implements the single-file SQLite store for projects, their
// rules, tasks and steps, and the chat history kept alongside them.
package sqlite

// dbFileName is the database file created inside the data directory.
const dbFileName = "projects.db.sqlite"

// schemaVersion is recorded in PRAGMA user_version after a successful
// migration.
const schemaVersion = 1

// Table DDL. Every child table references its parent with ON DELETE CASCADE,
// so deleting a project removes everything it owns.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    path TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`

	createAgentRules = `CREATE TABLE IF NOT EXISTS agent_rules (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);`

	createTaskSteps = `CREATE TABLE IF NOT EXISTS task_steps (
    id TEXT PRIMARY KEY,
    task_id TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    type TEXT NOT NULL,
    step_kind TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
);`

	createChatThreads = `CREATE TABLE IF NOT EXISTS chat_threads (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);`

	createChatMessages = `CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (thread_id) REFERENCES chat_threads(id) ON DELETE CASCADE
);`
)

// Index DDL: every foreign-key column, the path lookup, and the columns the
// listings order by.
const (
	idxAgentRulesProject   = `CREATE INDEX IF NOT EXISTS idx_agent_rules_project_id ON agent_rules(project_id);`
	idxTasksProject        = `CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);`
	idxTaskStepsTask       = `CREATE INDEX IF NOT EXISTS idx_task_steps_task_id ON task_steps(task_id);`
	idxProjectsPath        = `CREATE INDEX IF NOT EXISTS idx_projects_path ON projects(path);`
	idxChatThreadsProject  = `CREATE INDEX IF NOT EXISTS idx_chat_threads_project_id ON chat_threads(project_id);`
	idxChatThreadsUpdated  = `CREATE INDEX IF NOT EXISTS idx_chat_threads_updated_at ON chat_threads(updated_at);`
	idxChatMessagesThread  = `CREATE INDEX IF NOT EXISTS idx_chat_messages_thread_id ON chat_messages(thread_id);`
	idxChatMessagesCreated = `CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createProjects,
	createAgentRules,
	createTasks,
	createTaskSteps,
	createChatThreads,
	createChatMessages,
}

// indexDDL lists all CREATE INDEX statements. They run after the column
// migrations because an older store may lack an indexed column.
var indexDDL = []string{
	idxAgentRulesProject,
	idxTasksProject,
	idxTaskStepsTask,
	idxProjectsPath,
	idxChatThreadsProject,
	idxChatThreadsUpdated,
	idxChatMessagesThread,
	idxChatMessagesCreated,
}

// tableNames lists the tables the store owns, in dependency order.
var tableNames = []string{
	"projects",
	"agent_rules",
	"tasks",
	"task_steps",
	"chat_threads",
	"chat_messages",
}
