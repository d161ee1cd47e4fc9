package types

// ProjectStore is the persistence facade the rest of the application
// depends on. Every call is a self-contained unit of work: it acquires its
// own connection and releases it before returning.
//
// Point reads report absence through the found result, never through an
// error. Errors returned by implementations are *StoreError values.
type ProjectStore interface {
	// SaveProject upserts the project row and replaces its rules, tasks and
	// steps with the ones in p, atomically.
	SaveProject(p *Project) error

	// DeleteProject removes the project and, by cascade, everything it owns.
	// Deleting an id that does not exist succeeds.
	DeleteProject(id string) error

	// LoadProject returns the full project with the given id.
	LoadProject(id string) (*Project, bool, error)

	// LoadProjectByPath returns the most recently updated project whose path
	// equals path exactly.
	LoadProjectByPath(path string) (*Project, bool, error)

	// LoadOrCreateProjectByPath returns the project at path, creating and
	// saving a new empty one when none exists.
	LoadOrCreateProjectByPath(path string) (*Project, error)

	// ListRecentProjects returns at most count projects, most recently
	// updated first.
	ListRecentProjects(count int) ([]*Project, error)

	// ListProjects returns every project, most recently updated first.
	ListProjects() ([]*Project, error)

	// SaveChatThread upserts a thread.
	SaveChatThread(t *ChatThread) error

	// SaveChatMessage upserts a message and advances its thread's UpdatedAt
	// to the message time when that is newer.
	SaveChatMessage(m *ChatMessage) error

	// LoadChatThread returns the thread with the given id.
	LoadChatThread(id string) (*ChatThread, bool, error)

	// ListChatThreads returns at most count threads of the project that hold
	// at least one message, most recently updated first.
	ListChatThreads(projectID string, count int) ([]*ChatThread, error)

	// ListChatMessages returns every message of the thread in chronological
	// order.
	ListChatMessages(threadID string) ([]*ChatMessage, error)

	// Close releases resources held by the store. It is idempotent.
	Close() error
}
