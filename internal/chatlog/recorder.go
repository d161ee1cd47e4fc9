// Package chatlog records an agent conversation into the project store as
// it streams, one durable message at a time.
package chatlog

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// Store is the part of types.ProjectStore the recorder works through.
type Store interface {
	LoadChatThread(id string) (*types.ChatThread, bool, error)
	SaveChatThread(t *types.ChatThread) error
	SaveChatMessage(m *types.ChatMessage) error
}

// DefaultTitle names a new thread started without a title.
const DefaultTitle = "New chat"

// RoleError is the role given to messages recorded from error events.
const RoleError = "error"

// defaultRole is used for message events that carry no role.
const defaultRole = "assistant"

// ErrNotStarted is returned by Append before Begin.
var ErrNotStarted = errors.New("chat thread not started")

// EventKind classifies an event emitted by the agent stream.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventError   EventKind = "error"
	EventToken   EventKind = "token"
	EventDone    EventKind = "done"
)

// Event is one item of the agent stream. Token and done events are
// transient and never persisted.
type Event struct {
	Kind    EventKind
	Role    string
	Content string
	Model   string
}

// Recorder appends the messages of one thread. Messages are saved before
// Append returns, and their timestamps never decrease, so the stored order
// matches the order of Append calls.
type Recorder struct {
	store     Store
	projectID string
	threadID  string
	logger    *slog.Logger
	now       func() int64

	mu      sync.Mutex
	started bool
	last    int64
}

// NewRecorder returns a recorder for threadID in projectID. An empty
// threadID starts a new thread with a generated id.
func NewRecorder(store Store, projectID, threadID string, logger *slog.Logger) *Recorder {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:     store,
		projectID: projectID,
		threadID:  threadID,
		logger:    logger.With("component", "chatlog", "thread", threadID),
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// ThreadID returns the id of the recorded thread.
func (r *Recorder) ThreadID() string {
	return r.threadID
}

// Begin creates the thread. An existing thread is left as it is when title
// is empty and renamed otherwise; the store keeps its creation time.
func (r *Recorder) Begin(title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, found, err := r.store.LoadChatThread(r.threadID)
	if err != nil {
		return fmt.Errorf("begin chat thread: %w", err)
	}
	if found && title == "" {
		r.started = true
		return nil
	}
	if title == "" {
		title = DefaultTitle
	}

	ts := r.tickLocked()
	err = r.store.SaveChatThread(&types.ChatThread{
		ID:        r.threadID,
		ProjectID: r.projectID,
		Title:     title,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return fmt.Errorf("begin chat thread: %w", err)
	}
	r.started = true
	return nil
}

// Append saves a message and returns it.
func (r *Recorder) Append(role, content, model string) (*types.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil, ErrNotStarted
	}
	m := &types.ChatMessage{
		ID:        uuid.NewString(),
		ThreadID:  r.threadID,
		Role:      role,
		Content:   content,
		Model:     model,
		CreatedAt: r.tickLocked(),
	}
	if err := r.store.SaveChatMessage(m); err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	r.logger.Debug("message recorded", "role", role, "id", m.ID)
	return m, nil
}

// Record persists ev when it is a message or error event and returns the
// saved message. Other events return nil, nil.
func (r *Recorder) Record(ev Event) (*types.ChatMessage, error) {
	switch ev.Kind {
	case EventMessage:
		role := ev.Role
		if role == "" {
			role = defaultRole
		}
		return r.Append(role, ev.Content, ev.Model)
	case EventError:
		return r.Append(RoleError, ev.Content, ev.Model)
	default:
		return nil, nil
	}
}

// tickLocked returns the current time in milliseconds, clamped so it never
// falls behind the previous call when the wall clock steps back.
func (r *Recorder) tickLocked() int64 {
	ts := r.now()
	if ts < r.last {
		ts = r.last
	}
	r.last = ts
	return ts
}
