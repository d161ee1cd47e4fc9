package types

// ChatThread groups the messages of one conversation with the agent.
// UpdatedAt tracks the newest message and never moves backwards.
type ChatThread struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// ChatMessage is one persisted message. Role is free-form ("user",
// "assistant", "tool", ...).
type ChatMessage struct {
	ID        string `json:"id"`
	ThreadID  string `json:"threadId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Model     string `json:"model"`
	CreatedAt int64  `json:"createdAt"`
}
