package types

// TaskStatus is the lifecycle state shared by tasks and steps.
type TaskStatus string

// Task and step statuses.
const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// ParseTaskStatus decodes a stored status. Unrecognized values, including
// the empty string, decode to StatusPending so a value written by a newer
// version never makes a row unreadable.
func ParseTaskStatus(s string) TaskStatus {
	switch TaskStatus(s) {
	case StatusInProgress, StatusCompleted, StatusFailed:
		return TaskStatus(s)
	default:
		return StatusPending
	}
}

// String returns the stored form of the status. The zero value and any
// unknown value encode as "pending".
func (s TaskStatus) String() string {
	return string(ParseTaskStatus(string(s)))
}

// MarshalText encodes the stored form.
func (s TaskStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes leniently, see ParseTaskStatus.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	*s = ParseTaskStatus(string(text))
	return nil
}

// StepType tags the semantic role of a step. It is stored independently of
// the sequence (presteps, steps, poststeps) the step belongs to, and the two
// may differ.
type StepType string

// Step kind tags.
const (
	StepNormal StepType = "normal"
	StepPre    StepType = "pre"
	StepPost   StepType = "post"
)

// ParseStepType decodes a stored kind tag; anything but "pre" or "post"
// decodes to StepNormal.
func ParseStepType(s string) StepType {
	switch StepType(s) {
	case StepPre, StepPost:
		return StepType(s)
	default:
		return StepNormal
	}
}

func (t StepType) String() string {
	return string(ParseStepType(string(t)))
}

func (t StepType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes leniently, see ParseStepType.
func (t *StepType) UnmarshalText(text []byte) error {
	*t = ParseStepType(string(text))
	return nil
}

// Task is a unit of work inside a project with three ordered step
// sequences. Position within each sequence is significant.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Presteps    []TaskStep `json:"presteps"`
	Steps       []TaskStep `json:"steps"`
	Poststeps   []TaskStep `json:"poststeps"`
	CreatedAt   int64      `json:"createdAt"`
	UpdatedAt   int64      `json:"updatedAt"`
}

// TaskStep is one step of a task.
type TaskStep struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Status    TaskStatus `json:"status"`
	Type      StepType   `json:"type"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
}
