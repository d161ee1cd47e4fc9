package types

// Project is a coding project rooted at a filesystem path. Rules and tasks
// are owned by the project and are replaced together with it on every save.
type Project struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Rules     []AgentRule `json:"rules"`
	Tasks     []Task      `json:"tasks"`
	CreatedAt int64       `json:"createdAt"` // epoch milliseconds
	UpdatedAt int64       `json:"updatedAt"` // epoch milliseconds
}

// AgentRule is a free-form instruction attached to a project.
// Description is optional; nil means no description was given.
type AgentRule struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`
}

// Validate checks the fields the store requires to persist the project
// subtree: every project, rule, task and step must carry an id.
func (p *Project) Validate() error {
	if p == nil {
		return ErrInvalidData
	}
	if p.ID == "" {
		return ErrInvalidID
	}
	for _, r := range p.Rules {
		if r.ID == "" {
			return ErrInvalidID
		}
	}
	for _, t := range p.Tasks {
		if t.ID == "" {
			return ErrInvalidID
		}
		for _, seq := range [][]TaskStep{t.Presteps, t.Steps, t.Poststeps} {
			for _, s := range seq {
				if s.ID == "" {
					return ErrInvalidID
				}
			}
		}
	}
	return nil
}
