package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectValidate(t *testing.T) {
	step := TaskStep{ID: "s1"}
	tests := []struct {
		name    string
		project *Project
		wantErr error
	}{
		{"nil project", nil, ErrInvalidData},
		{"missing project id", &Project{Name: "x"}, ErrInvalidID},
		{"missing rule id", &Project{ID: "p", Rules: []AgentRule{{Name: "r"}}}, ErrInvalidID},
		{"missing task id", &Project{ID: "p", Tasks: []Task{{Title: "t"}}}, ErrInvalidID},
		{
			name:    "missing poststep id",
			project: &Project{ID: "p", Tasks: []Task{{ID: "t", Steps: []TaskStep{step}, Poststeps: []TaskStep{{}}}}},
			wantErr: ErrInvalidID,
		},
		{
			name:    "complete project",
			project: &Project{ID: "p", Rules: []AgentRule{{ID: "r"}}, Tasks: []Task{{ID: "t", Presteps: []TaskStep{step}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
