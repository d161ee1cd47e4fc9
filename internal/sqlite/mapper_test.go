// Tests for row conversion helpers.
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

func TestParseBucket(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pre", bucketPre},
		{"main", bucketMain},
		{"post", bucketPost},
		{"", bucketMain},
		{"PRE", bucketMain},
		{"later", bucketMain},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseBucket(tt.in))
		})
	}
}

func TestAppendToBucket(t *testing.T) {
	task := types.Task{}
	appendToBucket(&task, bucketPost, types.TaskStep{ID: "c"})
	appendToBucket(&task, bucketPre, types.TaskStep{ID: "a"})
	appendToBucket(&task, "unknown", types.TaskStep{ID: "b"})

	assert.Equal(t, []types.TaskStep{{ID: "a"}}, task.Presteps)
	assert.Equal(t, []types.TaskStep{{ID: "b"}}, task.Steps)
	assert.Equal(t, []types.TaskStep{{ID: "c"}}, task.Poststeps)
}

func TestRuleArgsDescription(t *testing.T) {
	desc := "why"
	withDesc := ruleArgs("p1", types.AgentRule{ID: "r", Name: "n", Description: &desc})
	assert.Equal(t, "why", withDesc[3])
	assert.Equal(t, "p1", withDesc[1])

	without := ruleArgs("p1", types.AgentRule{ID: "r", Name: "n"})
	assert.Nil(t, without[3])
}

func TestEnumArgsNormalize(t *testing.T) {
	args := taskArgs("p1", types.Task{ID: "t", Status: "bogus"})
	assert.Equal(t, "pending", args[4])

	step := stepArgs("t", bucketPre, 2, types.TaskStep{ID: "s", Status: types.StatusFailed})
	assert.Equal(t, "failed", step[4])
	assert.Equal(t, "normal", step[7])
	assert.Equal(t, bucketPre, step[8])
	assert.Equal(t, 2, step[9])
}
