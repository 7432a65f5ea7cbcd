package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientReturnsSubtasksJSON(t *testing.T) {
	m := &MockClient{}
	out, err := m.GenerateText(context.Background(), `Output ONLY a JSON object of the form {"subtasks": [...]}`)
	require.NoError(t, err)
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &obj))
	assert.Contains(t, obj, "subtasks")
}

func TestMockClientEchoesStepIDsIntoPrompts(t *testing.T) {
	m := &MockClient{}
	prompt := `Output ONLY a JSON object of the form {"prompts": [...]}
[{"id": "auth-step-1"}, {"id": "ui-step-2"}, {"id": "auth-step-1"}]`
	out, err := m.GenerateText(context.Background(), prompt)
	require.NoError(t, err)
	var obj struct {
		Prompts []struct {
			StepID string `json:"stepId"`
		} `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &obj))
	require.Len(t, obj.Prompts, 2)
	assert.Equal(t, "auth-step-1", obj.Prompts[0].StepID)
	assert.Equal(t, "ui-step-2", obj.Prompts[1].StepID)
}

func TestNewFromEnvFallsBackToMock(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	c := NewFromEnv()
	assert.IsType(t, &MockClient{}, c)
}

func TestNewFromEnvSelectsProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "")
	c := NewFromEnv()
	ac, ok := c.(*AnthropicClient)
	require.True(t, ok)
	assert.Equal(t, "claude-3-5-sonnet-latest", ac.Model)
}
