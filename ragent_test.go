package ragent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/ragent/config"
	"github.com/raglab/ragent/model"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	promptPath := filepath.Join(dir, "agent.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("You answer concisely."), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
log_level: error
pipeline:
  step_limit: 10
  models:
    required:
      chat_model: base
  model_class_map:
    base:
      provider: mock
      model: test-model
  prompts:
    required:
      agent_prompt: %s
`, promptPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func TestFromConfig(t *testing.T) {
	pipe, err := FromConfig(writeTestConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "ragent", pipe.Name())
	assert.Equal(t, "test-model", pipe.Binding().Info().Name)

	// The mock model echoes, so a full round trip works out of the box.
	out, err := pipe.Invoke(context.Background(), map[string]any{"query": "ping"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", out.Answer)
	assert.True(t, out.Final)
}

func TestFromConfigMissingConfig(t *testing.T) {
	_, err := FromConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAgentBindingPrefersChatModel(t *testing.T) {
	chat := model.NewMockBinding("chat")
	other := model.NewMockBinding("other")

	b := &config.Bindings{Models: map[string]model.Binding{
		"zz_model":   other,
		"chat_model": chat,
	}}

	binding, role, err := agentBinding(b)
	require.NoError(t, err)
	assert.Equal(t, AgentModelRole, role)
	assert.Same(t, chat, binding)
}

func TestAgentBindingFallsBackSorted(t *testing.T) {
	a := model.NewMockBinding("a")
	z := model.NewMockBinding("z")

	b := &config.Bindings{Models: map[string]model.Binding{
		"z_model": z,
		"a_model": a,
	}}

	binding, role, err := agentBinding(b)
	require.NoError(t, err)
	assert.Equal(t, "a_model", role)
	assert.Same(t, a, binding)

	_, _, err = agentBinding(&config.Bindings{Models: map[string]model.Binding{}})
	require.Error(t, err)
}
