package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/ragent/model"
)

func countingRegistry(constructed *[]string) Registry {
	return Registry{
		"counted": func(class ModelClass) (model.Binding, error) {
			*constructed = append(*constructed, class.Model)
			return model.NewMockBinding(class.Model), nil
		},
	}
}

func TestBindDeduplicatesModelClasses(t *testing.T) {
	var constructed []string
	p := &Pipeline{
		Models: ModelRoles{
			Required: map[string]string{
				"chat_model":    "big",
				"grader_model":  "big",
				"summary_model": "small",
			},
		},
		ModelClassMap: map[string]ModelClass{
			"big":   {Provider: "counted", Model: "big-1"},
			"small": {Provider: "counted", Model: "small-1"},
		},
	}

	bindings, err := Bind(p, countingRegistry(&constructed), nil)
	require.NoError(t, err)

	// Three roles, two distinct classes, two constructions.
	assert.Len(t, bindings.Models, 3)
	assert.Len(t, constructed, 2)
	assert.Same(t, bindings.Models["chat_model"], bindings.Models["grader_model"])
	assert.NotSame(t, bindings.Models["chat_model"], bindings.Models["summary_model"])
}

func TestBindUnknownModelClass(t *testing.T) {
	p := &Pipeline{
		Models: ModelRoles{
			Required: map[string]string{"chat_model": "nowhere"},
		},
		ModelClassMap: map[string]ModelClass{},
	}

	_, err := Bind(p, DefaultRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestBindUnknownProvider(t *testing.T) {
	p := &Pipeline{
		Models: ModelRoles{
			Required: map[string]string{"chat_model": "c"},
		},
		ModelClassMap: map[string]ModelClass{
			"c": {Provider: "does-not-exist"},
		},
	}

	_, err := Bind(p, DefaultRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestBindFactoryFailureIsFatal(t *testing.T) {
	registry := Registry{
		"broken": func(class ModelClass) (model.Binding, error) {
			return nil, errors.New("no credentials")
		},
	}
	p := &Pipeline{
		Models: ModelRoles{
			Optional: map[string]string{"chat_model": "c"},
		},
		ModelClassMap: map[string]ModelClass{
			"c": {Provider: "broken"},
		},
	}

	_, err := Bind(p, registry, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}

func TestBindNoModelsConfigured(t *testing.T) {
	_, err := Bind(&Pipeline{}, DefaultRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model bindings")
}

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mockedPipeline(prompts PromptPaths) *Pipeline {
	return &Pipeline{
		Models: ModelRoles{
			Required: map[string]string{"chat_model": "m"},
		},
		ModelClassMap: map[string]ModelClass{
			"m": {Provider: "mock", Model: "test"},
		},
		Prompts: prompts,
	}
}

func TestBindPrompts(t *testing.T) {
	dir := t.TempDir()
	agentPath := writePrompt(t, dir, "agent.txt", "You are an assistant.")
	extraPath := writePrompt(t, dir, "extra.txt", "Extra guidance.")

	p := mockedPipeline(PromptPaths{
		Required: map[string]string{"agent_prompt": agentPath},
		Optional: map[string]string{"extra_prompt": extraPath},
	})

	bindings, err := Bind(p, DefaultRegistry(), nil)
	require.NoError(t, err)
	assert.Equal(t, "You are an assistant.", bindings.Prompts["agent_prompt"])
	assert.Equal(t, "Extra guidance.", bindings.Prompts["extra_prompt"])
}

func TestBindRequiredPromptMissingIsFatal(t *testing.T) {
	p := mockedPipeline(PromptPaths{
		Required: map[string]string{"agent_prompt": "/nonexistent/agent.txt"},
	})

	_, err := Bind(p, DefaultRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent_prompt")
}

func TestBindOptionalPromptMissingIsSkipped(t *testing.T) {
	p := mockedPipeline(PromptPaths{
		Optional: map[string]string{"extra_prompt": "/nonexistent/extra.txt"},
	})

	bindings, err := Bind(p, DefaultRegistry(), nil)
	require.NoError(t, err)
	assert.NotContains(t, bindings.Prompts, "extra_prompt")
}

func TestBindEmptyPromptPathSkipped(t *testing.T) {
	p := mockedPipeline(PromptPaths{
		Required: map[string]string{"agent_prompt": ""},
	})

	bindings, err := Bind(p, DefaultRegistry(), nil)
	require.NoError(t, err)
	assert.Empty(t, bindings.Prompts)
}
