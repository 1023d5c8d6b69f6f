package config

import (
	"fmt"
	"os"
	"sort"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/raglab/ragent/logging"
	"github.com/raglab/ragent/model"
	"github.com/raglab/ragent/model/anthropic"
	"github.com/raglab/ragent/model/langchain"
	"github.com/raglab/ragent/model/openai"
)

// Factory constructs a model binding from its declarative class description.
type Factory func(class ModelClass) (model.Binding, error)

// Registry maps provider names to factories.
type Registry map[string]Factory

// DefaultRegistry returns the built-in factories: anthropic, openai,
// langchain (an OpenAI compatible endpoint driven through langchaingo,
// useful for self-hosted gateways) and mock.
func DefaultRegistry() Registry {
	return Registry{
		"anthropic": func(class ModelClass) (model.Binding, error) {
			return anthropic.New(func(o *anthropic.Options) {
				if class.Model != "" {
					o.Model = sdkanthropic.Model(class.Model)
				}
				if class.Temperature != 0 {
					o.Temperature = class.Temperature
				}
				if class.MaxTokens != 0 {
					o.MaxTokens = class.MaxTokens
				}
				o.APIKey = class.APIKey
			}), nil
		},
		"openai": func(class ModelClass) (model.Binding, error) {
			return openai.New(func(o *openai.Options) {
				if class.Model != "" {
					o.Model = class.Model
				}
				if class.Temperature != 0 {
					o.Temperature = class.Temperature
				}
				if class.MaxTokens != 0 {
					o.MaxCompletionTokens = class.MaxTokens
				}
			}), nil
		},
		"langchain": func(class ModelClass) (model.Binding, error) {
			var opts []lcopenai.Option
			if class.APIKey != "" {
				opts = append(opts, lcopenai.WithToken(class.APIKey))
			}
			if class.Model != "" {
				opts = append(opts, lcopenai.WithModel(class.Model))
			}
			if class.BaseURL != "" {
				opts = append(opts, lcopenai.WithBaseURL(class.BaseURL))
			}
			llm, err := lcopenai.New(opts...)
			if err != nil {
				return nil, fmt.Errorf("langchain openai client: %w", err)
			}
			return langchain.New(llm).WithModelName(class.Model), nil
		},
		"mock": func(class ModelClass) (model.Binding, error) {
			name := class.Model
			if name == "" {
				name = "mock"
			}
			return model.NewMockBinding(name), nil
		},
	}
}

// Bindings holds the bound model instances and prompt texts for a pipeline,
// keyed by logical role. Both maps are immutable after Bind returns.
type Bindings struct {
	Models  map[string]model.Binding
	Prompts map[string]string
}

// Bind resolves the pipeline's declarative model and prompt mappings into
// live objects.
//
// Models: one binding per logical role; roles resolving to the same model
// class share one instance. Any role naming an unknown class, a failing
// factory, or a configuration yielding zero bindings is fatal.
//
// Prompts: required prompt files that cannot be read are fatal; optional
// ones are logged and skipped. Roles with an empty path are skipped silently.
func Bind(p *Pipeline, registry Registry, logger logging.Logger) (*Bindings, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if registry == nil {
		registry = DefaultRegistry()
	}

	models, err := bindModels(p, registry, logger)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no model bindings configured")
	}

	prompts, err := bindPrompts(p, logger)
	if err != nil {
		return nil, err
	}

	return &Bindings{Models: models, Prompts: prompts}, nil
}

func bindModels(p *Pipeline, registry Registry, logger logging.Logger) (map[string]model.Binding, error) {
	models := make(map[string]model.Binding)
	initialized := make(map[string]model.Binding) // model class name -> shared instance

	bindGroup := func(roles map[string]string) error {
		for _, role := range sortedKeys(roles) {
			className := roles[role]

			if instance, ok := initialized[className]; ok {
				models[role] = instance
				logger.Debug("config.model.reuse", "role", role, "class", className)
				continue
			}

			class, ok := p.ModelClassMap[className]
			if !ok {
				return fmt.Errorf("model class %q for role %q not found in model_class_map", className, role)
			}

			factory, ok := registry[class.Provider]
			if !ok {
				return fmt.Errorf("unknown model provider %q for class %q", class.Provider, className)
			}

			instance, err := factory(class)
			if err != nil {
				return fmt.Errorf("failed to construct model class %q: %w", className, err)
			}

			models[role] = instance
			initialized[className] = instance
			logger.Debug("config.model.bound", "role", role, "class", className, "provider", class.Provider)
		}
		return nil
	}

	if err := bindGroup(p.Models.Required); err != nil {
		return nil, err
	}
	if err := bindGroup(p.Models.Optional); err != nil {
		return nil, err
	}

	return models, nil
}

func bindPrompts(p *Pipeline, logger logging.Logger) (map[string]string, error) {
	prompts := make(map[string]string)

	load := func(roles map[string]string, required bool) error {
		for _, role := range sortedKeys(roles) {
			path := roles[role]
			if path == "" {
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				if required {
					return fmt.Errorf("required prompt file %q for %q: %w", path, role, err)
				}
				logger.Warn("config.prompt.skipped", "role", role, "path", path, "error", err.Error())
				continue
			}

			prompts[role] = string(data)
		}
		return nil
	}

	// Optional first so a role present in both groups resolves to the
	// required definition.
	if err := load(p.Prompts.Optional, false); err != nil {
		return nil, err
	}
	if err := load(p.Prompts.Required, true); err != nil {
		return nil, err
	}

	return prompts, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
