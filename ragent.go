// Package ragent provides a high-level façade over the configuration,
// model binding and pipeline layers for building retrieval-augmented,
// tool-using agent pipelines. Most applications interact with this package
// by:
//  1. Loading declarative configuration via FromConfig() (models, prompts,
//     step budget)
//  2. Registering tools through the pipeline's tool cache
//  3. Running queries with Invoke, Stream or AsyncStream on the pipeline
//
// The façade delegates execution to pipeline.Pipeline while keeping setup
// ergonomics concise. Defaults are safe for local development; production
// deployments typically supply their own tool builders and a structured
// logger.
package ragent

import (
	"fmt"
	"sort"

	"github.com/raglab/ragent/config"
	"github.com/raglab/ragent/logging"
	"github.com/raglab/ragent/model"
	"github.com/raglab/ragent/pipeline"
)

// Agent model role and prompt role resolved from configuration.
const (
	AgentModelRole  = "chat_model"
	AgentPromptRole = "agent_prompt"
)

// Options configures assembly of a pipeline from loaded configuration.
type Options struct {
	// Name identifies the pipeline in log output.
	Name string

	// Registry maps provider names to binding factories. Defaults to
	// config.DefaultRegistry.
	Registry config.Registry

	// Logger overrides the logger derived from the configured log level.
	Logger logging.Logger

	// PipelineOptions are applied to the underlying pipeline after the
	// façade's own wiring, so they can override any of it.
	PipelineOptions []func(o *pipeline.Options)
}

// FromConfig loads configuration, binds models and prompts, and assembles a
// ready-to-run pipeline. The agent model is the binding for the "chat_model"
// role when present, otherwise the first bound role in sorted order; the
// system prompt is the "agent_prompt" text when configured.
func FromConfig(cfgFile string, optFns ...func(o *Options)) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	opts := Options{Name: "ragent"}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		c := logging.DefaultConfig()
		c.Level = logging.ParseLevel(cfg.LogLevel)
		logger = logging.New(c)
	}

	bindings, err := config.Bind(&cfg.Pipeline, opts.Registry, logger)
	if err != nil {
		return nil, err
	}

	binding, role, err := agentBinding(bindings)
	if err != nil {
		return nil, err
	}
	logger.Info("ragent.agent_model", "role", role, "model", binding.Info().Name)

	pipeOpts := []func(o *pipeline.Options){
		func(o *pipeline.Options) {
			o.Name = opts.Name
			o.Logger = logger
			o.Prompt = bindings.Prompts[AgentPromptRole]
			o.StepLimitSource = cfg.StepLimitValue
			o.InputBuilder = pipeline.QueryInput
		},
	}
	pipeOpts = append(pipeOpts, opts.PipelineOptions...)

	return pipeline.New(binding, pipeOpts...)
}

// agentBinding picks the agent model from the bound set: the "chat_model"
// role when present, else the first role in sorted order so the choice is
// deterministic.
func agentBinding(b *config.Bindings) (model.Binding, string, error) {
	if binding, ok := b.Models[AgentModelRole]; ok {
		return binding, AgentModelRole, nil
	}

	roles := make([]string, 0, len(b.Models))
	for role := range b.Models {
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, "", fmt.Errorf("no model bindings available")
	}
	sort.Strings(roles)
	return b.Models[roles[0]], roles[0], nil
}
