package pipeline

import (
	"fmt"
	"sync"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/graph"
	"github.com/raglab/ragent/logging"
	"github.com/raglab/ragent/model"
	"github.com/raglab/ragent/tool"
)

// InputBuilder converts caller arguments into the starting inputs of a graph
// run. The builder receives the fresh per-run memory handle so it can thread
// the handle into any tooling it constructs; tools that retrieve documents
// record them there and the composed output surfaces them as sources.
type InputBuilder func(memory *core.RunMemory, args map[string]any) (graph.Inputs, error)

// MetadataHook derives run metadata from the raw terminal payload of a
// successful graph run. The default hook returns an empty map.
type MetadataHook func(raw map[string]any) map[string]any

// Options configures a Pipeline.
type Options struct {
	// Name identifies the pipeline in log output.
	Name string

	// Prompt is the agent system prompt compiled into the graph.
	Prompt string

	// Logger receives pipeline lifecycle and recovery events.
	Logger logging.Logger

	// Builder compiles the agent graph. Defaults to graph.NewReactBuilder.
	Builder graph.Builder

	// StepLimitSource supplies the raw step budget value, consulted fresh
	// on every run so live configuration changes take effect without a
	// rebuild. A nil source means the default budget.
	StepLimitSource func() any

	// InputBuilder is required before any run can start.
	InputBuilder InputBuilder

	// MetadataHook derives metadata from a successful terminal payload.
	MetadataHook MetadataHook

	// ToolBuilder produces the static tool set on first use and on
	// RebuildTools. Defaults to an empty set.
	ToolBuilder func() []tool.Tool

	// MiddlewareBuilder produces the middleware chain on first use and on
	// RebuildMiddleware. Defaults to an empty chain.
	MiddlewareBuilder func() []graph.Middleware
}

// Pipeline drives a tool-using agent graph end to end. It lazily compiles
// the graph from its model binding, prompt, tools and middleware, caches the
// compiled artifact keyed by tool identity, and exposes the three execution
// modes. Safe for concurrent use.
type Pipeline struct {
	name    string
	prompt  string
	binding model.Binding
	builder graph.Builder
	logger  logging.Logger

	stepLimitSource func() any
	inputBuilder    InputBuilder
	metadataHook    MetadataHook

	toolBuilder       func() []tool.Tool
	middlewareBuilder func() []graph.Middleware

	mu sync.Mutex

	staticTools      []tool.Tool
	toolsBuilt       bool
	staticMiddleware []graph.Middleware
	middlewareBuilt  bool

	agent            graph.Graph
	activeTools      []tool.Tool
	activeTokens     []string
	activeMiddleware []graph.Middleware
}

// New creates a Pipeline around the given model binding. No graph is
// compiled until the first run or an explicit EnsureAgent call.
func New(binding model.Binding, optFns ...func(o *Options)) (*Pipeline, error) {
	if binding == nil {
		return nil, fmt.Errorf("pipeline: model binding is required")
	}

	opts := Options{
		Name:   "pipeline",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Builder == nil {
		opts.Builder = graph.NewReactBuilder(opts.Logger)
	}
	if opts.ToolBuilder == nil {
		opts.ToolBuilder = func() []tool.Tool { return nil }
	}
	if opts.MiddlewareBuilder == nil {
		opts.MiddlewareBuilder = func() []graph.Middleware { return nil }
	}
	if opts.StepLimitSource == nil {
		opts.StepLimitSource = func() any { return nil }
	}
	if opts.MetadataHook == nil {
		opts.MetadataHook = func(raw map[string]any) map[string]any { return map[string]any{} }
	}

	return &Pipeline{
		name:              opts.Name,
		prompt:            opts.Prompt,
		binding:           binding,
		builder:           opts.Builder,
		logger:            opts.Logger,
		stepLimitSource:   opts.StepLimitSource,
		inputBuilder:      opts.InputBuilder,
		metadataHook:      opts.MetadataHook,
		toolBuilder:       opts.ToolBuilder,
		middlewareBuilder: opts.MiddlewareBuilder,
	}, nil
}

// Name returns the pipeline name used in log output.
func (p *Pipeline) Name() string { return p.name }

// Binding returns the model binding the pipeline was built around.
func (p *Pipeline) Binding() model.Binding { return p.binding }

// Tools returns the cached static tool set, invoking the tool builder on
// first use. The returned slice is a copy.
func (p *Pipeline) Tools() []tool.Tool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]tool.Tool(nil), p.toolsLocked()...)
}

// RebuildTools discards the cached static tool set and rebuilds it from the
// tool builder. The active graph is not rebuilt until the next EnsureAgent.
func (p *Pipeline) RebuildTools() []tool.Tool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staticTools = p.toolBuilder()
	p.toolsBuilt = true
	p.logger.Debug("pipeline.tools.rebuilt", "pipeline", p.name, "count", len(p.staticTools))
	return append([]tool.Tool(nil), p.staticTools...)
}

// SetTools replaces the cached static tool set without consulting the tool
// builder.
func (p *Pipeline) SetTools(tools []tool.Tool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staticTools = append([]tool.Tool(nil), tools...)
	p.toolsBuilt = true
}

// Middleware returns the cached middleware chain, invoking the middleware
// builder on first use. The returned slice is a copy.
func (p *Pipeline) Middleware() []graph.Middleware {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]graph.Middleware(nil), p.middlewareLocked()...)
}

// RebuildMiddleware discards the cached middleware chain and rebuilds it
// from the middleware builder.
func (p *Pipeline) RebuildMiddleware() []graph.Middleware {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staticMiddleware = p.middlewareBuilder()
	p.middlewareBuilt = true
	p.logger.Debug("pipeline.middleware.rebuilt", "pipeline", p.name, "count", len(p.staticMiddleware))
	return append([]graph.Middleware(nil), p.staticMiddleware...)
}

// SetMiddleware replaces the cached middleware chain without consulting the
// middleware builder.
func (p *Pipeline) SetMiddleware(middleware []graph.Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staticMiddleware = append([]graph.Middleware(nil), middleware...)
	p.middlewareBuilt = true
}

func (p *Pipeline) toolsLocked() []tool.Tool {
	if !p.toolsBuilt {
		p.staticTools = p.toolBuilder()
		p.toolsBuilt = true
	}
	return p.staticTools
}

func (p *Pipeline) middlewareLocked() []graph.Middleware {
	if !p.middlewareBuilt {
		p.staticMiddleware = p.middlewareBuilder()
		p.middlewareBuilt = true
	}
	return p.staticMiddleware
}

// EnsureOptions controls a single EnsureAgent call.
type EnsureOptions struct {
	// StaticTools, when non-nil, replaces the cached static tool set for
	// this and subsequent runs. An empty non-nil slice clears it.
	StaticTools []tool.Tool

	// ExtraTools are appended after the static set for the compiled graph
	// only. They are never written to the cache, so the next identity
	// comparison against the static set alone will trigger a rebuild.
	ExtraTools []tool.Tool

	// Middleware, when non-nil, replaces the cached middleware chain. A
	// middleware change alone never triggers a rebuild; it takes effect
	// whenever the graph is next compiled.
	Middleware []graph.Middleware

	// Force compiles a fresh graph unconditionally.
	Force bool
}

// EnsureAgent returns the compiled agent graph, rebuilding it only when
// needed. A rebuild happens when Force is set, no graph exists yet, or the
// effective tool list differs from the active one by length or by
// per-position identity token. Tool mutation in place is invisible to this
// comparison; mutated tools must be re-registered.
func (p *Pipeline) EnsureAgent(opts EnsureOptions) (graph.Graph, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureAgentLocked(opts)
}

func (p *Pipeline) ensureAgentLocked(opts EnsureOptions) (graph.Graph, error) {
	if opts.StaticTools != nil {
		p.staticTools = append([]tool.Tool(nil), opts.StaticTools...)
		p.toolsBuilt = true
	}
	if opts.Middleware != nil {
		p.staticMiddleware = append([]graph.Middleware(nil), opts.Middleware...)
		p.middlewareBuilt = true
	}

	toolset := append([]tool.Tool(nil), p.toolsLocked()...)
	toolset = append(toolset, opts.ExtraTools...)
	tokens := toolTokens(toolset)

	if !opts.Force && p.agent != nil && tokensEqual(tokens, p.activeTokens) {
		return p.agent, nil
	}

	middleware := p.middlewareLocked()
	compiled, err := p.builder.Build(p.binding, p.prompt, toolset, middleware)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: compile agent graph: %w", p.name, err)
	}

	p.agent = compiled
	p.activeTools = toolset
	p.activeTokens = tokens
	p.activeMiddleware = append([]graph.Middleware(nil), middleware...)
	p.logger.Info("pipeline.agent.compiled",
		"pipeline", p.name,
		"tools", len(toolset),
		"middleware", len(middleware),
		"forced", opts.Force,
	)
	return p.agent, nil
}

// ActiveTools returns the tool snapshot compiled into the current graph, or
// nil when no graph exists yet.
func (p *Pipeline) ActiveTools() []tool.Tool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]tool.Tool(nil), p.activeTools...)
}

// ActiveMiddleware returns the middleware snapshot compiled into the current
// graph.
func (p *Pipeline) ActiveMiddleware() []graph.Middleware {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]graph.Middleware(nil), p.activeMiddleware...)
}

func toolTokens(tools []tool.Tool) []string {
	tokens := make([]string, len(tools))
	for i, t := range tools {
		tokens[i] = t.Token()
	}
	return tokens
}

func tokensEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
