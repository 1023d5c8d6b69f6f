package graph

import (
	"context"

	"github.com/google/uuid"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/model"
)

// ModelCall is the function shape a middleware wraps: one model invocation
// inside the graph's agent node.
type ModelCall func(ctx context.Context, req model.Request) (core.Message, error)

// Middleware decorates the graph's model calls. Like tools, middleware carry
// a stable identity token assigned at construction; the agent cache replaces
// the middleware chain together with the tool set on rebuild.
type Middleware interface {
	// Name returns a short label used in logs.
	Name() string

	// Token returns the identity token assigned at construction.
	Token() string

	// Wrap returns a ModelCall that decorates next.
	Wrap(next ModelCall) ModelCall
}

// funcMiddleware adapts a plain wrap function into a Middleware.
type funcMiddleware struct {
	name  string
	token string
	wrap  func(next ModelCall) ModelCall
}

// NewMiddleware constructs a Middleware from a wrap function, assigning a
// fresh identity token.
//
// Example:
//
//	logging := graph.NewMiddleware("log_calls", func(next graph.ModelCall) graph.ModelCall {
//	    return func(ctx context.Context, req model.Request) (core.Message, error) {
//	        msg, err := next(ctx, req)
//	        // ... observe ...
//	        return msg, err
//	    }
//	})
func NewMiddleware(name string, wrap func(next ModelCall) ModelCall) Middleware {
	return &funcMiddleware{name: name, token: uuid.NewString(), wrap: wrap}
}

func (m *funcMiddleware) Name() string  { return m.name }
func (m *funcMiddleware) Token() string { return m.token }

func (m *funcMiddleware) Wrap(next ModelCall) ModelCall { return m.wrap(next) }

// Chain composes the middleware around base so the first element observes
// the call outermost.
func Chain(base ModelCall, middleware []Middleware) ModelCall {
	call := base
	for i := len(middleware) - 1; i >= 0; i-- {
		call = middleware[i].Wrap(call)
	}
	return call
}
