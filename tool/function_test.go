package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/ragent/core"
)

func testSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []string{"query"},
	}
}

func testContext() *core.ToolContext {
	return core.NewToolContext(context.Background(), "call-1", core.NewRunMemory(), nil)
}

func TestFunctionToolSuccess(t *testing.T) {
	ft := NewFunctionTool("search", "Search things", testSchema(),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return fmt.Sprintf("results for %v", args["query"]), nil
		},
	)

	result, err := ft.Call(testContext(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "results for go", result)
}

func TestFunctionToolValidationError(t *testing.T) {
	called := false
	ft := NewFunctionTool("search", "Search things", testSchema(),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			called = true
			return nil, nil
		},
	)

	// Missing required argument.
	_, err := ft.Call(testContext(), map[string]any{})
	require.Error(t, err)
	assert.False(t, called)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "search", toolErr.Tool)

	// Wrong argument type.
	_, err = ft.Call(testContext(), map[string]any{"query": "go", "limit": "five"})
	require.Error(t, err)
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionToolExecutionError(t *testing.T) {
	ft := NewFunctionTool("search", "Search things", testSchema(),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, errors.New("backend down")
		},
	)

	_, err := ft.Call(testContext(), map[string]any{"query": "go"})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "backend down", toolErr.Message)
}

func TestFunctionToolErrorPassthrough(t *testing.T) {
	orig := NewToolError("search", "quota exceeded", "RATE_LIMITED")
	ft := NewFunctionTool("search", "Search things", testSchema(),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, orig
		},
	)

	_, err := ft.Call(testContext(), map[string]any{"query": "go"})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Same(t, orig, toolErr)
}

func TestFunctionToolNilSchemaAcceptsAnything(t *testing.T) {
	ft := NewFunctionTool("anything", "No schema", nil,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return "ok", nil
		},
	)

	result, err := ft.Call(testContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestFunctionToolTokenIdentity(t *testing.T) {
	a := NewFunctionTool("same", "Same tool", nil, nil)
	b := NewFunctionTool("same", "Same tool", nil, nil)

	// Identical name and description still yield distinct identities.
	assert.NotEmpty(t, a.Token())
	assert.NotEqual(t, a.Token(), b.Token())

	// The token is stable across calls.
	assert.Equal(t, a.Token(), a.Token())
}

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("search", "boom", "EXECUTION_ERROR")
	assert.Equal(t, "tool error [EXECUTION_ERROR] in search: boom", err.Error())

	err = &ToolError{Tool: "search", Message: "boom"}
	assert.Equal(t, "tool error in search: boom", err.Error())
}
