package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepLimiterTake(t *testing.T) {
	limiter := NewStepLimiter(2)

	assert.NoError(t, limiter.Take(NodeAgent))
	assert.NoError(t, limiter.Take(NodeTools))

	err := limiter.Take(NodeAgent)
	require.Error(t, err)

	var limitErr *StepLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 2, limitErr.Limit)
	assert.Equal(t, NodeAgent, limitErr.Node)
}

func TestStepLimiterUnlimited(t *testing.T) {
	limiter := NewStepLimiter(0)

	for i := 0; i < 1000; i++ {
		assert.NoError(t, limiter.Take(NodeAgent))
	}
	assert.Equal(t, 1000, limiter.Count())
	assert.Equal(t, -1, limiter.Remaining())
}

func TestStepLimiterRemaining(t *testing.T) {
	limiter := NewStepLimiter(5)
	assert.Equal(t, 5, limiter.Remaining())

	_ = limiter.Take(NodeAgent)
	_ = limiter.Take(NodeAgent)
	assert.Equal(t, 3, limiter.Remaining())
	assert.Equal(t, 2, limiter.Count())
}

func TestStepLimitErrorMessage(t *testing.T) {
	err := &StepLimitError{Limit: 7, Node: NodeTools}
	assert.Equal(t, `step limit 7 exceeded at node "tools"`, err.Error())

	err = &StepLimitError{Limit: 7}
	assert.Equal(t, "step limit 7 exceeded", err.Error())
}
