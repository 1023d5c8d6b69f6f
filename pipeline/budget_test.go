package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raglab/ragent/logging"
)

func TestResolveStepLimit(t *testing.T) {
	logger := logging.NoOpLogger{}

	tests := []struct {
		name string
		raw  any
		want int
	}{
		{"nil", nil, DefaultStepLimit},
		{"int", 42, 42},
		{"int64", int64(25), 25},
		{"whole float", 10.0, 10},
		{"numeric string", "25", 25},
		{"padded string", "  30 ", 30},
		{"zero", 0, DefaultStepLimit},
		{"negative", -5, DefaultStepLimit},
		{"fractional float truncates", 7.5, 7},
		{"fractional below one", 0.9, DefaultStepLimit},
		{"garbage string", "plenty", DefaultStepLimit},
		{"wrong type", []string{"40"}, DefaultStepLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveStepLimit(tt.raw, logger))
		})
	}
}
