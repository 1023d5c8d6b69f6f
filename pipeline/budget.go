package pipeline

import (
	"strconv"
	"strings"

	"github.com/raglab/ragent/logging"
)

// DefaultStepLimit is the step budget applied when configuration supplies no
// usable value.
const DefaultStepLimit = 100

// resolveStepLimit coerces a raw configuration value into a positive step
// budget. Missing, non-positive or unparsable values fall back to
// DefaultStepLimit with a warning; resolution never fails a run.
func resolveStepLimit(raw any, logger logging.Logger) int {
	if limit, ok := coerceStepLimit(raw); ok {
		logger.Debug("pipeline.step_limit.resolved", "limit", limit)
		return limit
	}
	if raw != nil {
		logger.Warn("pipeline.step_limit.invalid",
			"value", raw,
			"default", DefaultStepLimit,
		)
	}
	return DefaultStepLimit
}

func coerceStepLimit(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return positive(v)
	case int32:
		return positive(int(v))
	case int64:
		return positive(int(v))
	case uint:
		return positive(int(v))
	case float64:
		// Fractional values truncate toward zero.
		return positive(int(v))
	case float32:
		return positive(int(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return positive(n)
	default:
		return 0, false
	}
}

func positive(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return n, true
}
