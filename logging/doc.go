// Package logging provides a tiny abstraction over structured loggers so the
// rest of the library can depend on a minimal interface (Logger) while users
// plug in whatever they already run. Adapters for log/slog and rs/zerolog are
// included, plus a NoOpLogger for tests and quiet embedding.
package logging
