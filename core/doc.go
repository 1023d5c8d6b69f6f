// Package core provides the foundational domain types shared across ragent:
//
//   - Message (role tagged conversation unit with tool call requests)
//   - Document (retrieved source material with an identity key)
//   - RunMemory (per-run store of retrieved documents and progress notes)
//   - PipelineOutput (the uniform result contract of every execution mode)
//
// The package intentionally keeps implementation concerns (model providers,
// graph execution, pipeline orchestration) out of scope so every other
// package can depend on it without cycles.
package core
