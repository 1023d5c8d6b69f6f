// Package model defines the language model binding consumed by the agent
// graph and the pipeline's wrap-up path, together with a mock implementation
// for tests and examples. Provider adapters live in the subpackages
// anthropic, openai and langchain.
package model
