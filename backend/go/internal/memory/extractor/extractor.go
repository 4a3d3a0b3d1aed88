// Package extractor identifies personal facts in conversation messages.
package extractor

import "context"

// Extractor mines a user message for personal facts, grouped by category
// name. Output keys are raw model output and must not be trusted to be
// catalog-valid; the orchestrator validates them against the entity
// catalog before any store interaction.
type Extractor interface {
	Extract(ctx context.Context, message string) (map[string][]string, error)
}
