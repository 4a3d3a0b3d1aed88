package resolver

import (
	"Mnemos/backend/go/internal/llm"
	"Mnemos/backend/go/internal/memory/entity"
	"context"
	"encoding/json"
	"fmt"
)

const resolvePromptTemplate = `You are merging facts about a user's %s.

Current stored facts:
%s

New facts from latest message:
%s

Your task:
Generate the complete, updated list of facts for this entity.

Instructions:
- If new facts contradict current facts, USE THE NEW FACTS (they are more recent)
- If new facts add information, ADD them to the list
- If new facts repeat existing information, KEEP the existing facts (don't duplicate)
- Each fact should be a clear, concise statement
- Only include facts relevant to '%s'

Examples:
- Current: ["Lives in Boston"], New: ["Lives in New York"] -> ["Lives in New York"]
- Current: ["Software engineer"], New: ["Senior software engineer"] -> ["Senior software engineer"]
- Current: ["Hiking"], New: ["Photography"] -> ["Hiking", "Photography"]
- Current: ["Alex"], New: ["Alex"] -> ["Alex"]

Respond ONLY with a JSON array of strings representing the final facts.
Example: ["fact1", "fact2", "fact3"]

Response:`

// LLMResolver implements Resolver with an LLM merge call.
type LLMResolver struct {
	llm llm.LLM
}

// NewLLMResolver creates a new LLMResolver.
func NewLLMResolver(client llm.LLM) *LLMResolver {
	return &LLMResolver{llm: client}
}

// Resolve merges current and newly observed facts. The trivial cases skip
// the model entirely: an empty side is identity on the other.
func (r *LLMResolver) Resolve(ctx context.Context, ent entity.Entity, current, newFacts []string) ([]string, error) {
	if len(current) == 0 {
		return newFacts, nil
	}
	if len(newFacts) == 0 {
		return current, nil
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode current facts: %w", err)
	}
	newJSON, err := json.Marshal(newFacts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode new facts: %w", err)
	}

	prompt := fmt.Sprintf(resolvePromptTemplate, ent, currentJSON, newJSON, ent)
	response, err := r.llm.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("resolution call failed: %w", err)
	}

	resolved, err := ParseResolution(response)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		// An empty merge of two non-empty lists means the model misfired,
		// not that the user retracted everything.
		return nil, fmt.Errorf("resolution produced no facts")
	}
	return resolved, nil
}

// ParseResolution decodes the model's JSON array response, dropping empty
// entries and exact duplicates.
func ParseResolution(response string) ([]string, error) {
	cleaned := llm.StripCodeFence(response)

	var raw []any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("resolution response is not a JSON array: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	var facts []string
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		facts = append(facts, s)
	}
	return facts, nil
}
