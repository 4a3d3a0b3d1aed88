package extractor

import (
	"Mnemos/backend/go/internal/llm"
	"Mnemos/backend/go/internal/memory/entity"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const extractPromptTemplate = `Extract ALL personal information from the user's message and organize it by entity type.

Allowed entity types: %s

User message: "%s"

Instructions:
1. Identify ALL pieces of personal information in the message
2. Categorize each piece into the MOST SPECIFIC entity type:
   - Use 'name' for person's name ONLY
   - Use 'age' for age/birthday information
   - Use 'location' for cities, countries, places of residence
   - Use 'profession' or 'occupation' for jobs, careers, work
   - Use 'hobbies' for hobbies, activities, recreational interests
   - Use 'interests' for general interests
   - Use 'preferences' for likes/dislikes, preferences
   - Use 'family' for family-related information
   - Use 'education' for schools, degrees, studies
   - Use 'goals' for aspirations, future plans
   - Use other entity types as appropriate

3. For each entity, extract ONLY the facts relevant to that entity
4. Keep facts concise and clear
5. If no personal information is found, return an empty object

Respond with a JSON object where keys are entity names and values are arrays of facts.

Examples:

Input: "Hi, I'm Alex and I'm a software engineer from San Francisco"
Output: {"name": ["Alex"], "profession": ["software engineer"], "location": ["San Francisco"]}

Input: "I'm 28 years old and I love hiking and photography"
Output: {"age": ["28 years old"], "hobbies": ["hiking", "photography"]}

Input: "How's the weather?"
Output: {}

Respond ONLY with valid JSON. No explanation, no markdown, just the JSON object.

Response:`

// LLMExtractor implements Extractor with a single LLM call that returns a
// JSON object keyed by entity name.
type LLMExtractor struct {
	llm llm.LLM
}

// NewLLMExtractor creates a new LLMExtractor.
func NewLLMExtractor(client llm.LLM) *LLMExtractor {
	return &LLMExtractor{llm: client}
}

// Extract asks the model for every personal fact in the message.
func (e *LLMExtractor) Extract(ctx context.Context, message string) (map[string][]string, error) {
	names := make([]string, 0, len(entity.All()))
	for _, ent := range entity.All() {
		names = append(names, ent.String())
	}
	prompt := fmt.Sprintf(extractPromptTemplate, strings.Join(names, ", "), message)

	response, err := e.llm.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	return ParseExtraction(response)
}

// ParseExtraction decodes the model's JSON response into a facts-by-entity
// map. Non-string and empty facts are dropped; keys are normalized but not
// validated against the catalog here.
func ParseExtraction(response string) (map[string][]string, error) {
	cleaned := llm.StripCodeFence(response)

	var raw map[string][]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("extraction response is not a JSON object: %w", err)
	}

	result := make(map[string][]string, len(raw))
	for name, values := range raw {
		var facts []string
		for _, v := range values {
			if s, ok := v.(string); ok && s != "" {
				facts = append(facts, s)
			}
		}
		if len(facts) > 0 {
			result[entity.Normalize(name)] = facts
		}
	}
	return result, nil
}
