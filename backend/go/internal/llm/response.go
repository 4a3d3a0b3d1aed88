package llm

import "strings"

// StripCodeFence removes markdown code fences and a leading "json" tag
// from a model response. Models regularly wrap JSON output in ```json
// blocks even when told not to, so every JSON-consuming caller runs its
// response through this first.
func StripCodeFence(response string) string {
	text := strings.TrimSpace(response)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			kept = append(kept, line)
		}
		text = strings.TrimSpace(strings.Join(kept, "\n"))
	}

	if strings.HasPrefix(text, "json") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "json"))
	}

	return text
}
