package llm

import (
	"strings"
)

// DefaultModelPriorities orders model name fragments from most to least
// preferred: current Gemini flash first, the stable 1.5 flash as fallback.
var DefaultModelPriorities = []string{
	"gemini-3.0-flash",
	"gemini-3-flash",
	"gemini-1.5-flash",
}

// SelectModel picks the first available model matching the highest
// priority. A priority matches when it is a substring of the model name.
// Returns false when no priority matches any available model.
func SelectModel(available []string, priorities []string) (string, bool) {
	for _, p := range priorities {
		if p == "" {
			continue
		}
		for _, m := range available {
			if strings.Contains(m, p) {
				return m, true
			}
		}
	}
	return "", false
}

// SelectModelOrFirst applies SelectModel and falls back to the first
// available model, matching the default position of a model picker.
func SelectModelOrFirst(available []string, priorities []string) (string, bool) {
	if m, ok := SelectModel(available, priorities); ok {
		return m, true
	}
	if len(available) > 0 {
		return available[0], true
	}
	return "", false
}
