package utils

import "strings"

// WordCount sums whitespace-delimited tokens across the given texts.
// Empty or blank entries contribute zero.
func WordCount(texts []string) int {
	total := 0
	for _, t := range texts {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			continue
		}
		total += len(strings.Fields(trimmed))
	}
	return total
}
