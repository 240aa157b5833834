package utils

import "strings"

// ParseSkills splits a comma-separated list, trimming blanks and dropping empty items.
func ParseSkills(text string) []string {
	out := []string{}
	for _, s := range strings.Split(text, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
