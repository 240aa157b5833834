package utils

import "regexp"

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsUUID reports whether s is a hyphenated UUID in any version.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}
