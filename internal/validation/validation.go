package validation

import (
	"fmt"
	"strings"
)

// Violations maps a field path to a short machine-readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one.
func (v Violations) Add(field, reason string) {
	if _, ok := v[field]; !ok {
		v[field] = reason
	}
}

// Error lets a non-empty Violations travel through error returns.
func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for field, reason := range v {
		parts = append(parts, field+": "+reason)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Err returns nil when nothing was recorded.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v.Add(field, "must_not_be_negative")
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v.Add(field, "must_be_positive")
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

// OneOf checks value against the allowed set.
func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "must_be_one_of:"+strings.Join(allowed, ","))
}

// Index builds a field path for a list element, e.g. "timeline[2].date".
func Index(field string, i int, sub string) string {
	return fmt.Sprintf("%s[%d].%s", field, i, sub)
}
