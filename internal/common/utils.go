package common

import "strings"

// JoinNonEmpty joins the non-blank parts with sep, in order.
// Blank parts are dropped entirely so the result never has dangling separators.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, sep)
}

// FirstNonEmpty returns the first non-blank value, or "" when all are blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
