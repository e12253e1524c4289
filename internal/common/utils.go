package common

import "strings"

// HasAny reports whether s contains any of the substrings, ignoring case.
func HasAny(s string, subs ...string) bool {
	return FirstMatch(s, subs...) != ""
}

// FirstMatch returns the first substring contained in s, ignoring case,
// or "" when none match.
func FirstMatch(s string, subs ...string) string {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(sub)) {
			return sub
		}
	}
	return ""
}
