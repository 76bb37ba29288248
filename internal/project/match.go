package project

import "strings"

// termMatches checks a single block term against the target. A term of the
// form `dim:pattern` only looks at that dimension, anything else is tested
// against every dimension value.
func termMatches(term string, t Target) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "*" {
		return true
	}

	if dim, pattern, ok := strings.Cut(term, ":"); ok && dim != "" {
		v, ok := t.Get(dim)
		return ok && wildcardMatch(pattern, strings.ToLower(v))
	}

	for _, v := range t.dims {
		if wildcardMatch(term, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// wildcardMatch matches s against pattern where `*` stands for any
// substring, including the empty one. Both sides must already be lowercase.
func wildcardMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}

	// anchored prefix
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	// anchored suffix
	last := parts[len(parts)-1]
	if len(s) < len(last) || !strings.HasSuffix(s, last) {
		return false
	}
	s = s[:len(s)-len(last)]

	// everything in between, leftmost first
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return true
}
