// Package topic implements NATS-style subject matching against ACL patterns.
//
// A pattern is a dot-separated token sequence. A literal token matches only
// itself, "*" matches exactly one token, and a trailing ">" matches one or
// more remaining tokens. Matching is case-sensitive and does no trimming.
package topic

// Match reports whether subject matches pattern.
//
// This runs on every forwarded message and every permission check, so it
// walks both strings token by token without allocating.
func Match(subject, pattern string) bool {
	if subject == "" || pattern == "" {
		return false
	}

	si, pi := 0, 0
	for pi < len(pattern) {
		pt, pNext := nextToken(pattern, pi)

		if pt == ">" && pNext >= len(pattern) {
			// ">" must consume at least one subject token.
			return si < len(subject)
		}

		if si >= len(subject) {
			return false
		}
		st, sNext := nextToken(subject, si)

		if pt != "*" && pt != st {
			return false
		}

		si, pi = sNext, pNext
	}

	return si >= len(subject)
}

// IsAllowed reports whether subject matches at least one pattern.
func IsAllowed(subject string, patterns []string) bool {
	for _, p := range patterns {
		if Match(subject, p) {
			return true
		}
	}
	return false
}

// nextToken returns the token starting at i and the index just past its
// trailing dot.
func nextToken(s string, i int) (string, int) {
	for j := i; j < len(s); j++ {
		if s[j] == '.' {
			return s[i:j], j + 1
		}
	}
	return s[i:], len(s) + 1
}
