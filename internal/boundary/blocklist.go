package boundary

import "strings"

// MatchKeyword reports whether text contains the blocked keyword,
// case-insensitive.
func MatchKeyword(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

// MatchPath reports whether a file path matches a blocked pattern.
// Pattern forms: "*.ext" matches by suffix, "dir/" matches any path
// containing the directory, anything else matches by containment.
// Matching is case-insensitive.
func MatchPath(path, pattern string) bool {
	if pattern == "" {
		return false
	}
	p := strings.ToLower(path)
	pat := strings.ToLower(pattern)

	if strings.HasPrefix(pat, "*.") {
		return strings.HasSuffix(p, pat[1:])
	}
	if strings.HasSuffix(pat, "/") {
		return strings.Contains(p, pat) || strings.HasPrefix(p, strings.TrimSuffix(pat, "/"))
	}
	return strings.Contains(p, pat)
}

// blockedKeyword returns the first blocked keyword found in text, if any.
func blockedKeyword(text string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if MatchKeyword(text, k) {
			return k, true
		}
	}
	return "", false
}

// blockedPath returns the first (path, pattern) pair that matches, if any.
func blockedPath(paths []string, patterns []string) (string, string, bool) {
	for _, p := range paths {
		for _, pat := range patterns {
			if MatchPath(p, pat) {
				return p, pat, true
			}
		}
	}
	return "", "", false
}
