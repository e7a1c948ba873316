package archive

import "strings"

// ExclusionSet is an ordered list of substring patterns applied to
// candidate filesystem paths.
type ExclusionSet []string

// Excluded reports whether path contains any pattern as a plain substring.
// This is the rule the tree walk applies: no anchoring, no globbing. A
// pattern like "*.log" therefore only matches paths that literally contain
// the two characters "*."; use Matches for the extension-aware rule.
func (e ExclusionSet) Excluded(path string) bool {
	for _, pattern := range e {
		if pattern == "" {
			continue
		}
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// Matches is the second, extension-aware matching rule: a pattern shaped
// "*.<ext>" is tested as a suffix match, anything else as a substring.
// It deliberately disagrees with Excluded on "*.<ext>" patterns; the two
// rules are kept separate on purpose so neither call site silently changes
// which files it excludes.
func Matches(pattern, path string) bool {
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(path, pattern[1:])
	}
	return strings.Contains(path, pattern)
}

// MatchesAny applies Matches over the whole set.
func (e ExclusionSet) MatchesAny(path string) bool {
	for _, pattern := range e {
		if pattern == "" {
			continue
		}
		if Matches(pattern, path) {
			return true
		}
	}
	return false
}
