package permission

import "strings"

// Match reports whether pattern covers p. Patterns are either a literal
// permission, "*", "<domain>:*" or "*:<action>".
func Match(pattern string, p Permission) bool {
	if pattern == "*" || pattern == string(p) {
		return true
	}
	dom, act, ok := strings.Cut(pattern, ":")
	if !ok {
		return false
	}
	switch {
	case dom == "*" && act == "*":
		return true
	case act == "*":
		return dom == p.Domain()
	case dom == "*":
		return act == p.Action()
	}
	return false
}

// Expand resolves patterns against the catalog. The result is normalized.
// Stored roles always hold the expanded list, never a pattern.
func Expand(patterns ...string) []Permission {
	set := make(Set)
	for _, pat := range patterns {
		for _, p := range catalog {
			if Match(pat, p) {
				set.Add(p)
			}
		}
	}
	return set.Sorted()
}

// Without returns ps minus every entry of drop, preserving order.
func Without(ps []Permission, drop ...Permission) []Permission {
	skip := NewSet(drop)
	out := make([]Permission, 0, len(ps))
	for _, p := range ps {
		if !skip.Has(p) {
			out = append(out, p)
		}
	}
	return out
}
