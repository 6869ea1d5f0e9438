package eventbus

import "strings"

// MatchPattern reports whether a routing key matches a binding pattern.
// Patterns are dot-separated topic segments where "*" matches exactly one
// segment and "#" matches zero or more trailing segments:
//
//	"post.created" matches "post.created" and "post.*"
//	"post.media.removed" matches "post.#" but not "post.*"
func MatchPattern(pattern, routingKey string) bool {
	if pattern == routingKey {
		return true
	}

	pSegs := strings.Split(pattern, ".")
	kSegs := strings.Split(routingKey, ".")

	for i, seg := range pSegs {
		if seg == "#" {
			return true
		}
		if i >= len(kSegs) {
			return false
		}
		if seg != "*" && seg != kSegs[i] {
			return false
		}
	}

	return len(pSegs) == len(kSegs)
}
