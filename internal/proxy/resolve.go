package proxy

import "regexp"

// refPattern matches the agent-facing reference form `{ref:<id>}` appearing
// anywhere inside an argument string. The captured id is validated
// separately against the vault reference id format before any lookup is
// attempted.
var refPattern = regexp.MustCompile(`\{ref:([A-Za-z0-9_]+)\}`)

// Lookup resolves a reference id to its plaintext value. It returns
// ok=false when the id is unknown, in which case the caller leaves the
// occurrence unchanged (resolution fails open at call time, not at
// resolution time).
type Lookup func(id string) (value string, ok bool)

// maxResolveDepth bounds the recursive walk in resolveArguments. Arguments
// come from an untrusted agent, and encoding/json's own nesting limit is
// generous enough that a pathological document could still produce a deep
// walk; this cap makes the bound explicit rather than implicit in the
// decoder.
const maxResolveDepth = 1024

// resolveArguments deep-walks an arbitrary JSON-shaped value (produced by
// decoding the tools/call params.arguments field), replacing every
// `{ref:<id>}` occurrence inside string leaves with the plaintext the
// lookup returns. Objects and arrays are walked recursively in a stable,
// total traversal: every string leaf is visited and every match within it
// is substituted, not just the first. Non-string scalars pass through
// unchanged. Past maxResolveDepth, nested values are returned as-is,
// unresolved.
func resolveArguments(value interface{}, lookup Lookup) interface{} {
	return resolveArgumentsDepth(value, lookup, 0)
}

func resolveArgumentsDepth(value interface{}, lookup Lookup, depth int) interface{} {
	if depth >= maxResolveDepth {
		return value
	}
	switch v := value.(type) {
	case string:
		return resolveString(v, lookup)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, elem := range v {
			out[key] = resolveArgumentsDepth(elem, lookup, depth+1)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			out[i] = resolveArgumentsDepth(elem, lookup, depth+1)
		}
		return out
	default:
		return v
	}
}

func resolveString(s string, lookup Lookup) string {
	return refPattern.ReplaceAllStringFunc(s, func(match string) string {
		id := refPattern.FindStringSubmatch(match)[1]
		if value, ok := lookup(id); ok {
			return value
		}
		return match
	})
}
