// Package matching implements the opportunity-matching engine: profile
// normalization, rule evaluation, savings estimation and prioritization.
// These are pure functions of (profile, catalog, now) with ZERO dependencies
// on HTTP, database, or any other infrastructure — making them trivially
// testable and reusable.
package matching

// Facts is the normalized view of a company profile: every raw field plus
// the derived fields rule evaluation works against. Values are bool,
// float64, string or []string.
type Facts map[string]interface{}

// truthy reports whether a fact value counts as "set": true booleans,
// non-zero numbers, non-empty strings and non-empty lists.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case []string:
		return len(x) > 0
	case []interface{}:
		return len(x) > 0
	case nil:
		return false
	}
	return false
}

// numValue resolves a fact as a number. Criteria values arrive from JSONB
// as float64; profile fields may be int or float64.
func numValue(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	}
	return 0, false
}

// equalValue compares a fact against a criterion value, treating all
// numeric types as float64 so 10 matches 10.0.
func equalValue(fact, want interface{}) bool {
	if fn, ok := numValue(fact); ok {
		if wn, ok := numValue(want); ok {
			return fn == wn
		}
		return false
	}
	switch w := want.(type) {
	case bool:
		b, ok := fact.(bool)
		return ok && b == w
	case string:
		s, ok := fact.(string)
		return ok && s == w
	}
	return false
}

// toList coerces a fact into a slice for membership/intersection checks.
// Scalars become single-element lists; nil becomes empty.
func toList(v interface{}) []interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return x
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return []interface{}{x}
	}
}

// intersects reports whether the two lists share at least one value.
func intersects(a, b []interface{}) bool {
	for _, av := range a {
		for _, bv := range b {
			if equalValue(av, bv) {
				return true
			}
		}
	}
	return false
}

// containsString reports membership of s in a string-list fact.
func containsString(v interface{}, s string) bool {
	for _, item := range toList(v) {
		if str, ok := item.(string); ok && str == s {
			return true
		}
	}
	return false
}
