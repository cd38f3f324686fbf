// Package config holds the value handling shared by the configuration stores.
package config

import (
	"maps"
	"math"
	"strings"
)

// Values is a flat map of dot-notation keys ("summary.token_budget").
// Values are typed the way TOML decodes them, so integers may be int64
// and numbers written by hand may arrive as float64.
type Values map[string]any

// String returns the string at key, or "" if missing or not a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the integer at key. Integral floats are accepted; anything
// else returns 0.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

// Float returns the number at key, converting integers.
func (v Values) Float(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// Flatten turns nested tables into dot-notation keys:
// {"summary": {"mode": "chained"}} becomes {"summary.mode": "chained"}.
func Flatten(m map[string]any) Values {
	out := make(Values)
	flattenInto(out, m, "")
	return out
}

func flattenInto(out Values, m map[string]any, prefix string) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(out, nested, key)
			continue
		}
		out[key] = value
	}
}

// Nest is the inverse of Flatten. It returns tables keyed by the segments
// of each dot-notation key, so the encoded file groups settings by section.
// A key that is both a value and a table prefix keeps the table.
func (v Values) Nest() map[string]any {
	out := make(map[string]any)
	for key, value := range v {
		parts := strings.Split(key, ".")
		table := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := table[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				table[part] = next
			}
			table = next
		}
		leaf := parts[len(parts)-1]
		if _, isTable := table[leaf].(map[string]any); !isTable {
			table[leaf] = value
		}
	}
	return out
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	return maps.Clone(v)
}
