// Package config holds the typed accessors shared by the config stores.
package config

// Lookup returns the raw value stored under a dotted key.
type Lookup func(key string) (any, bool)

// Values adds the typed getters of driven.ConfigStore to a raw lookup.
// Stores embed it so GetInt on a TOML int64 and on a Go int agree.
type Values struct {
	lookup Lookup
}

// NewValues wraps lookup.
func NewValues(lookup Lookup) Values {
	return Values{lookup: lookup}
}

func (v Values) GetString(key string) string {
	raw, _ := v.lookup(key)
	s, _ := raw.(string)
	return s
}

func (v Values) GetBool(key string) bool {
	raw, _ := v.lookup(key)
	b, _ := raw.(bool)
	return b
}

// GetInt returns 0 for anything that is not an integer.
func (v Values) GetInt(key string) int {
	raw, _ := v.lookup(key)
	switch n := raw.(type) {
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

// GetFloat widens integers and returns 0 for non-numbers.
func (v Values) GetFloat(key string) float64 {
	raw, _ := v.lookup(key)
	switch n := raw.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
