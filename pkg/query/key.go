package query

import (
	"strings"
)

// Key identifies a cache entry: an operation name plus its ordered
// parameter values. Identical calls always map to the same key.
type Key struct {
	Operation string
	Params    []string
}

// NewKey builds a key from an operation name and its parameters, in call
// order.
func NewKey(operation string, params ...string) Key {
	return Key{Operation: operation, Params: params}
}

// String returns the deterministic string form used for storage and
// deduplication. Format: query:operation:param1:param2
func (k Key) String() string {
	parts := make([]string, 0, len(k.Params)+2)
	parts = append(parts, "query", k.Operation)
	parts = append(parts, k.Params...)
	return strings.Join(parts, ":")
}
