package cache

import (
	"fmt"
	"strings"
)

type EntityType string

const (
	EntityIdempotency EntityType = "idempotency"
)

type KeyType string

const (
	KeyRequest  KeyType = "request"
	KeyResponse KeyType = "response"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

// ScopedValue joins parts into a single key value, e.g. a path and a client key.
func ScopedValue(parts ...string) string {
	return strings.Join(parts, "|")
}
