package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Exists reports whether a live entry is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Add stores value under key only if no live entry exists, in a single atomic step.
	// It returns true when this call created the entry.
	Add(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	// Delete removes a key from the cache
	Delete(ctx context.Context, key string) error

	// Flush removes all items from the cache
	Flush(ctx context.Context) error
}

// Predefined cache key prefixes for different entity types
const (
	PrefixConversationWindow = "conversation_window:v1"
)

// GenerateKey creates a cache key from a prefix and a set of parameters
// It joins all parameters with a colon and appends them to the prefix
func GenerateKey(prefix string, params ...interface{}) string {
	parts := make([]string, len(params)+1)
	parts[0] = prefix

	for i, param := range params {
		parts[i+1] = fmt.Sprintf("%v", param)
	}

	return strings.Join(parts, ":")
}
