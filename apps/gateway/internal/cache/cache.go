// Package cache implements the key/field addressed store backing every
// domain repository, together with the router that derives cache keys from
// domain identifiers.
package cache

import (
	"context"
	"time"
)

// Dir addresses one entry: Key groups the entries that are invalidated
// together, Field selects a variant of the data under that key.
type Dir struct {
	Key   string
	Field string
}

// Service is the contract repositories depend on. Get returns nil, nil on a miss.
type Service interface {
	Get(ctx context.Context, dir Dir) ([]byte, error)
	Set(ctx context.Context, dir Dir, value []byte, ttl time.Duration) error
	DeleteByKey(ctx context.Context, key string) error
}
