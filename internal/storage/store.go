// Package storage defines the key-value collaborator the identity vault
// persists through, plus in-memory and file-backed implementations.
package storage

import "context"

// Logical tables the identity subsystem writes to.
const (
	TableIdentity = "identity"
	TableKeys     = "keys"
	TableHistory  = "history"
)

// Store is the consumed persistence contract. Values are opaque versioned
// records; Get returns (nil, nil) when the key is absent. Implementations
// must guarantee at most one in-flight write per (table, key); the vault
// never issues overlapping writes by construction.
type Store interface {
	Get(ctx context.Context, table, key string) ([]byte, error)
	Set(ctx context.Context, table, key string, value []byte) error
	Delete(ctx context.Context, table, key string) (bool, error)
	Clear(ctx context.Context, table string) error
}
