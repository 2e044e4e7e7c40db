package storage

import (
	"context"

	"gastos/internal/core"
)

// Ports for persistence backends.
type (
	// KV is a byte-level key-value store with whole-value replacement.
	KV interface {
		// Get returns the value stored under key; found is false when the key is absent.
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		// Put replaces the value stored under key.
		Put(ctx context.Context, key string, value []byte) error
		// Delete removes key. Deleting an absent key is not an error.
		Delete(ctx context.Context, key string) error
	}

	// LedgerRepository persists the whole ledger as one document.
	LedgerRepository interface {
		Load(ctx context.Context) (core.Ledger, error)
		Save(ctx context.Context, l core.Ledger) error
		Clear(ctx context.Context) error
	}
)
