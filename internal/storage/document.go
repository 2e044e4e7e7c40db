package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gastos/internal/core"
)

// DefaultLedgerKey is the storage key the ledger document lives under.
const DefaultLedgerKey = "gastosCasa"

var ErrCorruptLedger = errors.New("corrupt ledger document")

// DocumentRepository implements LedgerRepository on top of any KV backend.
type DocumentRepository struct {
	kv  KV
	key string
}

func NewDocumentRepository(kv KV, key string) *DocumentRepository {
	if key == "" {
		key = DefaultLedgerKey
	}
	return &DocumentRepository{kv: kv, key: key}
}

// Key returns the storage key used for the ledger document.
func (r *DocumentRepository) Key() string {
	return r.key
}

// Load returns an empty ledger when the key is absent and ErrCorruptLedger
// when the stored document cannot be decoded.
func (r *DocumentRepository) Load(ctx context.Context) (core.Ledger, error) {
	data, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}
	if !found {
		return core.Ledger{}, nil
	}
	return DecodeLedger(data)
}

// Save replaces the stored document with the full ledger.
func (r *DocumentRepository) Save(ctx context.Context, l core.Ledger) error {
	data, err := EncodeLedger(l)
	if err != nil {
		return err
	}
	if err := r.kv.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("put %s: %w", r.key, err)
	}
	return nil
}

// Clear removes the key entirely.
func (r *DocumentRepository) Clear(ctx context.Context) error {
	if err := r.kv.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("delete %s: %w", r.key, err)
	}
	return nil
}

// EncodeLedger serializes the ledger as a JSON array. A nil ledger encodes as [].
func EncodeLedger(l core.Ledger) ([]byte, error) {
	if l == nil {
		l = core.Ledger{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return data, nil
}

// DecodeLedger parses a JSON array of records.
func DecodeLedger(data []byte) (core.Ledger, error) {
	var l core.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLedger, err)
	}
	if l == nil {
		l = core.Ledger{}
	}
	return l, nil
}
