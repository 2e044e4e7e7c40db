package storage_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gastos/internal/core"
	"gastos/internal/storage"
	"gastos/internal/storage/memory"
)

func sampleLedger() core.Ledger {
	return core.Ledger{
		{Arriendo: 500, Comida: 200, Servicios: 50, Une: 30, Bruce: 0, Pasajes: 20, Universidad: 100, DolarC: 0, Otros: 10, Total: 910, ID: "1700000000000"},
		{Arriendo: 1.25, Comida: 2.5, Servicios: 0.1, Une: 0.2, Bruce: 3, Pasajes: 4, Universidad: 5, DolarC: 6, Otros: 7, Total: 29.05, ID: "1700000000001"},
	}
}

func TestDocumentRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	repo := storage.NewDocumentRepository(kv, "")

	if repo.Key() != storage.DefaultLedgerKey {
		t.Fatalf("key = %q", repo.Key())
	}

	l, err := repo.Load(ctx)
	if err != nil || len(l) != 0 {
		t.Fatalf("expected empty ledger from absent key, got %v err=%v", l, err)
	}

	want := sampleLedger()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDocumentRepositoryClearRemovesKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	repo := storage.NewDocumentRepository(kv, "ledger")

	if err := repo.Save(ctx, sampleLedger()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !kv.Has("ledger") {
		t.Fatalf("expected key after save")
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if kv.Has("ledger") {
		t.Fatalf("clear must remove the key, not write an empty list")
	}
}

func TestDocumentRepositoryCorruptDocument(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Put(ctx, storage.DefaultLedgerKey, []byte("{not json"))
	repo := storage.NewDocumentRepository(kv, "")

	if _, err := repo.Load(ctx); !errors.Is(err, storage.ErrCorruptLedger) {
		t.Fatalf("expected ErrCorruptLedger, got %v", err)
	}
}

func TestEncodeLedgerWireFormat(t *testing.T) {
	data, err := storage.EncodeLedger(core.Ledger{{Arriendo: 1, Total: 1, ID: "9"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"arriendo":1,"comida":0,"servicios":0,"une":0,"bruce":0,"pasajes":0,"universidad":0,"dolarC":0,"otros":0,"total":1,"id":"9"}]`
	if string(data) != want {
		t.Fatalf("wire format:\n got %s\nwant %s", data, want)
	}

	empty, err := storage.EncodeLedger(nil)
	if err != nil || string(empty) != "[]" {
		t.Fatalf("nil ledger should encode as [], got %s err=%v", empty, err)
	}
}

func TestDecodeLedgerAcceptsBrowserDocuments(t *testing.T) {
	// Documents written by the browser version store ids as strings
	// and may contain fractional amounts.
	doc := `[{"arriendo":500,"comida":200.5,"servicios":50,"une":30,"bruce":0,"pasajes":20,"universidad":100,"dolarC":0,"otros":10,"total":910.5,"id":"1697040000000"}]`
	l, err := storage.DecodeLedger([]byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(l) != 1 || l[0].Comida != 200.5 || l[0].ID != "1697040000000" || l[0].Total != 910.5 {
		t.Fatalf("unexpected decode: %+v", l)
	}

	l, err = storage.DecodeLedger([]byte("null"))
	if err != nil || l == nil || len(l) != 0 {
		t.Fatalf("null should decode to empty ledger, got %v err=%v", l, err)
	}
}
