package ledger

import (
	"bytes"
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/storage/memory"
)

var scenario = map[string]string{
	"arriendo":    "500",
	"comida":      "200",
	"servicios":   "50",
	"une":         "30",
	"bruce":       "0",
	"pasajes":     "20",
	"universidad": "100",
	"dolarC":      "0",
	"otros":       "10",
}

type failingKV struct {
	*memory.Store
	failPut    bool
	failDelete bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("read-only")
	}
	return f.Store.Delete(ctx, key)
}

func newTestService(t *testing.T, kv storage.KV, strict bool) *Service {
	t.Helper()
	var buf bytes.Buffer
	start := time.UnixMilli(1700000000000)
	return NewService(storage.NewDocumentRepository(kv, ""), Options{
		StrictLoad: strict,
		Logger:     log.New(log.Config{Output: &buf}),
		IDs:        core.NewIDGeneratorWithClock(func() time.Time { return start }),
	})
}

func fill(t *testing.T, s *Service, fields map[string]string) {
	t.Helper()
	for k, v := range fields {
		if _, _, err := s.SetField(k, v); err != nil {
			t.Fatalf("SetField(%s): %v", k, err)
		}
	}
}

func TestSubmitScenarioTotal(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestService(t, kv, true)
	fill(t, s, scenario)

	rec, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Total != 910 {
		t.Fatalf("total = %v, want 910", rec.Total)
	}
	if rec.ID != "1700000000000" {
		t.Fatalf("id = %q", rec.ID)
	}

	snap := s.Snapshot()
	if len(snap.Records) != 1 || len(snap.Draft) != 0 {
		t.Fatalf("expected 1 record and empty draft, got %d records, draft %v", len(snap.Records), snap.Draft)
	}

	persisted, err := storage.NewDocumentRepository(kv, "").Load(ctx)
	if err != nil || !reflect.DeepEqual(persisted, snap.Records) {
		t.Fatalf("persisted ledger differs: %v err=%v", persisted, err)
	}
}

func TestSubmitMissingFieldKeepsDraft(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestService(t, kv, true)

	partial := map[string]string{}
	for k, v := range scenario {
		if k != "universidad" {
			partial[k] = v
		}
	}
	fill(t, s, partial)
	before := s.Snapshot()

	if _, err := s.Submit(ctx); !errors.Is(err, core.ErrIncompleteDraft) {
		t.Fatalf("expected ErrIncompleteDraft, got %v", err)
	}

	after := s.Snapshot()
	if len(after.Records) != 0 {
		t.Fatalf("ledger must be unchanged, got %d records", len(after.Records))
	}
	if !reflect.DeepEqual(before.Draft, after.Draft) {
		t.Fatalf("draft changed: before %v after %v", before.Draft, after.Draft)
	}
	if kv.Has(storage.DefaultLedgerKey) {
		t.Fatalf("rejected submit must not persist anything")
	}

	// Editing -> Rejected -> Editing -> Submitted
	fill(t, s, map[string]string{"universidad": "100"})
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
}

func TestSubmitRejectsUnparsableValue(t *testing.T) {
	s := newTestService(t, memory.New(), true)
	fill(t, s, scenario)
	if _, v, err := s.SetField("comida", "doscientos"); err != nil || !math.IsNaN(v) {
		t.Fatalf("expected NaN stored, got %v err=%v", v, err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, core.ErrIncompleteDraft) {
		t.Fatalf("expected ErrIncompleteDraft, got %v", err)
	}
	if v, ok := s.Snapshot().Draft.Get(core.Comida); !ok || !math.IsNaN(v) {
		t.Fatalf("NaN must remain in the draft")
	}
}

func TestSetFieldUnknownCategory(t *testing.T) {
	s := newTestService(t, memory.New(), true)
	if _, _, err := s.SetField("total", "5"); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if len(s.Snapshot().Draft) != 0 {
		t.Fatalf("draft must be unchanged")
	}
}

func TestSetFieldOverwrites(t *testing.T) {
	s := newTestService(t, memory.New(), true)
	fill(t, s, map[string]string{"arriendo": "1"})
	fill(t, s, map[string]string{"arriendo": "2,5"})
	if v, _ := s.Snapshot().Draft.Get(core.Arriendo); v != 2.5 {
		t.Fatalf("arriendo = %v, want 2.5", v)
	}
}

func TestSubmissionsKeepOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memory.New(), true)

	const n = 5
	for i := 0; i < n; i++ {
		fill(t, s, scenario)
		fill(t, s, map[string]string{"otros": string(rune('1' + i))})
		if _, err := s.Submit(ctx); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	records := s.Records()
	if len(records) != n {
		t.Fatalf("len = %d, want %d", len(records), n)
	}
	for i, r := range records {
		if r.Otros != float64(i+1) {
			t.Fatalf("record %d out of order: otros=%v", i, r.Otros)
		}
		if i > 0 && r.ID <= records[i-1].ID {
			t.Fatalf("ids not increasing: %s then %s", records[i-1].ID, r.ID)
		}
	}
}

func TestResetRemovesKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestService(t, kv, true)

	for i := 0; i < 2; i++ {
		fill(t, s, scenario)
		if _, err := s.Submit(ctx); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if !kv.Has(storage.DefaultLedgerKey) {
		t.Fatalf("expected persisted key")
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(s.Records()) != 0 {
		t.Fatalf("ledger not empty after reset")
	}
	if kv.Has(storage.DefaultLedgerKey) {
		t.Fatalf("key must be absent after reset")
	}
}

func TestSaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New(), failPut: true}
	s := newTestService(t, kv, true)
	fill(t, s, scenario)

	if _, err := s.Submit(ctx); err == nil {
		t.Fatalf("expected save error")
	}
	snap := s.Snapshot()
	if len(snap.Records) != 0 || len(snap.Draft) != 9 {
		t.Fatalf("expected rollback, got %d records and %d draft fields", len(snap.Records), len(snap.Draft))
	}
}

func TestResetFailureKeepsLedger(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New()}
	s := newTestService(t, kv, true)
	fill(t, s, scenario)
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	kv.failDelete = true
	if err := s.Reset(ctx); err == nil {
		t.Fatalf("expected reset error")
	}
	if len(s.Records()) != 1 {
		t.Fatalf("ledger must survive a failed reset")
	}
}

func TestLoadRestoresLedger(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	first := newTestService(t, kv, true)
	fill(t, first, scenario)
	rec, err := first.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	second := newTestService(t, kv, true)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	records := second.Records()
	if len(records) != 1 || records[0] != rec {
		t.Fatalf("unexpected restored ledger: %v", records)
	}

	// Loaded ids raise the floor of the id generator.
	fill(t, second, scenario)
	next, err := second.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if next.ID <= rec.ID {
		t.Fatalf("id %s should be greater than %s", next.ID, rec.ID)
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Put(ctx, storage.DefaultLedgerKey, []byte("[{"))

	strict := newTestService(t, kv, true)
	if err := strict.Load(ctx); !errors.Is(err, storage.ErrCorruptLedger) {
		t.Fatalf("strict load: expected ErrCorruptLedger, got %v", err)
	}

	lenient := newTestService(t, kv, false)
	if err := lenient.Load(ctx); err != nil {
		t.Fatalf("lenient load: %v", err)
	}
	if len(lenient.Records()) != 0 {
		t.Fatalf("lenient load should start empty")
	}
	if err := lenient.Check(ctx); err != nil {
		t.Fatalf("check should tolerate corrupt document: %v", err)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := newTestService(t, memory.New(), true)
	fill(t, s, map[string]string{"arriendo": "1"})
	snap := s.Snapshot()
	snap.Draft[core.Arriendo] = 99
	if v, _ := s.Snapshot().Draft.Get(core.Arriendo); v != 1 {
		t.Fatalf("snapshot aliases service draft")
	}
}

func TestVersionTracksLedgerChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memory.New(), true)
	v0 := s.Snapshot().Version

	fill(t, s, map[string]string{"arriendo": "1"})
	if s.Snapshot().Version != v0 {
		t.Fatalf("draft edits must not bump the version")
	}
	if _, err := s.Submit(ctx); err == nil {
		t.Fatalf("expected incomplete draft")
	}
	if s.Snapshot().Version != v0 {
		t.Fatalf("rejected submit must not bump the version")
	}

	fill(t, s, scenario)
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	v1 := s.Snapshot().Version
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v2 := s.Snapshot().Version; !(v0 < v1 && v1 < v2) {
		t.Fatalf("versions not increasing: %d %d %d", v0, v1, v2)
	}
}

func TestSubmitRejectsOverflowingTotal(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestService(t, kv, true)
	for k := range scenario {
		fill(t, s, map[string]string{k: "1e308"})
	}

	if _, err := s.Submit(ctx); !errors.Is(err, core.ErrTotalOutOfRange) {
		t.Fatalf("expected ErrTotalOutOfRange, got %v", err)
	}
	if len(s.Records()) != 0 || len(s.Snapshot().Draft) != 9 {
		t.Fatalf("ledger and draft must be unchanged")
	}
	if kv.Has(storage.DefaultLedgerKey) {
		t.Fatalf("nothing should be persisted")
	}

	// Bringing one amount back into range lets the same draft through.
	for k := range scenario {
		fill(t, s, map[string]string{k: "1"})
	}
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("submit after correction: %v", err)
	}
}

func TestSubmitWithAppliesEditsAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memory.New(), true)
	fill(t, s, scenario)

	rec, err := s.SubmitWith(ctx, []FieldEdit{{Field: "comida", Value: "2,5"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Comida != 2.5 || rec.Total != 712.5 {
		t.Fatalf("edit not applied: comida=%v total=%v", rec.Comida, rec.Total)
	}

	fill(t, s, scenario)
	if _, err := s.SubmitWith(ctx, []FieldEdit{{Field: "comida", Value: ""}}); !errors.Is(err, core.ErrIncompleteDraft) {
		t.Fatalf("blank edit should clear the field, got %v", err)
	}
	if v, _ := s.Snapshot().Draft.Get(core.Comida); !math.IsNaN(v) {
		t.Fatalf("blank edit should store NaN, got %v", v)
	}

	before := s.Snapshot().Draft
	_, err = s.SubmitWith(ctx, []FieldEdit{{Field: "arriendo", Value: "1"}, {Field: "gasolina", Value: "5"}})
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if after := s.Snapshot().Draft; after[core.Arriendo] != before[core.Arriendo] {
		t.Fatalf("no edit may be applied when one is unknown")
	}
	if len(s.Records()) != 1 {
		t.Fatalf("records = %d, want 1", len(s.Records()))
	}
}
