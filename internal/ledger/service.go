// Package ledger owns the in-memory ledger and draft and keeps the ledger
// persisted through a storage.LedgerRepository.
//
// Every mutation holds the service mutex for its whole duration, so a
// submit or reset can never interleave with another handler.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// Snapshot is an immutable copy of the state the view renders.
type Snapshot struct {
	Records core.Ledger
	Draft   core.Draft
	// Version increases whenever Records changes.
	Version uint64
}

// Options tunes service behaviour.
type Options struct {
	// StrictLoad makes Load fail on a corrupt document instead of starting empty.
	StrictLoad bool
	Logger     *log.Logger
	IDs        *core.IDGenerator
}

type Service struct {
	mu      sync.Mutex
	repo    storage.LedgerRepository
	ids     *core.IDGenerator
	strict  bool
	logger  *log.Logger
	records core.Ledger
	draft   core.Draft
	version uint64
}

func NewService(repo storage.LedgerRepository, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	ids := opts.IDs
	if ids == nil {
		ids = core.NewIDGenerator()
	}
	return &Service{
		repo:    repo,
		ids:     ids,
		strict:  opts.StrictLoad,
		logger:  logger.WithComponent(log.ComponentLedger),
		records: core.Ledger{},
		draft:   core.Draft{},
	}
}

// Load replaces the in-memory ledger with the persisted one. It is called
// once at startup.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCorruptLedger) && !s.strict {
			s.logger.WarnContext(ctx, "Persisted ledger is corrupt, starting empty",
				log.FieldError, err,
				log.FieldOperation, log.OpLoad)
			s.records = core.Ledger{}
			return nil
		}
		return fmt.Errorf("load ledger: %w", err)
	}

	for _, r := range l {
		s.ids.Observe(r.ID)
	}
	s.records = l
	s.version++
	s.logger.InfoContext(ctx, "Ledger loaded", log.FieldRecords, len(l), log.FieldOperation, log.OpLoad)
	return nil
}

// SetField parses raw and stores it in the draft under name, overwriting any
// previous value. Unparsable input is stored as NaN.
func (s *Service) SetField(name, raw string) (core.Category, float64, error) {
	c, err := core.ParseCategory(name)
	if err != nil {
		return "", 0, fmt.Errorf("field %q: %w", name, err)
	}
	v := core.ParseAmount(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Set(c, v)
	return c, v, nil
}

// FieldEdit is one raw input value for a draft category.
type FieldEdit struct {
	Field string
	Value string
}

// Submit turns the draft into a record, appends it and persists the ledger.
//
// When the draft is incomplete it returns core.ErrIncompleteDraft and leaves
// both draft and ledger untouched. When persistence fails the append is
// undone and the draft kept.
func (s *Service) Submit(ctx context.Context) (core.ExpenseRecord, error) {
	return s.SubmitWith(ctx, nil)
}

// SubmitWith applies edits to the draft and submits it under one lock, so no
// other draft change can land in between. Edits naming an unknown category
// are rejected before anything is applied.
func (s *Service) SubmitWith(ctx context.Context, edits []FieldEdit) (core.ExpenseRecord, error) {
	cats := make([]core.Category, len(edits))
	for i, e := range edits {
		c, err := core.ParseCategory(e.Field)
		if err != nil {
			return core.ExpenseRecord{}, fmt.Errorf("field %q: %w", e.Field, err)
		}
		cats[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range edits {
		s.draft.Set(cats[i], core.ParseAmount(e.Value))
	}

	rec, err := core.NewExpenseRecord(s.draft, "")
	if err != nil {
		s.logger.InfoContext(ctx, "Submission rejected",
			log.FieldMissing, s.draft.Missing(),
			log.FieldError, err,
			log.FieldOperation, log.OpSubmit)
		return core.ExpenseRecord{}, err
	}
	rec.ID = s.ids.Next()

	next := make(core.Ledger, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, rec)

	if err := s.repo.Save(ctx, next); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("save ledger: %w", err)
	}

	s.records = next
	s.draft = core.Draft{}
	s.version++

	fields := log.NewFields().
		WithRecord(rec.ID, rec.Total).
		WithOperation(log.OpSubmit)
	fields[log.FieldRecords] = len(next)
	s.logger.InfoContext(ctx, "Expense record created", fields.ToSlice()...)
	return rec, nil
}

// Reset empties the ledger and removes the persisted key.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	removed := len(s.records)
	s.records = core.Ledger{}
	s.version++
	s.logger.InfoContext(ctx, "Ledger reset", log.FieldRecords, removed, log.FieldOperation, log.OpReset)
	return nil
}

// Snapshot returns copies of the ledger and draft.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Records: s.records.Clone(),
		Draft:   s.draft.Clone(),
		Version: s.version,
	}
}

// Records returns a copy of the ledger.
func (s *Service) Records() core.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Clone()
}

// Check verifies the repository can still be read.
func (s *Service) Check(ctx context.Context) error {
	_, err := s.repo.Load(ctx)
	if errors.Is(err, storage.ErrCorruptLedger) {
		// Readable, just not decodable; the next save overwrites it.
		return nil
	}
	return err
}
