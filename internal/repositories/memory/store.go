// Package memory is an in-process implementation of the repository ports.
// A unit of work runs against a private copy of the data that replaces the
// shared copy on commit, so failed units leave no trace. Units of work are
// serialized by a single mutex.
package memory

import (
	"context"
	"sync"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
)

type idemKey struct {
	org, op, key string
}

type codeKey struct {
	org, code string
}

type refKey struct {
	org, target, code string
}

type data struct {
	journals   map[string]domain.Journal
	postings   []domain.LedgerPosting
	sequences  map[domain.SequenceScope]int64
	tasks      []domain.ApprovalTask
	idem       map[idemKey]domain.IdempotencyRecord
	outbox     []domain.IntegrationEvent
	periods    []domain.AccountingPeriod
	configs    map[codeKey]domain.VoucherTypeConfig
	references map[refKey]bool
}

func newData() *data {
	return &data{
		journals:   map[string]domain.Journal{},
		sequences:  map[domain.SequenceScope]int64{},
		idem:       map[idemKey]domain.IdempotencyRecord{},
		configs:    map[codeKey]domain.VoucherTypeConfig{},
		references: map[refKey]bool{},
	}
}

func (d *data) clone() *data {
	c := &data{
		journals:   make(map[string]domain.Journal, len(d.journals)),
		postings:   append([]domain.LedgerPosting(nil), d.postings...),
		sequences:  make(map[domain.SequenceScope]int64, len(d.sequences)),
		tasks:      make([]domain.ApprovalTask, len(d.tasks)),
		idem:       make(map[idemKey]domain.IdempotencyRecord, len(d.idem)),
		outbox:     append([]domain.IntegrationEvent(nil), d.outbox...),
		periods:    append([]domain.AccountingPeriod(nil), d.periods...),
		configs:    make(map[codeKey]domain.VoucherTypeConfig, len(d.configs)),
		references: make(map[refKey]bool, len(d.references)),
	}
	for k, v := range d.journals {
		c.journals[k] = copyJournal(v)
	}
	for k, v := range d.sequences {
		c.sequences[k] = v
	}
	for i, t := range d.tasks {
		c.tasks[i] = copyTask(t)
	}
	for k, v := range d.idem {
		c.idem[k] = v
	}
	for k, v := range d.configs {
		c.configs[k] = v
	}
	for k, v := range d.references {
		c.references[k] = v
	}
	return c
}

// Store is the in-memory unit of work.
type Store struct {
	mu   sync.Mutex
	data *data
	view
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{data: newData()}
	s.view = view{st: s}
	return s
}

var _ portsrepo.UnitOfWork = (*Store)(nil)

// WithinTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(ctx, &view{st: s, d: working}); err != nil {
		return err
	}
	s.data = working
	return nil
}

// view serves the repository ports either from a transaction's working copy
// (d set) or from the shared data under the store mutex.
type view struct {
	st *Store
	d  *data
}

func (v *view) do(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.d != nil {
		return fn(v.d)
	}
	v.st.mu.Lock()
	defer v.st.mu.Unlock()
	return fn(v.st.data)
}

func (v *view) Journals() portsrepo.JournalRepositoryFacade             { return v }
func (v *view) Sequences() portsrepo.SequenceRepository                  { return v }
func (v *view) Approvals() portsrepo.ApprovalRepositoryFacade            { return v }
func (v *view) Idempotency() portsrepo.IdempotencyRepository             { return v }
func (v *view) Outbox() portsrepo.OutboxRepositoryFacade                 { return v }
func (v *view) Periods() portsrepo.PeriodReader                          { return v }
func (v *view) VoucherConfigs() portsrepo.VoucherConfigRepositoryFacade { return v }
func (v *view) References() portsrepo.ReferenceReader                    { return v }

var _ portsrepo.Store = (*view)(nil)
