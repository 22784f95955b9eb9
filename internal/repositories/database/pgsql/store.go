// Package pgsql implements the repository ports on PostgreSQL through pgx.
package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
)

// Store runs repository calls on the pool, or on one transaction inside WithinTx.
type Store struct {
	BaseRepository
	conn
}

var _ portsrepo.UnitOfWork = (*Store)(nil)

// NewStore creates a store over dbPool.
func NewStore(dbPool *pgxpool.Pool) *Store {
	return &Store{
		BaseRepository: BaseRepository{Pool: dbPool},
		conn:           conn{q: dbPool},
	}
}

// NewRepositoryProvider wraps the store for the service container.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{UnitOfWork: NewStore(dbPool)}
}

// WithinTx runs fn in a transaction that commits when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	// Will be ignored if the transaction is committed successfully
	defer s.Rollback(ctx, tx)

	if err := fn(ctx, &conn{q: tx}); err != nil {
		return err
	}
	return s.Commit(ctx, tx)
}

// conn serves every repository port from one querier.
type conn struct {
	q querier
}

func (c *conn) Journals() portsrepo.JournalRepositoryFacade             { return c }
func (c *conn) Sequences() portsrepo.SequenceRepository                  { return c }
func (c *conn) Approvals() portsrepo.ApprovalRepositoryFacade            { return c }
func (c *conn) Idempotency() portsrepo.IdempotencyRepository             { return c }
func (c *conn) Outbox() portsrepo.OutboxRepositoryFacade                 { return c }
func (c *conn) Periods() portsrepo.PeriodReader                          { return c }
func (c *conn) VoucherConfigs() portsrepo.VoucherConfigRepositoryFacade { return c }
func (c *conn) References() portsrepo.ReferenceReader                    { return c }
