package repositories

import (
	"context"
)

// Store groups the repositories a service works with. Outside a unit of work
// each call runs on its own connection; inside WithinTx every call shares the
// transaction.
type Store interface {
	Journals() JournalRepositoryFacade
	Sequences() SequenceRepository
	Approvals() ApprovalRepositoryFacade
	Idempotency() IdempotencyRepository
	Outbox() OutboxRepositoryFacade
	Periods() PeriodReader
	VoucherConfigs() VoucherConfigRepositoryFacade
	References() ReferenceReader
}

// UnitOfWork runs a function inside one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
