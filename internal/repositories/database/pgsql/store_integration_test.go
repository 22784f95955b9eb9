package pgsql_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	"github.com/ritsnep/HimalytixNew-sub007/internal/repositories/database/pgsql"
	"github.com/ritsnep/HimalytixNew-sub007/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// StoreIntegrationTestSuite runs against a real PostgreSQL database named by
// PGSQL_TEST_URL. Every test works in its own organization.
type StoreIntegrationTestSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *pgsql.Store
	orgID string
}

func TestStoreIntegrationTestSuite(t *testing.T) {
	url := os.Getenv("PGSQL_TEST_URL")
	if url == "" {
		t.Skip("PGSQL_TEST_URL not set")
	}
	if _, err := database.RunMigrations(url, "file://../../../../migrations", slog.Default()); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := database.NewPgxPool(context.Background(), url, true)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Close()
	suite.Run(t, &StoreIntegrationTestSuite{pool: pool, store: pgsql.NewStore(pool)})
}

func (suite *StoreIntegrationTestSuite) SetupTest() {
	suite.orgID = "it-" + uuid.NewString()
}

func (suite *StoreIntegrationTestSuite) now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (suite *StoreIntegrationTestSuite) seedConfig(ctx context.Context) *domain.VoucherTypeConfig {
	now := suite.now()
	cfg := &domain.VoucherTypeConfig{
		ID:             uuid.NewString(),
		OrganizationID: suite.orgID,
		Code:           "journal",
		Name:           "Journal",
		FieldOverrides: map[string]domain.FieldOverride{},
		Approval:       &domain.ApprovalWorkflow{Required: true, Steps: []domain.ApprovalStep{{Name: "review"}}},
		IsActive:       true,
		Version:        1,
		AuditFields:    domain.AuditFields{CreatedAt: now, CreatedBy: "u1", LastUpdatedAt: now, LastUpdatedBy: "u1"},
	}
	suite.Require().NoError(suite.store.VoucherConfigs().SaveConfig(ctx, cfg))
	return cfg
}

func (suite *StoreIntegrationTestSuite) draft(cfg *domain.VoucherTypeConfig) *domain.Journal {
	now := suite.now()
	id := uuid.NewString()
	return &domain.Journal{
		JournalID:       id,
		OrganizationID:  suite.orgID,
		VoucherConfigID: cfg.ID,
		VoucherType:     cfg.Code,
		JournalDate:     time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Status:          domain.Draft,
		TotalDebit:      decimal.NewFromInt(50),
		TotalCredit:     decimal.NewFromInt(50),
		IsBalanced:      true,
		HeaderUDFs:      map[string]any{"channel": "web"},
		Lines: []domain.JournalLine{
			{LineID: uuid.NewString(), JournalID: id, LineNumber: 1, AccountCode: "1000-Cash", DebitAmount: decimal.NewFromInt(50)},
			{LineID: uuid.NewString(), JournalID: id, LineNumber: 2, AccountCode: "4000-Sales", CreditAmount: decimal.NewFromInt(50)},
		},
		AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "u1", LastUpdatedAt: now, LastUpdatedBy: "u1"},
	}
}

func (suite *StoreIntegrationTestSuite) TestVoucherConfigs() {
	ctx := context.Background()
	cfg := suite.seedConfig(ctx)

	err := suite.store.VoucherConfigs().SaveConfig(ctx, cfg)
	suite.ErrorIs(err, apperrors.ErrDuplicate)

	got, err := suite.store.VoucherConfigs().FindConfigByCode(ctx, suite.orgID, "journal")
	suite.Require().NoError(err)
	suite.True(got.RequiresApproval())

	got.Name = "General Journal"
	got.Version = 2
	suite.Require().NoError(suite.store.VoucherConfigs().UpdateConfig(ctx, got, 1))
	suite.ErrorIs(suite.store.VoucherConfigs().UpdateConfig(ctx, got, 1), apperrors.ErrConflict)

	_, err = suite.store.VoucherConfigs().FindConfigByCode(ctx, suite.orgID, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreIntegrationTestSuite) TestJournalRoundTripAndStaleUpdate() {
	ctx := context.Background()
	cfg := suite.seedConfig(ctx)
	j := suite.draft(cfg)
	suite.Require().NoError(suite.store.Journals().SaveJournal(ctx, j))

	got, err := suite.store.Journals().FindJournalByID(ctx, suite.orgID, j.JournalID)
	suite.Require().NoError(err)
	suite.Len(got.Lines, 2)
	suite.True(got.TotalDebit.Equal(decimal.NewFromInt(50)))
	suite.Equal("web", got.HeaderUDFs["channel"])
	suite.Empty(got.VoucherNumber)

	expected := got.LastUpdatedAt
	got.Reference = "INV-7"
	got.Lines = got.Lines[:1]
	got.Touch("u2", suite.now().Add(time.Second))
	suite.Require().NoError(suite.store.Journals().UpdateJournal(ctx, got, expected))

	err = suite.store.Journals().UpdateJournal(ctx, got, expected)
	suite.ErrorIs(err, apperrors.ErrConflict)

	reloaded, err := suite.store.Journals().FindJournalByID(ctx, suite.orgID, j.JournalID)
	suite.Require().NoError(err)
	suite.Equal("INV-7", reloaded.Reference)
	suite.Len(reloaded.Lines, 1)
}

func (suite *StoreIntegrationTestSuite) TestListJournalsPaginates() {
	ctx := context.Background()
	cfg := suite.seedConfig(ctx)
	for i := 0; i < 3; i++ {
		suite.Require().NoError(suite.store.Journals().SaveJournal(ctx, suite.draft(cfg)))
	}

	page, next, err := suite.store.Journals().ListJournals(ctx, suite.orgID, portsrepo.JournalFilter{Status: domain.Draft}, 2, nil)
	suite.Require().NoError(err)
	suite.Len(page, 2)
	suite.Require().NotNil(next)

	rest, next, err := suite.store.Journals().ListJournals(ctx, suite.orgID, portsrepo.JournalFilter{}, 2, next)
	suite.Require().NoError(err)
	suite.Len(rest, 1)
	suite.Nil(next)
	suite.NotEqual(page[1].JournalID, rest[0].JournalID)
}

func (suite *StoreIntegrationTestSuite) TestSequenceNumbersAreUniqueUnderConcurrency() {
	ctx := context.Background()
	scope := domain.VoucherNumberScope(suite.orgID, "journal")

	const workers = 8
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := suite.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
				n, err := tx.Sequences().NextValue(ctx, scope)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				if seen[n] {
					return errors.New("duplicate sequence value")
				}
				seen[n] = true
				return nil
			})
			suite.NoError(err)
		}()
	}
	wg.Wait()
	suite.Len(seen, workers)
	for n := int64(1); n <= workers; n++ {
		suite.True(seen[n], "missing %d", n)
	}
}

func (suite *StoreIntegrationTestSuite) TestWithinTxRollsBack() {
	ctx := context.Background()
	cfg := suite.seedConfig(ctx)
	j := suite.draft(cfg)

	boom := errors.New("boom")
	err := suite.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		if err := tx.Journals().SaveJournal(ctx, j); err != nil {
			return err
		}
		return boom
	})
	suite.ErrorIs(err, boom)

	_, err = suite.store.Journals().FindJournalByID(ctx, suite.orgID, j.JournalID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreIntegrationTestSuite) TestIdempotencyAndOutbox() {
	ctx := context.Background()
	cfg := suite.seedConfig(ctx)
	j := suite.draft(cfg)
	suite.Require().NoError(suite.store.Journals().SaveJournal(ctx, j))

	rec := domain.IdempotencyRecord{
		OrganizationID: suite.orgID, Operation: domain.OperationCreate, Key: "k1", JournalID: j.JournalID, CreatedAt: suite.now(),
	}
	suite.Require().NoError(suite.store.Idempotency().SaveRecord(ctx, rec))
	suite.ErrorIs(suite.store.Idempotency().SaveRecord(ctx, rec), apperrors.ErrDuplicate)
	found, err := suite.store.Idempotency().FindRecord(ctx, suite.orgID, domain.OperationCreate, "k1")
	suite.Require().NoError(err)
	suite.Equal(j.JournalID, found.JournalID)

	ev, err := domain.NewJournalEvent(uuid.NewString(), domain.EventJournalPosted, j, suite.now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.Outbox().SaveEvents(ctx, []domain.IntegrationEvent{ev}))

	err = suite.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		pending, err := tx.Outbox().ClaimPending(ctx, 100)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if p.EventID == ev.EventID {
				return tx.Outbox().MarkPublished(ctx, p.EventID, "msg-1", suite.now())
			}
		}
		return errors.New("event not claimed")
	})
	suite.Require().NoError(err)
	suite.ErrorIs(suite.store.Outbox().MarkFailed(ctx, "missing", "x", false), apperrors.ErrNotFound)
	_, err = suite.store.Outbox().ClaimEvent(ctx, ev.EventID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreIntegrationTestSuite) TestClaimEventSkipsRowsHeldByRelay() {
	ctx := context.Background()
	cfg := suite.seedConfig(ctx)
	j := suite.draft(cfg)
	suite.Require().NoError(suite.store.Journals().SaveJournal(ctx, j))
	ev, err := domain.NewJournalEvent(uuid.NewString(), domain.EventJournalPosted, j, suite.now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.Outbox().SaveEvents(ctx, []domain.IntegrationEvent{ev}))

	err = suite.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		if _, err := tx.Outbox().ClaimPending(ctx, 100); err != nil {
			return err
		}
		// a second transaction must not get the row while this one holds it
		return suite.store.WithinTx(context.Background(), func(ctx context.Context, other portsrepo.Store) error {
			_, err := other.Outbox().ClaimEvent(ctx, ev.EventID)
			suite.ErrorIs(err, apperrors.ErrNotFound)
			return nil
		})
	})
	suite.Require().NoError(err)

	claimed, err := suite.store.Outbox().ClaimEvent(ctx, ev.EventID)
	suite.Require().NoError(err)
	suite.Equal(ev.EventID, claimed.EventID)
}
