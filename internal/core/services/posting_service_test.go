package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/events"
	"github.com/ritsnep/HimalytixNew-sub007/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock integration adapters ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.IntegrationEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

type MockTaskQueue struct {
	mock.Mock
}

var _ portssvc.TaskQueue = (*MockTaskQueue)(nil)

func (m *MockTaskQueue) Enqueue(ctx context.Context, task portssvc.AsyncTask) (string, error) {
	args := m.Called(ctx, task)
	return args.String(0), args.Error(1)
}

type MockRequestLocker struct {
	mock.Mock
}

var _ portssvc.RequestLocker = (*MockRequestLocker)(nil)

func (m *MockRequestLocker) Acquire(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

const (
	testOrg  = "org-1"
	testUser = "user-1"
)

// --- Test Suite Setup ---
type PostingServiceTestSuite struct {
	suite.Suite
	store     *memory.Store
	resolver  *schema.Resolver
	publisher *MockEventPublisher
	queue     *MockTaskQueue
	service   portssvc.PostingSvcFacade
	ctx       context.Context
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	resolver, err := schema.NewResolver(nil, 16)
	suite.Require().NoError(err)
	suite.resolver = resolver

	suite.store.AddAccount(domain.Account{OrganizationID: testOrg, Code: "1000-Cash", AccountType: domain.Asset, IsActive: true})
	suite.store.AddAccount(domain.Account{OrganizationID: testOrg, Code: "4000-Sales", AccountType: domain.Income, IsActive: true})
	suite.store.AddPeriod(domain.AccountingPeriod{
		PeriodID:       "2024-07",
		OrganizationID: testOrg,
		StartDate:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		Status:         domain.PeriodOpen,
	})
	suite.store.AddConfig(domain.VoucherTypeConfig{
		ID: "cfg-jv", OrganizationID: testOrg, Code: "journal", Name: "Journal Voucher",
		NumberPrefix: "JV", IsActive: true, Version: 1,
	})
	suite.store.AddConfig(domain.VoucherTypeConfig{
		ID: "cfg-pv", OrganizationID: testOrg, Code: "payment", Name: "Payment Voucher",
		NumberPrefix: "PV", IsActive: true, Version: 1,
		Approval: &domain.ApprovalWorkflow{Required: true, Steps: []domain.ApprovalStep{{Name: "review"}, {Name: "sign-off"}}},
	})
	suite.store.AddConfig(domain.VoucherTypeConfig{
		ID: "cfg-si", OrganizationID: testOrg, Code: "sales-invoice", Name: "Sales Invoice",
		NumberPrefix: "SI", IsActive: true, Version: 1, EBillingEnabled: true,
	})

	suite.publisher = new(MockEventPublisher)
	suite.queue = new(MockTaskQueue)
	suite.service = services.NewPostingService(suite.store, suite.resolver)
}

func (suite *PostingServiceTestSuite) payload(voucherType string, debit, credit string) dto.VoucherPayload {
	return dto.VoucherPayload{
		VoucherType: voucherType,
		Header:      map[string]any{"date": "2024-07-15", "reference": "REF-1"},
		Lines: []map[string]any{
			{"account": "1000-Cash", "debit_amount": debit},
			{"account": "4000-Sales", "credit_amount": credit},
		},
	}
}

func (suite *PostingServiceTestSuite) requireCode(err error, code string) {
	suite.Require().Error(err)
	var appErr *apperrors.AppError
	suite.Require().True(errors.As(err, &appErr), "expected AppError, got %v", err)
	suite.Equal(code, appErr.Code)
}

// --- Tests ---

func (suite *PostingServiceTestSuite) TestCreateDraft_RenumbersNonBlankRows() {
	p := suite.payload("journal", "50", "50")
	p.Lines = []map[string]any{
		{"account": "1000-Cash", "dr": 50, "cr": 0},
		{"account": "", "dr": "", "cr": ""},
		{"account": "4000-Sales", "dr": 0, "cr": 50},
	}

	result, err := suite.service.CreateDraft(suite.ctx, testOrg, p, testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.Draft, result.Journal.Status)
	suite.Require().Len(result.Journal.Lines, 2)
	suite.Equal(1, result.Journal.Lines[0].LineNumber)
	suite.Equal(2, result.Journal.Lines[1].LineNumber)
	suite.True(result.Summary.BalanceDiff.IsZero())
	suite.True(result.Journal.IsBalanced)
	suite.Empty(result.Journal.VoucherNumber)
}

func (suite *PostingServiceTestSuite) TestCreateDraft_UnbalancedAllowed() {
	result, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "100", "60"), testUser)
	suite.Require().NoError(err)
	suite.False(result.Journal.IsBalanced)
	suite.True(result.Summary.BalanceDiff.Equal(decimal.NewFromInt(40)))
}

func (suite *PostingServiceTestSuite) TestCreateDraft_ValidationErrors() {
	p := suite.payload("journal", "10", "10")
	p.Header = map[string]any{}
	p.Lines[1]["account"] = "9999-Unknown"

	_, err := suite.service.CreateDraft(suite.ctx, testOrg, p, testUser)
	suite.requireCode(err, apperrors.CodeValidation)
	var appErr *apperrors.AppError
	suite.Require().True(errors.As(err, &appErr))
	suite.Contains(appErr.Fields, "date")
	suite.Contains(appErr.Fields, "lines[1].account")
	suite.Equal(0, suite.store.JournalCount(testOrg))
}

func (suite *PostingServiceTestSuite) TestCreateDraft_UnknownVoucherType() {
	_, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("nope", "1", "1"), testUser)
	suite.requireCode(err, apperrors.CodeNotFound)
}

func (suite *PostingServiceTestSuite) TestPostPayload_Balanced() {
	result, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "100", "100"), "", testUser)
	suite.Require().NoError(err)
	suite.False(result.Deferred)
	suite.Equal(domain.Posted, result.Journal.Status)
	suite.Equal("JV-000001", result.Journal.VoucherNumber)
	suite.Require().NotNil(result.Journal.PeriodID)
	suite.Equal("2024-07", *result.Journal.PeriodID)

	postings := suite.store.LedgerPostings(result.Journal.JournalID)
	suite.Require().Len(postings, 2)
	suite.True(postings[0].Amount.Equal(decimal.NewFromInt(100)))
	suite.True(postings[1].Amount.Equal(decimal.NewFromInt(-100)))

	events := suite.store.Events()
	suite.Require().Len(events, 1)
	suite.Equal(domain.EventJournalPosted, events[0].EventType)
	suite.Equal(domain.OutboxPending, events[0].Status)
}

func (suite *PostingServiceTestSuite) TestPostPayload_NumbersAreDenseAndPerType() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "1", "1"), "", testUser)
		suite.Require().NoError(err)
	}
	result, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "1", "1"), "", testUser)
	suite.Require().NoError(err)
	suite.Equal("JV-000004", result.Journal.VoucherNumber)

	suite.queue.On("Enqueue", mock.Anything, mock.Anything).Return("task-1", nil).Maybe()
	si, err := services.NewPostingService(suite.store, suite.resolver, services.WithTaskQueue(suite.queue)).
		PostPayload(suite.ctx, testOrg, suite.payload("sales-invoice", "1", "1"), "", testUser)
	suite.Require().NoError(err)
	suite.Equal("SI-000001", si.Journal.VoucherNumber)
}

func (suite *PostingServiceTestSuite) TestPostPayload_UnbalancedPersistsNothing() {
	_, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "100", "90"), "", testUser)
	suite.requireCode(err, apperrors.CodeImbalanced)
	suite.True(errors.Is(err, apperrors.ErrImbalanced))
	suite.Equal(0, suite.store.JournalCount(testOrg))
	suite.Empty(suite.store.Events())
}

func (suite *PostingServiceTestSuite) TestPostPayload_PeriodClosedPersistsNothing() {
	p := suite.payload("journal", "10", "10")
	p.Header["date"] = "2024-08-02"

	_, err := suite.service.PostPayload(suite.ctx, testOrg, p, "", testUser)
	suite.requireCode(err, apperrors.CodePeriodClosed)
	suite.Equal(0, suite.store.JournalCount(testOrg))

	suite.store.SetPeriodStatus("2024-07", domain.PeriodClosed)
	_, err = suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "", testUser)
	suite.requireCode(err, apperrors.CodePeriodClosed)
	suite.Equal(0, suite.store.JournalCount(testOrg))

	// a closed period does not block drafts
	_, err = suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "10", "10"), testUser)
	suite.NoError(err)
}

func (suite *PostingServiceTestSuite) TestPostPayload_NeedsTwoLines() {
	p := suite.payload("journal", "0", "0")
	p.Lines = []map[string]any{{"account": "1000-Cash", "debit_amount": "5"}}

	_, err := suite.service.PostPayload(suite.ctx, testOrg, p, "", testUser)
	suite.requireCode(err, apperrors.CodeValidation)
}

func (suite *PostingServiceTestSuite) TestPostPayload_ConcurrentNumbersNeverCollide() {
	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "5", "5"), "", testUser)
			if err == nil {
				numbers <- result.Journal.VoucherNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		suite.False(seen[num], "duplicate voucher number %s", num)
		seen[num] = true
	}
	suite.Len(seen, n)
	suite.True(seen["JV-000001"])
	suite.True(seen["JV-000020"])
}

func (suite *PostingServiceTestSuite) TestPostPayload_IdempotentReplay() {
	first, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "key-1", testUser)
	suite.Require().NoError(err)
	suite.False(first.Replayed)

	second, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "key-1", testUser)
	suite.Require().NoError(err)
	suite.True(second.Replayed)
	suite.Equal(first.Journal.JournalID, second.Journal.JournalID)
	suite.Equal(first.Journal.VoucherNumber, second.Journal.VoucherNumber)
	suite.Equal(1, suite.store.JournalCount(testOrg))

	// the payload field is used when no header key is given
	p := suite.payload("journal", "10", "10")
	p.IdempotencyKey = "key-1"
	third, err := suite.service.PostPayload(suite.ctx, testOrg, p, "", testUser)
	suite.Require().NoError(err)
	suite.True(third.Replayed)
	suite.Equal(1, suite.store.JournalCount(testOrg))
}

func (suite *PostingServiceTestSuite) TestPostPayload_InFlightDuplicateRejected() {
	locker := new(MockRequestLocker)
	locker.On("Acquire", mock.Anything, testOrg+":post:key-busy").
		Return(nil, apperrors.NewConflictError("a request with this idempotency key is in progress"))
	svc := services.NewPostingService(suite.store, suite.resolver, services.WithRequestLocker(locker))

	_, err := svc.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "key-busy", testUser)
	suite.requireCode(err, apperrors.CodeConflict)
	suite.Equal(0, suite.store.JournalCount(testOrg))
	locker.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostPayload_LockReleased() {
	released := false
	locker := new(MockRequestLocker)
	locker.On("Acquire", mock.Anything, mock.Anything).Return(func() { released = true }, nil)
	svc := services.NewPostingService(suite.store, suite.resolver, services.WithRequestLocker(locker))

	_, err := svc.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "key-2", testUser)
	suite.Require().NoError(err)
	suite.True(released)
}

func (suite *PostingServiceTestSuite) TestPostPayload_PublishesAfterCommit() {
	suite.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.IntegrationEvent) bool {
		return e.EventType == domain.EventJournalPosted
	})).Return("msg-1", nil).Once()
	svc := services.NewPostingService(suite.store, suite.resolver, services.WithEventPublisher(suite.publisher))

	_, err := svc.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "", testUser)
	suite.Require().NoError(err)

	events := suite.store.Events()
	suite.Require().Len(events, 1)
	suite.Equal(domain.OutboxPublished, events[0].Status)
	suite.Equal("msg-1", events[0].MessageID)
	suite.publisher.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostPayload_PublishFailureLeavesEventPending() {
	suite.publisher.On("Publish", mock.Anything, mock.Anything).Return("", errors.New("broker down"))
	svc := services.NewPostingService(suite.store, suite.resolver, services.WithEventPublisher(suite.publisher))

	result, err := svc.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "", testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, result.Journal.Status)
	suite.Equal(domain.OutboxPending, suite.store.Events()[0].Status)
}

// relayFirstStore runs an outbox relay pass right after the first
// transaction commits, before the service gets to publish.
type relayFirstStore struct {
	*memory.Store
	relay *events.Relay
	ran   bool
}

func (r *relayFirstStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	if err := r.Store.WithinTx(ctx, fn); err != nil {
		return err
	}
	if !r.ran {
		r.ran = true
		_, err := r.relay.DispatchOnce(ctx)
		return err
	}
	return nil
}

func (suite *PostingServiceTestSuite) TestPostPayload_RelayPublishedEventNotRepublished() {
	suite.publisher.On("Publish", mock.Anything, mock.Anything).Return("msg-relay", nil).Once()
	uow := &relayFirstStore{Store: suite.store, relay: events.NewRelay(suite.store, suite.publisher, nil)}
	svc := services.NewPostingService(uow, suite.resolver, services.WithEventPublisher(suite.publisher))

	_, err := svc.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "", testUser)
	suite.Require().NoError(err)
	suite.True(uow.ran)

	published := suite.store.Events()
	suite.Require().Len(published, 1)
	suite.Equal(domain.OutboxPublished, published[0].Status)
	suite.Equal("msg-relay", published[0].MessageID)
	suite.Equal(1, published[0].Attempts)
	suite.publisher.AssertNumberOfCalls(suite.T(), "Publish", 1)
}

func (suite *PostingServiceTestSuite) TestPostPayload_StoredSchemaWithoutDateStillPosts() {
	suite.store.AddConfig(domain.VoucherTypeConfig{
		ID: "cfg-rc", OrganizationID: testOrg, Code: "receipt", Name: "Receipt",
		NumberPrefix: "RC", IsActive: true, Version: 1,
		SchemaDefinition: `{"header": {"memo": "char"}, "lines": {"account": {"type": "fk", "target": "account", "required": true}}}`,
	})

	result, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("receipt", "15", "15"), "", testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, result.Journal.Status)
	suite.Equal("RC-000001", result.Journal.VoucherNumber)
	suite.True(result.Journal.TotalDebit.Equal(decimal.NewFromInt(15)))
}

func (suite *PostingServiceTestSuite) TestPostPayload_StoredSchemaWithMistypedDateIsConfigurationError() {
	suite.store.AddConfig(domain.VoucherTypeConfig{
		ID: "cfg-rc", OrganizationID: testOrg, Code: "receipt", Name: "Receipt",
		NumberPrefix: "RC", IsActive: true, Version: 1,
		SchemaDefinition: `{"header": {"date": "char"}, "lines": {"account": "fk"}}`,
	})

	_, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("receipt", "15", "15"), "", testUser)
	suite.requireCode(err, apperrors.CodeConfiguration)
	suite.Equal(0, suite.store.JournalCount(testOrg))
}

func (suite *PostingServiceTestSuite) TestPostPayload_EnqueuesEBilling() {
	suite.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(t portssvc.AsyncTask) bool {
		return t.Name == services.EBillingTaskName && t.Payload["voucher_number"] == "SI-000001"
	})).Return("task-9", nil).Once()
	svc := services.NewPostingService(suite.store, suite.resolver, services.WithTaskQueue(suite.queue))

	_, err := svc.PostPayload(suite.ctx, testOrg, suite.payload("sales-invoice", "10", "10"), "", testUser)
	suite.Require().NoError(err)

	_, err = svc.PostPayload(suite.ctx, testOrg, suite.payload("journal", "10", "10"), "", testUser)
	suite.Require().NoError(err)
	suite.queue.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestSubmitAndPost() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "25", "25"), testUser)
	suite.Require().NoError(err)
	id := draft.Journal.JournalID

	submitted, err := suite.service.Submit(suite.ctx, testOrg, id, &draft.Journal.LastUpdatedAt, "", testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.Submitted, submitted.Journal.Status)
	suite.Nil(submitted.Task)

	posted, err := suite.service.Post(suite.ctx, testOrg, id, nil, "", testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, posted.Journal.Status)
	suite.Equal("JV-000001", posted.Journal.VoucherNumber)

	_, err = suite.service.Post(suite.ctx, testOrg, id, nil, "", testUser)
	suite.requireCode(err, apperrors.CodeInvalidState)
}

func (suite *PostingServiceTestSuite) TestSubmit_UnbalancedStaysDraft() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "25", "20"), testUser)
	suite.Require().NoError(err)

	_, err = suite.service.Submit(suite.ctx, testOrg, draft.Journal.JournalID, nil, "", testUser)
	suite.requireCode(err, apperrors.CodeImbalanced)

	j, err := suite.service.GetJournal(suite.ctx, testOrg, draft.Journal.JournalID)
	suite.Require().NoError(err)
	suite.Equal(domain.Draft, j.Status)
}

func (suite *PostingServiceTestSuite) TestUpdateDraft_StaleTimestampConflicts() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "25", "25"), testUser)
	suite.Require().NoError(err)

	update := dto.UpdateVoucherRequest{
		Header:        map[string]any{"date": "2024-07-20"},
		Lines:         suite.payload("journal", "40", "40").Lines,
		LastUpdatedAt: draft.Journal.LastUpdatedAt,
	}
	updated, err := suite.service.UpdateDraft(suite.ctx, testOrg, draft.Journal.JournalID, update, testUser)
	suite.Require().NoError(err)
	suite.True(updated.Journal.TotalDebit.Equal(decimal.NewFromInt(40)))
	suite.Equal(1, updated.Journal.Lines[0].LineNumber)

	update.LastUpdatedAt = draft.Journal.LastUpdatedAt.Add(-time.Second)
	update.Lines = suite.payload("journal", "99", "99").Lines
	_, err = suite.service.UpdateDraft(suite.ctx, testOrg, draft.Journal.JournalID, update, testUser)
	suite.requireCode(err, apperrors.CodeConflict)

	j, err := suite.service.GetJournal(suite.ctx, testOrg, draft.Journal.JournalID)
	suite.Require().NoError(err)
	suite.True(j.TotalDebit.Equal(decimal.NewFromInt(40)))
}

func (suite *PostingServiceTestSuite) TestUpdateDraft_PostedIsNotEditable() {
	posted, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "5", "5"), "", testUser)
	suite.Require().NoError(err)

	_, err = suite.service.UpdateDraft(suite.ctx, testOrg, posted.Journal.JournalID, dto.UpdateVoucherRequest{
		Header:        map[string]any{"date": "2024-07-20"},
		Lines:         suite.payload("journal", "6", "6").Lines,
		LastUpdatedAt: posted.Journal.LastUpdatedAt,
	}, testUser)
	suite.requireCode(err, apperrors.CodeInvalidState)
}

func (suite *PostingServiceTestSuite) TestCancel() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "1", "1"), testUser)
	suite.Require().NoError(err)

	_, err = suite.service.Cancel(suite.ctx, testOrg, draft.Journal.JournalID, nil, testUser)
	suite.Require().NoError(err)
	j, err := suite.service.GetJournal(suite.ctx, testOrg, draft.Journal.JournalID)
	suite.Require().NoError(err)
	suite.Equal(domain.Cancelled, j.Status)

	_, err = suite.service.Cancel(suite.ctx, testOrg, draft.Journal.JournalID, nil, testUser)
	suite.requireCode(err, apperrors.CodeInvalidState)
}

func (suite *PostingServiceTestSuite) TestReverse() {
	posted, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "70", "70"), "", testUser)
	suite.Require().NoError(err)
	originalID := posted.Journal.JournalID

	reversal, err := suite.service.Reverse(suite.ctx, testOrg, originalID, nil, testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, reversal.Journal.Status)
	suite.Equal("JV-000002", reversal.Journal.VoucherNumber)
	suite.Require().NotNil(reversal.Journal.OriginalJournalID)
	suite.Equal(originalID, *reversal.Journal.OriginalJournalID)

	postings := suite.store.LedgerPostings(reversal.Journal.JournalID)
	suite.Require().Len(postings, 2)
	suite.True(postings[0].Credit.Equal(decimal.NewFromInt(70)))
	suite.True(postings[0].Amount.Equal(decimal.NewFromInt(-70)))

	original, err := suite.service.GetJournal(suite.ctx, testOrg, originalID)
	suite.Require().NoError(err)
	suite.Equal(domain.Reversed, original.Status)
	suite.Equal(reversal.Journal.JournalID, *original.ReversingJournalID)

	_, err = suite.service.Reverse(suite.ctx, testOrg, originalID, nil, testUser)
	suite.requireCode(err, apperrors.CodeInvalidState)
	_, err = suite.service.Reverse(suite.ctx, testOrg, reversal.Journal.JournalID, nil, testUser)
	suite.requireCode(err, apperrors.CodeInvalidState)

	var types []string
	for _, e := range suite.store.Events() {
		types = append(types, e.EventType)
	}
	suite.Equal([]string{domain.EventJournalPosted, domain.EventJournalPosted, domain.EventJournalReversed}, types)
}

func (suite *PostingServiceTestSuite) TestReverse_ClosedPeriodRejected() {
	posted, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "70", "70"), "", testUser)
	suite.Require().NoError(err)

	date := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err = suite.service.Reverse(suite.ctx, testOrg, posted.Journal.JournalID, &date, testUser)
	suite.requireCode(err, apperrors.CodePeriodClosed)

	original, err := suite.service.GetJournal(suite.ctx, testOrg, posted.Journal.JournalID)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, original.Status)
}

func (suite *PostingServiceTestSuite) TestListJournals_PagesAndFilters() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "1", "1"), testUser)
		suite.Require().NoError(err)
	}
	_, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("journal", "1", "1"), "", testUser)
	suite.Require().NoError(err)

	page, err := suite.service.ListJournals(suite.ctx, testOrg, dto.ListVouchersParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Len(page.Vouchers, 2)
	suite.Require().NotNil(page.NextToken)

	rest, err := suite.service.ListJournals(suite.ctx, testOrg, dto.ListVouchersParams{Limit: 2, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Len(rest.Vouchers, 2)
	suite.Nil(rest.NextToken)

	posted, err := suite.service.ListJournals(suite.ctx, testOrg, dto.ListVouchersParams{Status: string(domain.Posted)})
	suite.Require().NoError(err)
	suite.Len(posted.Vouchers, 1)

	other, err := suite.service.ListJournals(suite.ctx, "org-2", dto.ListVouchersParams{})
	suite.Require().NoError(err)
	suite.Empty(other.Vouchers)
}

func (suite *PostingServiceTestSuite) TestGetJournal_OtherOrganizationNotFound() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "1", "1"), testUser)
	suite.Require().NoError(err)

	_, err = suite.service.GetJournal(suite.ctx, "org-2", draft.Journal.JournalID)
	suite.requireCode(err, apperrors.CodeNotFound)
}

// --- Run Test Suite ---
func TestPostingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}

var _ portsrepo.UnitOfWork = (*memory.Store)(nil)
