package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/forms"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/summary"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	minJournalLines  = 2

	// EBillingTaskName is the queue task submitted after posting an e-billing voucher type.
	EBillingTaskName = "ebilling.submit"
)

// Line keys consumed by JournalLine columns; everything else is a line UDF.
var knownLineFields = []string{
	forms.FieldAccount, forms.FieldDescription, forms.FieldDebitAmount, forms.FieldCreditAmount,
	forms.FieldQuantity, forms.FieldCostCenter, forms.FieldProject, forms.FieldTaxCode,
}

// postingService implements the voucher lifecycle: drafts, submission,
// posting, cancellation, reversal and approval decisions.
type postingService struct {
	BaseService
	uow       portsrepo.UnitOfWork
	resolver  *schema.Resolver
	publisher portssvc.EventPublisher
	queue     portssvc.TaskQueue
	locker    portssvc.RequestLocker
}

// PostingOption is a functional option for configuring the posting service
type PostingOption func(*postingService)

// WithEventPublisher publishes outbox events right after commit. Without a
// publisher events wait for the outbox relay.
func WithEventPublisher(p portssvc.EventPublisher) PostingOption {
	return func(s *postingService) {
		s.publisher = p
	}
}

// WithTaskQueue enables e-billing submissions after posting.
func WithTaskQueue(q portssvc.TaskQueue) PostingOption {
	return func(s *postingService) {
		s.queue = q
	}
}

// WithRequestLocker rejects concurrent requests sharing an idempotency key.
func WithRequestLocker(l portssvc.RequestLocker) PostingOption {
	return func(s *postingService) {
		s.locker = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) PostingOption {
	return func(s *postingService) {
		s.now = now
	}
}

// NewPostingService creates the posting service with the provided options
func NewPostingService(uow portsrepo.UnitOfWork, resolver *schema.Resolver, options ...PostingOption) portssvc.PostingSvcFacade {
	svc := &postingService{
		BaseService: newBaseService(),
		uow:         uow,
		resolver:    resolver,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure postingService implements the PostingSvcFacade interface
var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// preparedVoucher is a validated submission ready to be copied onto a journal.
type preparedVoucher struct {
	date        time.Time
	reference   string
	description string
	headerUDFs  map[string]any
	lines       []domain.JournalLine
	summary     summary.Summary
	warnings    []string
}

// prepare resolves the schema, validates header and lines and computes the
// summary. Lines are numbered 1..n in submission order, skipping blank and
// deleted rows.
func (s *postingService) prepare(ctx context.Context, orgID string, cfg *domain.VoucherTypeConfig, header map[string]any, rows []map[string]any, charges []dto.ChargeInput) (*preparedVoucher, error) {
	res, err := s.resolver.Resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}
	metrics.SchemaResolutions.WithLabelValues(sourceLabel(res.Source)).Inc()
	for _, w := range res.Warnings {
		s.GetLogger(ctx).Warn("Schema resolution warning", slog.String("voucher_type", cfg.Code), slog.String("warning", w))
	}

	overrides := forms.OverridesFor(cfg)
	refs := s.uow.References()
	headerValues, headerErrs, err := forms.BuildHeaderContract(res.Schema, overrides, refs).Validate(ctx, orgID, header)
	if err != nil {
		return nil, fmt.Errorf("failed to validate header: %w", err)
	}
	lineRows, lineErrs, err := forms.BuildLineContract(res.Schema, overrides, refs).Validate(ctx, orgID, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to validate lines: %w", err)
	}

	errs := apperrors.FieldErrors{}
	errs.Merge(headerErrs)
	errs.Merge(lineErrs)
	date, ok := headerValues.Date(forms.FieldDate)
	if !ok && len(errs[forms.FieldDate]) == 0 {
		errs.Add(forms.FieldDate, "This field is required.")
	}
	if len(errs) > 0 {
		return nil, apperrors.NewValidationError(errs)
	}

	p := &preparedVoucher{
		date:        date,
		reference:   headerValues.String(forms.FieldReference),
		description: headerValues.String(forms.FieldDescription),
		headerUDFs:  headerValues.Rest(forms.FieldDate, forms.FieldReference, forms.FieldDescription),
		lines:       make([]domain.JournalLine, len(lineRows)),
		warnings:    res.Warnings,
	}
	sumLines := make([]summary.Line, len(lineRows))
	for i, row := range lineRows {
		v := row.Values
		p.lines[i] = domain.JournalLine{
			LineID:       s.newID(),
			LineNumber:   i + 1,
			AccountCode:  v.String(forms.FieldAccount),
			Description:  v.String(forms.FieldDescription),
			DebitAmount:  v.Decimal(forms.FieldDebitAmount),
			CreditAmount: v.Decimal(forms.FieldCreditAmount),
			Quantity:     v.Decimal(forms.FieldQuantity),
			CostCenter:   v.String(forms.FieldCostCenter),
			Project:      v.String(forms.FieldProject),
			TaxCode:      v.String(forms.FieldTaxCode),
			UDFs:         v.Rest(knownLineFields...),
		}
		sumLines[i] = summary.Line{Debit: p.lines[i].DebitAmount, Credit: p.lines[i].CreditAmount, Quantity: p.lines[i].Quantity}
	}
	sumCharges := make([]summary.Charge, len(charges))
	for i, c := range charges {
		sumCharges[i] = summary.Charge{Name: c.Name, Amount: c.Amount, Deleted: c.Delete}
	}
	p.summary = summary.Compute(sumLines, sumCharges)
	return p, nil
}

func sourceLabel(source string) string {
	if source == schema.SourceStored || source == schema.SourceMinimal {
		return source
	}
	return "file"
}

// apply copies a prepared submission onto j, replacing its lines.
func (p *preparedVoucher) apply(j *domain.Journal) {
	j.JournalDate = p.date
	j.Reference = p.reference
	j.Description = p.description
	j.HeaderUDFs = p.headerUDFs
	j.Lines = make([]domain.JournalLine, len(p.lines))
	for i, l := range p.lines {
		l.JournalID = j.JournalID
		j.Lines[i] = l
	}
	j.TotalDebit = p.summary.TotalDebit
	j.TotalCredit = p.summary.TotalCredit
	j.IsBalanced = p.summary.IsBalanced()
}

func (s *postingService) newJournal(orgID string, cfg *domain.VoucherTypeConfig, p *preparedVoucher, userID string, now time.Time) *domain.Journal {
	j := &domain.Journal{
		JournalID:       s.newID(),
		OrganizationID:  orgID,
		VoucherConfigID: cfg.ID,
		VoucherType:     cfg.Code,
		JournalTypeCode: cfg.JournalTypeCode,
		Status:          domain.Draft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	p.apply(j)
	return j
}

// requirePostable enforces the line-count and balance rules of submission and posting.
func requirePostable(j *domain.Journal) error {
	if len(j.Lines) < minJournalLines {
		return apperrors.NewValidationError(apperrors.FieldErrors{
			forms.NonFieldErrors: {fmt.Sprintf("A voucher needs at least %d lines.", minJournalLines)},
		})
	}
	if !j.TotalDebit.Equal(j.TotalCredit) {
		return apperrors.NewImbalancedError(j.TotalDebit.String(), j.TotalCredit.String())
	}
	return nil
}

// checkFresh rejects a request made against an outdated copy of the journal.
func checkFresh(j *domain.Journal, expected *time.Time) error {
	if expected != nil && !j.LastUpdatedAt.Equal(*expected) {
		return apperrors.NewConflictError("voucher was modified by another request; reload and retry")
	}
	return nil
}

func loadConfig(ctx context.Context, store portsrepo.Store, orgID, code string, requireActive bool) (*domain.VoucherTypeConfig, error) {
	cfg, err := store.VoucherConfigs().FindConfigByCode(ctx, orgID, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("voucher type %q not found", code))
		}
		return nil, fmt.Errorf("failed to load voucher type %q: %w", code, err)
	}
	if requireActive && !cfg.IsActive {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("voucher type %q is inactive", code))
	}
	return cfg, nil
}

func findJournal(ctx context.Context, store portsrepo.Store, orgID, journalID string, forUpdate bool) (*domain.Journal, error) {
	var j *domain.Journal
	var err error
	if forUpdate {
		j, err = store.Journals().FindJournalByIDForUpdate(ctx, orgID, journalID)
	} else {
		j, err = store.Journals().FindJournalByID(ctx, orgID, journalID)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("voucher %s not found", journalID))
		}
		return nil, fmt.Errorf("failed to load voucher %s: %w", journalID, err)
	}
	return j, nil
}

func openPeriod(ctx context.Context, store portsrepo.Store, orgID string, date time.Time) (*domain.AccountingPeriod, error) {
	period, err := store.Periods().FindOpenPeriod(ctx, orgID, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewPeriodClosedError(date.Format(domain.DateLayout))
		}
		return nil, fmt.Errorf("failed to look up accounting period: %w", err)
	}
	return period, nil
}

// openTask returns the journal's pending approval task, creating it when none exists.
func (s *postingService) openTask(ctx context.Context, tx portsrepo.Store, j *domain.Journal, cfg *domain.VoucherTypeConfig, userID string, now time.Time) (*domain.ApprovalTask, error) {
	task, err := tx.Approvals().FindPendingTask(ctx, j.OrganizationID, j.JournalID)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up approval task: %w", err)
	}
	created := domain.NewApprovalTask(s.newID(), j, cfg.Approval.TotalSteps(), userID, now)
	if err := tx.Approvals().SaveTask(ctx, &created); err != nil {
		return nil, fmt.Errorf("failed to save approval task: %w", err)
	}
	return &created, nil
}

// checkNoPendingTask fails with an approval-pending error when j already
// waits on an open task; only an approval can post it then.
func checkNoPendingTask(ctx context.Context, tx portsrepo.Store, j *domain.Journal) error {
	task, err := tx.Approvals().FindPendingTask(ctx, j.OrganizationID, j.JournalID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up approval task: %w", err)
	}
	return apperrors.NewApprovalPendingError(task.TaskID, task.CurrentStep, task.TotalSteps)
}

// post issues the voucher number, marks j POSTED, persists it through
// persist and writes one ledger posting per line plus the posted event.
func (s *postingService) post(ctx context.Context, tx portsrepo.Store, j *domain.Journal, cfg *domain.VoucherTypeConfig, period *domain.AccountingPeriod, userID string, now time.Time, persist func(*domain.Journal) error) ([]domain.IntegrationEvent, error) {
	if !domain.CanTransition(j.Status, domain.Posted) {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("voucher is %s and cannot be posted", j.Status))
	}

	n, err := tx.Sequences().NextValue(ctx, domain.VoucherNumberScope(j.OrganizationID, cfg.Code))
	if err != nil {
		return nil, apperrors.NewSequenceError(err)
	}
	postedBy, postedAt, periodID := userID, now, period.PeriodID
	j.SequenceNumber = n
	j.VoucherNumber = domain.FormatVoucherNumber(cfg.Prefix(), n)
	j.Status = domain.Posted
	j.PeriodID = &periodID
	j.PostedBy = &postedBy
	j.PostedAt = &postedAt
	j.Touch(userID, now)
	if err := persist(j); err != nil {
		return nil, fmt.Errorf("failed to save posted voucher: %w", err)
	}

	postings := make([]domain.LedgerPosting, len(j.Lines))
	for i, l := range j.Lines {
		postings[i] = domain.LedgerPosting{
			PostingID:      s.newID(),
			OrganizationID: j.OrganizationID,
			JournalID:      j.JournalID,
			LineNumber:     l.LineNumber,
			AccountCode:    l.AccountCode,
			Debit:          l.DebitAmount,
			Credit:         l.CreditAmount,
			Amount:         l.SignedAmount(),
			PeriodID:       periodID,
			PostingDate:    j.JournalDate,
			CreatedAt:      now,
		}
	}
	if err := tx.Journals().SaveLedgerPostings(ctx, postings); err != nil {
		return nil, fmt.Errorf("failed to write ledger postings: %w", err)
	}

	event, err := domain.NewJournalEvent(s.newID(), domain.EventJournalPosted, j, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build posted event: %w", err)
	}
	if err := tx.Outbox().SaveEvents(ctx, []domain.IntegrationEvent{event}); err != nil {
		return nil, fmt.Errorf("failed to write outbox event: %w", err)
	}
	return []domain.IntegrationEvent{event}, nil
}

// afterCommit publishes the committed events and enqueues the e-billing
// submission. Failures are logged only: the outbox relay retries events.
func (s *postingService) afterCommit(ctx context.Context, cfg *domain.VoucherTypeConfig, j *domain.Journal, events []domain.IntegrationEvent) {
	logger := s.GetLogger(ctx)
	if s.publisher != nil {
		for _, ev := range events {
			if err := s.publishEvent(ctx, ev.EventID); err != nil {
				metrics.OutboxEvents.WithLabelValues("failed").Inc()
				logger.Warn("Event publish failed, left for outbox relay", slog.String("event_id", ev.EventID), slog.String("error", err.Error()))
			}
		}
	}

	if !cfg.EBillingEnabled || s.queue == nil || j.Status != domain.Posted || j.IsReversal() {
		return
	}
	taskID, err := s.queue.Enqueue(ctx, portssvc.AsyncTask{
		TaskID:         s.newID(),
		Name:           EBillingTaskName,
		OrganizationID: j.OrganizationID,
		Payload: map[string]any{
			"journal_id":     j.JournalID,
			"voucher_number": j.VoucherNumber,
			"voucher_type":   j.VoucherType,
		},
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to enqueue e-billing submission", slog.String("journal_id", j.JournalID))
		return
	}
	logger.Info("E-billing submission enqueued", slog.String("journal_id", j.JournalID), slog.String("task_id", taskID))
}

// publishEvent claims one pending event, publishes it and marks it published
// in a single short transaction. An event a relay pass already holds or
// published is skipped.
func (s *postingService) publishEvent(ctx context.Context, eventID string) error {
	published := false
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		ev, err := tx.Outbox().ClaimEvent(ctx, eventID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		msgID, err := s.publisher.Publish(ctx, *ev)
		if err != nil {
			return err
		}
		published = true
		return tx.Outbox().MarkPublished(ctx, eventID, msgID, s.Now())
	})
	if err == nil && published {
		metrics.OutboxEvents.WithLabelValues("published").Inc()
	}
	return err
}

// replay returns the recorded result of a keyed request, or nil when the key is new.
func (s *postingService) replay(ctx context.Context, orgID, op, key string) (*dto.PostingResult, error) {
	if key == "" {
		return nil, nil
	}
	rec, err := s.uow.Idempotency().FindRecord(ctx, orgID, op, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	j, err := findJournal(ctx, s.uow, orgID, rec.JournalID, false)
	if err != nil {
		return nil, err
	}
	// Deferred reflects the journal now: a deferred post that has since been
	// approved replays as posted.
	result := &dto.PostingResult{Journal: j, Replayed: true}
	if rec.Deferred {
		if task, err := s.uow.Approvals().FindLatestTask(ctx, orgID, j.JournalID); err == nil {
			result.Task = task
			result.Deferred = task.Status == domain.ApprovalPending
		}
	}
	s.LogInfo(ctx, "Idempotent request replayed", slog.String("operation", op), slog.String("journal_id", j.JournalID))
	return result, nil
}

// keyed runs an idempotent operation. A recorded result is returned as is;
// otherwise run executes while holding the in-flight lock for the key. When a
// concurrent request records the key first, its result is returned instead.
func (s *postingService) keyed(ctx context.Context, orgID, op, key string, run func() (*dto.PostingResult, error)) (*dto.PostingResult, error) {
	if prior, err := s.replay(ctx, orgID, op, key); err != nil || prior != nil {
		return prior, err
	}
	if key == "" || s.locker == nil {
		return s.runKeyed(ctx, orgID, op, key, run)
	}

	release, err := s.locker.Acquire(ctx, strings.Join([]string{orgID, op, key}, ":"))
	if err != nil {
		return nil, err
	}
	defer release()
	if prior, err := s.replay(ctx, orgID, op, key); err != nil || prior != nil {
		return prior, err
	}
	return s.runKeyed(ctx, orgID, op, key, run)
}

func (s *postingService) runKeyed(ctx context.Context, orgID, op, key string, run func() (*dto.PostingResult, error)) (*dto.PostingResult, error) {
	result, err := run()
	if err != nil && key != "" && errors.Is(err, apperrors.ErrDuplicate) {
		if prior, rerr := s.replay(ctx, orgID, op, key); rerr == nil && prior != nil {
			return prior, nil
		}
	}
	return result, err
}

func saveRecord(ctx context.Context, tx portsrepo.Store, orgID, op, key, journalID string, deferred bool, now time.Time) error {
	if key == "" {
		return nil
	}
	return tx.Idempotency().SaveRecord(ctx, domain.IdempotencyRecord{
		OrganizationID: orgID,
		Operation:      op,
		Key:            key,
		JournalID:      journalID,
		Deferred:       deferred,
		CreatedAt:      now,
	})
}

func observe(op string, result *dto.PostingResult, err error) {
	switch {
	case err != nil:
		metrics.VoucherOperations.WithLabelValues(op, metrics.OutcomeFailed).Inc()
		metrics.VoucherErrors.WithLabelValues(op, apperrors.Classify(err).Code).Inc()
	case result == nil:
	case result.Replayed:
		metrics.VoucherOperations.WithLabelValues(op, metrics.OutcomeReplayed).Inc()
	case result.Deferred:
		metrics.VoucherOperations.WithLabelValues(op, metrics.OutcomeDeferred).Inc()
	default:
		metrics.VoucherOperations.WithLabelValues(op, metrics.OutcomeOK).Inc()
	}
}

// GetJournal retrieves a journal with its lines.
func (s *postingService) GetJournal(ctx context.Context, orgID, journalID string) (*domain.Journal, error) {
	return findJournal(ctx, s.uow, orgID, journalID, false)
}

// ListJournals retrieves a page of journals.
func (s *postingService) ListJournals(ctx context.Context, orgID string, params dto.ListVouchersParams) (*dto.ListVouchersResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	filter := portsrepo.JournalFilter{Status: domain.JournalStatus(params.Status), VoucherType: params.VoucherType}

	journals, nextToken, err := s.uow.Journals().ListJournals(ctx, orgID, filter, limit, params.NextToken)
	if errors.Is(err, apperrors.ErrValidation) {
		return nil, apperrors.NewValidationError(apperrors.FieldErrors{"nextToken": {"Invalid page token."}})
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to list vouchers", slog.String("organization_id", orgID))
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	if journals == nil {
		journals = []domain.Journal{}
	}
	return &dto.ListVouchersResponse{Vouchers: journals, NextToken: nextToken}, nil
}

// CreateDraft validates a payload and stores it as a DRAFT journal.
func (s *postingService) CreateDraft(ctx context.Context, orgID string, payload dto.VoucherPayload, userID string) (result *dto.PostingResult, err error) {
	defer func() { observe(domain.OperationCreate, result, err) }()
	key := strings.TrimSpace(payload.IdempotencyKey)

	return s.keyed(ctx, orgID, domain.OperationCreate, key, func() (*dto.PostingResult, error) {
		cfg, err := loadConfig(ctx, s.uow, orgID, payload.VoucherType, true)
		if err != nil {
			return nil, err
		}
		p, err := s.prepare(ctx, orgID, cfg, payload.Header, payload.Lines, payload.Charges)
		if err != nil {
			return nil, err
		}

		now := s.Now()
		j := s.newJournal(orgID, cfg, p, userID, now)
		err = s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
			if err := tx.Journals().SaveJournal(ctx, j); err != nil {
				return fmt.Errorf("failed to save voucher: %w", err)
			}
			return saveRecord(ctx, tx, orgID, domain.OperationCreate, key, j.JournalID, false, now)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to create voucher draft", slog.String("voucher_type", cfg.Code))
			return nil, err
		}

		s.LogInfo(ctx, "Voucher draft created", slog.String("journal_id", j.JournalID), slog.String("voucher_type", cfg.Code), slog.Bool("balanced", j.IsBalanced))
		return &dto.PostingResult{Journal: j, Summary: &p.summary, Warnings: p.warnings}, nil
	})
}

// UpdateDraft replaces the header and lines of an editable journal.
func (s *postingService) UpdateDraft(ctx context.Context, orgID, journalID string, req dto.UpdateVoucherRequest, userID string) (*dto.PostingResult, error) {
	existing, err := findJournal(ctx, s.uow, orgID, journalID, false)
	if err != nil {
		return nil, err
	}
	if !existing.IsEditable() {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("voucher is %s and can no longer be edited", existing.Status))
	}
	cfg, err := loadConfig(ctx, s.uow, orgID, existing.VoucherType, true)
	if err != nil {
		return nil, err
	}
	p, err := s.prepare(ctx, orgID, cfg, req.Header, req.Lines, req.Charges)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var updated *domain.Journal
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		j, err := findJournal(ctx, tx, orgID, journalID, true)
		if err != nil {
			return err
		}
		if err := checkFresh(j, &req.LastUpdatedAt); err != nil {
			return err
		}
		if !j.IsEditable() {
			return apperrors.NewInvalidStateError(fmt.Sprintf("voucher is %s and can no longer be edited", j.Status))
		}

		expected := j.LastUpdatedAt
		p.apply(j)
		if j.Status == domain.Submitted {
			// a submitted voucher must stay postable
			if err := requirePostable(j); err != nil {
				return err
			}
		}
		j.Touch(userID, now)
		if err := tx.Journals().UpdateJournal(ctx, j, expected); err != nil {
			return fmt.Errorf("failed to update voucher: %w", err)
		}
		updated = j
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update voucher", slog.String("journal_id", journalID))
		return nil, err
	}

	s.LogInfo(ctx, "Voucher updated", slog.String("journal_id", journalID), slog.Int("lines", len(updated.Lines)))
	return &dto.PostingResult{Journal: updated, Summary: &p.summary, Warnings: p.warnings}, nil
}

// Submit moves a balanced DRAFT to SUBMITTED.
func (s *postingService) Submit(ctx context.Context, orgID, journalID string, expectedUpdatedAt *time.Time, idemKey, userID string) (result *dto.PostingResult, err error) {
	defer func() { observe(domain.OperationSubmit, result, err) }()
	key := strings.TrimSpace(idemKey)

	return s.keyed(ctx, orgID, domain.OperationSubmit, key, func() (*dto.PostingResult, error) {
		now := s.Now()
		res := &dto.PostingResult{}
		err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
			j, err := findJournal(ctx, tx, orgID, journalID, true)
			if err != nil {
				return err
			}
			if err := checkFresh(j, expectedUpdatedAt); err != nil {
				return err
			}
			if j.Status != domain.Draft {
				return apperrors.NewInvalidStateError(fmt.Sprintf("only DRAFT vouchers can be submitted; voucher is %s", j.Status))
			}
			if err := requirePostable(j); err != nil {
				return err
			}
			cfg, err := loadConfig(ctx, tx, orgID, j.VoucherType, true)
			if err != nil {
				return err
			}

			expected := j.LastUpdatedAt
			j.Status = domain.Submitted
			j.RejectionNotes = ""
			j.Touch(userID, now)
			if cfg.RequiresApproval() {
				if res.Task, err = s.openTask(ctx, tx, j, cfg, userID, now); err != nil {
					return err
				}
			}
			if err := tx.Journals().UpdateJournal(ctx, j, expected); err != nil {
				return fmt.Errorf("failed to update voucher: %w", err)
			}
			res.Journal = j
			return saveRecord(ctx, tx, orgID, domain.OperationSubmit, key, j.JournalID, false, now)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to submit voucher", slog.String("journal_id", journalID))
			return nil, err
		}
		s.LogInfo(ctx, "Voucher submitted", slog.String("journal_id", journalID), slog.Bool("approval_required", res.Task != nil))
		return res, nil
	})
}

// Post posts a stored journal or defers it to approval.
func (s *postingService) Post(ctx context.Context, orgID, journalID string, expectedUpdatedAt *time.Time, idemKey, userID string) (result *dto.PostingResult, err error) {
	defer func() { observe(domain.OperationPost, result, err) }()
	key := strings.TrimSpace(idemKey)

	return s.keyed(ctx, orgID, domain.OperationPost, key, func() (*dto.PostingResult, error) {
		start := time.Now()
		now := s.Now()
		res := &dto.PostingResult{}
		var cfg *domain.VoucherTypeConfig
		var events []domain.IntegrationEvent

		err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
			j, err := findJournal(ctx, tx, orgID, journalID, true)
			if err != nil {
				return err
			}
			if err := checkFresh(j, expectedUpdatedAt); err != nil {
				return err
			}
			if !domain.CanTransition(j.Status, domain.Posted) {
				return apperrors.NewInvalidStateError(fmt.Sprintf("voucher is %s and cannot be posted", j.Status))
			}
			if cfg, err = loadConfig(ctx, tx, orgID, j.VoucherType, true); err != nil {
				return err
			}
			if err := requirePostable(j); err != nil {
				return err
			}
			period, err := openPeriod(ctx, tx, orgID, j.JournalDate)
			if err != nil {
				return err
			}

			expected := j.LastUpdatedAt
			res.Journal = j
			if cfg.RequiresApproval() && j.Status != domain.Approved {
				if err := checkNoPendingTask(ctx, tx, j); err != nil {
					return err
				}
				if res.Task, err = s.openTask(ctx, tx, j, cfg, userID, now); err != nil {
					return err
				}
				if j.Status == domain.Draft {
					j.Status = domain.Submitted
					j.Touch(userID, now)
					if err := tx.Journals().UpdateJournal(ctx, j, expected); err != nil {
						return fmt.Errorf("failed to update voucher: %w", err)
					}
				}
				res.Deferred = true
				return saveRecord(ctx, tx, orgID, domain.OperationPost, key, j.JournalID, true, now)
			}

			events, err = s.post(ctx, tx, j, cfg, period, userID, now, func(j *domain.Journal) error {
				return tx.Journals().UpdateJournal(ctx, j, expected)
			})
			if err != nil {
				return err
			}
			return saveRecord(ctx, tx, orgID, domain.OperationPost, key, j.JournalID, false, now)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to post voucher", slog.String("journal_id", journalID))
			return nil, err
		}

		if res.Deferred {
			s.LogInfo(ctx, "Voucher posting deferred to approval", slog.String("journal_id", journalID), slog.String("task_id", res.Task.TaskID))
			return res, nil
		}
		metrics.PostingDuration.Observe(time.Since(start).Seconds())
		s.LogInfo(ctx, "Voucher posted", slog.String("journal_id", journalID), slog.String("voucher_number", res.Journal.VoucherNumber))
		s.afterCommit(ctx, cfg, res.Journal, events)
		return res, nil
	})
}

// PostPayload validates a payload and posts it without a prior draft.
// Validation, balance and period failures persist nothing.
func (s *postingService) PostPayload(ctx context.Context, orgID string, payload dto.VoucherPayload, idemKey, userID string) (result *dto.PostingResult, err error) {
	defer func() { observe(domain.OperationPost, result, err) }()
	key := strings.TrimSpace(idemKey)
	if key == "" {
		key = strings.TrimSpace(payload.IdempotencyKey)
	}

	return s.keyed(ctx, orgID, domain.OperationPost, key, func() (*dto.PostingResult, error) {
		start := time.Now()
		cfg, err := loadConfig(ctx, s.uow, orgID, payload.VoucherType, true)
		if err != nil {
			return nil, err
		}
		p, err := s.prepare(ctx, orgID, cfg, payload.Header, payload.Lines, payload.Charges)
		if err != nil {
			return nil, err
		}
		now := s.Now()
		j := s.newJournal(orgID, cfg, p, userID, now)
		if err := requirePostable(j); err != nil {
			return nil, err
		}

		res := &dto.PostingResult{Journal: j, Summary: &p.summary, Warnings: p.warnings}
		var events []domain.IntegrationEvent
		err = s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
			period, err := openPeriod(ctx, tx, orgID, j.JournalDate)
			if err != nil {
				return err
			}
			if cfg.RequiresApproval() {
				j.Status = domain.Submitted
				if err := tx.Journals().SaveJournal(ctx, j); err != nil {
					return fmt.Errorf("failed to save voucher: %w", err)
				}
				if res.Task, err = s.openTask(ctx, tx, j, cfg, userID, now); err != nil {
					return err
				}
				res.Deferred = true
				return saveRecord(ctx, tx, orgID, domain.OperationPost, key, j.JournalID, true, now)
			}

			events, err = s.post(ctx, tx, j, cfg, period, userID, now, func(j *domain.Journal) error {
				return tx.Journals().SaveJournal(ctx, j)
			})
			if err != nil {
				return err
			}
			return saveRecord(ctx, tx, orgID, domain.OperationPost, key, j.JournalID, false, now)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to post voucher payload", slog.String("voucher_type", cfg.Code))
			return nil, err
		}

		if res.Deferred {
			s.LogInfo(ctx, "Voucher posting deferred to approval", slog.String("journal_id", j.JournalID), slog.String("task_id", res.Task.TaskID))
			return res, nil
		}
		metrics.PostingDuration.Observe(time.Since(start).Seconds())
		s.LogInfo(ctx, "Voucher posted", slog.String("journal_id", j.JournalID), slog.String("voucher_number", j.VoucherNumber))
		s.afterCommit(ctx, cfg, j, events)
		return res, nil
	})
}

// Cancel moves a DRAFT journal to CANCELLED.
func (s *postingService) Cancel(ctx context.Context, orgID, journalID string, expectedUpdatedAt *time.Time, userID string) (*dto.PostingResult, error) {
	now := s.Now()
	var cancelled *domain.Journal
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		j, err := findJournal(ctx, tx, orgID, journalID, true)
		if err != nil {
			return err
		}
		if err := checkFresh(j, expectedUpdatedAt); err != nil {
			return err
		}
		if !domain.CanTransition(j.Status, domain.Cancelled) {
			return apperrors.NewInvalidStateError(fmt.Sprintf("only DRAFT vouchers can be cancelled; voucher is %s", j.Status))
		}
		expected := j.LastUpdatedAt
		j.Status = domain.Cancelled
		j.Touch(userID, now)
		if err := tx.Journals().UpdateJournal(ctx, j, expected); err != nil {
			return fmt.Errorf("failed to cancel voucher: %w", err)
		}
		cancelled = j
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel voucher", slog.String("journal_id", journalID))
		return nil, err
	}
	s.LogInfo(ctx, "Voucher cancelled", slog.String("journal_id", journalID))
	return &dto.PostingResult{Journal: cancelled}, nil
}

// Reverse posts a counter-journal for a POSTED journal and marks the original REVERSED.
func (s *postingService) Reverse(ctx context.Context, orgID, journalID string, reversalDate *time.Time, userID string) (*dto.PostingResult, error) {
	now := s.Now()
	var reversal *domain.Journal
	var cfg *domain.VoucherTypeConfig
	var events []domain.IntegrationEvent

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		original, err := findJournal(ctx, tx, orgID, journalID, true)
		if err != nil {
			return err
		}
		if !domain.CanTransition(original.Status, domain.Reversed) {
			return apperrors.NewInvalidStateError(fmt.Sprintf("only POSTED vouchers can be reversed; voucher is %s", original.Status))
		}
		if original.IsReversal() {
			return apperrors.NewInvalidStateError("a reversing voucher cannot itself be reversed")
		}
		if cfg, err = loadConfig(ctx, tx, orgID, original.VoucherType, false); err != nil {
			return err
		}

		date := original.JournalDate
		if reversalDate != nil {
			date = domain.TruncateToDate(*reversalDate)
		}
		period, err := openPeriod(ctx, tx, orgID, date)
		if err != nil {
			return err
		}

		rev := original.Reversal(date, userID, now)
		rev.JournalID = s.newID()
		for i := range rev.Lines {
			rev.Lines[i].LineID = s.newID()
			rev.Lines[i].JournalID = rev.JournalID
		}
		if events, err = s.post(ctx, tx, &rev, cfg, period, userID, now, func(j *domain.Journal) error {
			return tx.Journals().SaveJournal(ctx, j)
		}); err != nil {
			return err
		}

		expected := original.LastUpdatedAt
		original.Status = domain.Reversed
		original.ReversingJournalID = &rev.JournalID
		original.Touch(userID, now)
		if err := tx.Journals().UpdateJournal(ctx, original, expected); err != nil {
			return fmt.Errorf("failed to mark voucher reversed: %w", err)
		}
		reversed, err := domain.NewJournalEvent(s.newID(), domain.EventJournalReversed, original, now)
		if err != nil {
			return fmt.Errorf("failed to build reversed event: %w", err)
		}
		if err := tx.Outbox().SaveEvents(ctx, []domain.IntegrationEvent{reversed}); err != nil {
			return fmt.Errorf("failed to write outbox event: %w", err)
		}
		events = append(events, reversed)
		reversal = &rev
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse voucher", slog.String("journal_id", journalID))
		return nil, err
	}

	s.LogInfo(ctx, "Voucher reversed", slog.String("journal_id", journalID), slog.String("reversing_journal_id", reversal.JournalID))
	s.afterCommit(ctx, cfg, reversal, events)
	return &dto.PostingResult{Journal: reversal}, nil
}
