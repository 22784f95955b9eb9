package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
)

const (
	opApprove = "approve"
	opReject  = "reject"
)

// pendingDecision loads a SUBMITTED journal and its pending task for update.
func pendingDecision(ctx context.Context, tx portsrepo.Store, orgID, journalID string) (*domain.Journal, *domain.ApprovalTask, error) {
	j, err := findJournal(ctx, tx, orgID, journalID, true)
	if err != nil {
		return nil, nil, err
	}
	if j.Status != domain.Submitted {
		return nil, nil, apperrors.NewInvalidStateError(fmt.Sprintf("only SUBMITTED vouchers await approval; voucher is %s", j.Status))
	}
	task, err := tx.Approvals().FindPendingTask(ctx, orgID, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NewInvalidStateError("voucher has no pending approval task")
		}
		return nil, nil, fmt.Errorf("failed to load approval task: %w", err)
	}
	return j, task, nil
}

// Approve approves the current step. The final step marks the journal
// APPROVED and posts it in the same transaction; a closed period rolls the
// decision back and leaves the task pending.
func (s *postingService) Approve(ctx context.Context, orgID, journalID, notes, userID string) (result *dto.PostingResult, err error) {
	defer func() { observe(opApprove, result, err) }()

	now := s.Now()
	res := &dto.PostingResult{}
	var cfg *domain.VoucherTypeConfig
	var events []domain.IntegrationEvent
	final := false

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		j, task, err := pendingDecision(ctx, tx, orgID, journalID)
		if err != nil {
			return err
		}
		if final, err = task.Approve(userID, notes, now); err != nil {
			return apperrors.NewInvalidStateError(err.Error())
		}
		if err := tx.Approvals().UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to update approval task: %w", err)
		}
		res.Journal, res.Task = j, task
		if !final {
			return nil
		}

		if cfg, err = loadConfig(ctx, tx, orgID, j.VoucherType, false); err != nil {
			return err
		}
		period, err := openPeriod(ctx, tx, orgID, j.JournalDate)
		if err != nil {
			return err
		}
		expected := j.LastUpdatedAt
		approvedBy, approvedAt := userID, now
		j.Status = domain.Approved
		j.ApprovedBy = &approvedBy
		j.ApprovedAt = &approvedAt
		events, err = s.post(ctx, tx, j, cfg, period, userID, now, func(j *domain.Journal) error {
			return tx.Journals().UpdateJournal(ctx, j, expected)
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve voucher", slog.String("journal_id", journalID))
		return nil, err
	}

	if !final {
		res.Deferred = true
		s.LogInfo(ctx, "Approval step recorded", slog.String("journal_id", journalID),
			slog.Int("step", res.Task.CurrentStep), slog.Int("total_steps", res.Task.TotalSteps))
		return res, nil
	}
	s.LogInfo(ctx, "Voucher approved and posted", slog.String("journal_id", journalID), slog.String("voucher_number", res.Journal.VoucherNumber))
	s.afterCommit(ctx, cfg, res.Journal, events)
	return res, nil
}

// Reject terminates the pending task and returns the journal to DRAFT.
func (s *postingService) Reject(ctx context.Context, orgID, journalID, notes, userID string) (result *dto.PostingResult, err error) {
	defer func() { observe(opReject, result, err) }()

	now := s.Now()
	res := &dto.PostingResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		j, task, err := pendingDecision(ctx, tx, orgID, journalID)
		if err != nil {
			return err
		}
		if err := task.Reject(userID, notes, now); err != nil {
			return apperrors.NewInvalidStateError(err.Error())
		}
		if err := tx.Approvals().UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to update approval task: %w", err)
		}

		expected := j.LastUpdatedAt
		j.Status = domain.Draft
		j.RejectionNotes = notes
		j.Touch(userID, now)
		if err := tx.Journals().UpdateJournal(ctx, j, expected); err != nil {
			return fmt.Errorf("failed to update voucher: %w", err)
		}
		res.Journal, res.Task = j, task
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reject voucher", slog.String("journal_id", journalID))
		return nil, err
	}
	s.LogInfo(ctx, "Voucher rejected", slog.String("journal_id", journalID), slog.Int("step", res.Task.CurrentStep))
	return res, nil
}

// GetTask returns the most recent approval task of a journal.
func (s *postingService) GetTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error) {
	task, err := s.uow.Approvals().FindLatestTask(ctx, orgID, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("voucher %s has no approval task", journalID))
		}
		return nil, fmt.Errorf("failed to load approval task: %w", err)
	}
	return task, nil
}
