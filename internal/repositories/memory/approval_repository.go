package memory

import (
	"context"
	"fmt"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func copyTask(t domain.ApprovalTask) domain.ApprovalTask {
	t.History = append([]domain.ApprovalDecision(nil), t.History...)
	return t
}

func (v *view) FindPendingTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error) {
	return v.findTask(ctx, orgID, journalID, true)
}

func (v *view) FindLatestTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error) {
	return v.findTask(ctx, orgID, journalID, false)
}

func (v *view) findTask(ctx context.Context, orgID, journalID string, pendingOnly bool) (*domain.ApprovalTask, error) {
	var out *domain.ApprovalTask
	err := v.do(ctx, func(d *data) error {
		for i := len(d.tasks) - 1; i >= 0; i-- {
			t := d.tasks[i]
			if t.OrganizationID != orgID || t.JournalID != journalID {
				continue
			}
			if pendingOnly && t.Status != domain.ApprovalPending {
				continue
			}
			c := copyTask(t)
			out = &c
			return nil
		}
		return fmt.Errorf("approval task for journal %s: %w", journalID, apperrors.ErrNotFound)
	})
	return out, err
}

func (v *view) SaveTask(ctx context.Context, task *domain.ApprovalTask) error {
	return v.do(ctx, func(d *data) error {
		d.tasks = append(d.tasks, copyTask(*task))
		return nil
	})
}

func (v *view) UpdateTask(ctx context.Context, task *domain.ApprovalTask) error {
	return v.do(ctx, func(d *data) error {
		for i := range d.tasks {
			if d.tasks[i].TaskID == task.TaskID {
				d.tasks[i] = copyTask(*task)
				return nil
			}
		}
		return fmt.Errorf("approval task %s: %w", task.TaskID, apperrors.ErrNotFound)
	})
}
