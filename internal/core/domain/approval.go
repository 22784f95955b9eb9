package domain

import (
	"errors"
	"time"
)

// ApprovalStatus is the state of an approval task.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ApprovalDecision records one approve or reject action on a task.
type ApprovalDecision struct {
	Step      int            `json:"step"`
	Decision  ApprovalStatus `json:"decision"`
	DecidedBy string         `json:"decidedBy"`
	Notes     string         `json:"notes,omitempty"`
	DecidedAt time.Time      `json:"decidedAt"`
}

// ApprovalTask tracks the approval of one journal submission.
type ApprovalTask struct {
	TaskID         string             `json:"taskID"`
	OrganizationID string             `json:"organizationID"`
	JournalID      string             `json:"journalID"`
	VoucherType    string             `json:"voucherType"`
	CurrentStep    int                `json:"currentStep"` // 1-based
	TotalSteps     int                `json:"totalSteps"`
	Status         ApprovalStatus     `json:"status"`
	Notes          string             `json:"notes,omitempty"`
	History        []ApprovalDecision `json:"history"`
	AuditFields
}

// NewApprovalTask opens a pending task at step 1.
func NewApprovalTask(id string, journal *Journal, totalSteps int, userID string, now time.Time) ApprovalTask {
	if totalSteps < 1 {
		totalSteps = 1
	}
	return ApprovalTask{
		TaskID:         id,
		OrganizationID: journal.OrganizationID,
		JournalID:      journal.JournalID,
		VoucherType:    journal.VoucherType,
		CurrentStep:    1,
		TotalSteps:     totalSteps,
		Status:         ApprovalPending,
		History:        []ApprovalDecision{},
		AuditFields: AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// ErrTaskNotPending is returned when a decision is made on a closed task.
var ErrTaskNotPending = errors.New("approval task is not pending")

// Approve records an approval of the current step. It returns true when the
// final step was approved and the task is complete.
func (t *ApprovalTask) Approve(userID, notes string, now time.Time) (bool, error) {
	if t.Status != ApprovalPending {
		return false, ErrTaskNotPending
	}
	t.History = append(t.History, ApprovalDecision{
		Step: t.CurrentStep, Decision: ApprovalApproved, DecidedBy: userID, Notes: notes, DecidedAt: now,
	})
	t.Touch(userID, now)
	if t.CurrentStep >= t.TotalSteps {
		t.Status = ApprovalApproved
		t.Notes = notes
		return true, nil
	}
	t.CurrentStep++
	return false, nil
}

// Reject terminates the task at the current step.
func (t *ApprovalTask) Reject(userID, notes string, now time.Time) error {
	if t.Status != ApprovalPending {
		return ErrTaskNotPending
	}
	t.History = append(t.History, ApprovalDecision{
		Step: t.CurrentStep, Decision: ApprovalRejected, DecidedBy: userID, Notes: notes, DecidedAt: now,
	})
	t.Status = ApprovalRejected
	t.Notes = notes
	t.Touch(userID, now)
	return nil
}
