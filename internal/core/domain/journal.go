package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft     JournalStatus = "DRAFT"
	Submitted JournalStatus = "SUBMITTED"
	Approved  JournalStatus = "APPROVED"
	Posted    JournalStatus = "POSTED"
	Cancelled JournalStatus = "CANCELLED"
	Reversed  JournalStatus = "REVERSED"
)

// journalTransitions lists every status change the posting core performs.
// SUBMITTED -> DRAFT is a rejection, DRAFT/SUBMITTED -> POSTED is a direct
// post when no approval is required.
var journalTransitions = map[JournalStatus][]JournalStatus{
	Draft:     {Submitted, Posted, Cancelled},
	Submitted: {Approved, Posted, Draft},
	Approved:  {Posted},
	Posted:    {Reversed},
}

// CanTransition reports whether a journal may move from one status to another.
func CanTransition(from, to JournalStatus) bool {
	for _, s := range journalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Journal represents a voucher: a header and its debit/credit lines.
type Journal struct {
	JournalID          string          `json:"journalID"` // Primary Key (UUID)
	OrganizationID     string          `json:"organizationID"`
	VoucherConfigID    string          `json:"voucherConfigID"`
	VoucherType        string          `json:"voucherType"` // config code, e.g. journal
	JournalTypeCode    string          `json:"journalTypeCode"`
	JournalDate        time.Time       `json:"journalDate"`
	Reference          string          `json:"reference"`
	Description        string          `json:"description"`
	Status             JournalStatus   `json:"status"`
	VoucherNumber      string          `json:"voucherNumber,omitempty"` // assigned at posting
	SequenceNumber     int64           `json:"sequenceNumber,omitempty"`
	TotalDebit         decimal.Decimal `json:"totalDebit"`
	TotalCredit        decimal.Decimal `json:"totalCredit"`
	IsBalanced         bool            `json:"isBalanced"`
	PeriodID           *string         `json:"periodID,omitempty"`
	ApprovedBy         *string         `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time      `json:"approvedAt,omitempty"`
	PostedBy           *string         `json:"postedBy,omitempty"`
	PostedAt           *time.Time      `json:"postedAt,omitempty"`
	OriginalJournalID  *string         `json:"originalJournalID,omitempty"`  // set on a reversing journal
	ReversingJournalID *string         `json:"reversingJournalID,omitempty"` // set on a reversed journal
	RejectionNotes     string          `json:"rejectionNotes,omitempty"`
	HeaderUDFs         map[string]any  `json:"headerUDFs,omitempty"`
	Lines              []JournalLine   `json:"lines"`
	AuditFields
}

// IsEditable reports whether lines and header may still be replaced.
func (j *Journal) IsEditable() bool {
	return j.Status == Draft || j.Status == Submitted
}

// IsReversal reports whether this journal was generated to reverse another.
func (j *Journal) IsReversal() bool {
	return j.OriginalJournalID != nil
}

// Reversal builds the counter-journal for a posted journal. Each line keeps its
// account and dimensions with debit and credit swapped. Identity, numbering
// and period are left for the caller to assign.
func (j *Journal) Reversal(date time.Time, userID string, now time.Time) Journal {
	lines := make([]JournalLine, len(j.Lines))
	for i, l := range j.Lines {
		lines[i] = l.Swapped()
	}
	originalID := j.JournalID
	return Journal{
		OrganizationID:    j.OrganizationID,
		VoucherConfigID:   j.VoucherConfigID,
		VoucherType:       j.VoucherType,
		JournalTypeCode:   j.JournalTypeCode,
		JournalDate:       date,
		Reference:         j.VoucherNumber,
		Description:       "Reversal of " + j.VoucherNumber,
		Status:            Draft,
		TotalDebit:        j.TotalCredit,
		TotalCredit:       j.TotalDebit,
		IsBalanced:        j.IsBalanced,
		OriginalJournalID: &originalID,
		Lines:             lines,
		AuditFields: AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}
