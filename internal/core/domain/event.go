package domain

import (
	"encoding/json"
	"time"
)

// Integration event types written to the outbox.
const (
	EventJournalPosted    = "journal.posted"
	EventJournalReversed  = "journal.reversed"
	EventJournalSubmitted = "journal.submitted"
)

// OutboxStatus is the publish state of an integration event.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxDead      OutboxStatus = "DEAD"
)

// IntegrationEvent is an outbox row, written in the posting transaction and
// published once that transaction has committed.
type IntegrationEvent struct {
	EventID        string          `json:"eventID"`
	EventType      string          `json:"eventType"`
	OrganizationID string          `json:"organizationID"`
	JournalID      string          `json:"journalID"`
	VoucherType    string          `json:"voucherType"`
	Payload        json.RawMessage `json:"payload"`
	Status         OutboxStatus    `json:"status"`
	OccurredAt     time.Time       `json:"occurredAt"`
	PublishedAt    *time.Time      `json:"publishedAt,omitempty"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"lastError,omitempty"`
	MessageID      string          `json:"messageID,omitempty"`
}

// JournalEventPayload is the body published for journal events.
type JournalEventPayload struct {
	JournalID         string    `json:"journal_id"`
	OrganizationID    string    `json:"organization_id"`
	VoucherType       string    `json:"voucher_type"`
	VoucherNumber     string    `json:"voucher_number"`
	JournalDate       string    `json:"journal_date"`
	TotalDebit        string    `json:"total_debit"`
	TotalCredit       string    `json:"total_credit"`
	OriginalJournalID string    `json:"original_journal_id,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// NewJournalEvent builds an outbox event describing the journal's current state.
func NewJournalEvent(id, eventType string, j *Journal, now time.Time) (IntegrationEvent, error) {
	p := JournalEventPayload{
		JournalID:      j.JournalID,
		OrganizationID: j.OrganizationID,
		VoucherType:    j.VoucherType,
		VoucherNumber:  j.VoucherNumber,
		JournalDate:    j.JournalDate.Format(DateLayout),
		TotalDebit:     j.TotalDebit.String(),
		TotalCredit:    j.TotalCredit.String(),
		OccurredAt:     now,
	}
	if j.OriginalJournalID != nil {
		p.OriginalJournalID = *j.OriginalJournalID
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{
		EventID:        id,
		EventType:      eventType,
		OrganizationID: j.OrganizationID,
		JournalID:      j.JournalID,
		VoucherType:    j.VoucherType,
		Payload:        raw,
		Status:         OutboxPending,
		OccurredAt:     now,
	}, nil
}
