package domain

import "time"

// Operations recorded against idempotency keys.
const (
	OperationCreate = "create"
	OperationSubmit = "submit"
	OperationPost   = "post"
)

// IdempotencyRecord remembers the outcome of a keyed request so a retry
// returns the original journal instead of creating another.
type IdempotencyRecord struct {
	OrganizationID string    `json:"organizationID"`
	Operation      string    `json:"operation"`
	Key            string    `json:"key"`
	JournalID      string    `json:"journalID"`
	Deferred       bool      `json:"deferred"`
	CreatedAt      time.Time `json:"createdAt"`
}
