package domain

import "fmt"

// JournalModelLabel is the sequence model label used for voucher numbers.
const JournalModelLabel = "accounting.journal"

// SequenceScope identifies one auto-increment counter. An empty
// OrganizationID selects the global scope.
type SequenceScope struct {
	OrganizationID string
	ModelLabel     string
	FieldName      string
}

// VoucherNumberScope is the numbering scope for a voucher type within an organization.
func VoucherNumberScope(orgID, voucherCode string) SequenceScope {
	return SequenceScope{
		OrganizationID: orgID,
		ModelLabel:     JournalModelLabel,
		FieldName:      "voucher_number:" + voucherCode,
	}
}

// FormatVoucherNumber renders a voucher number such as JV-000042.
func FormatVoucherNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}
