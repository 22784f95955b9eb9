package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalLine is a single debit or credit row of a journal.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	JournalID    string          `json:"journalID"`
	LineNumber   int             `json:"lineNumber"` // dense, 1-based
	AccountCode  string          `json:"accountCode"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostCenter   string          `json:"costCenter,omitempty"`
	Project      string          `json:"project,omitempty"`
	TaxCode      string          `json:"taxCode,omitempty"`
	UDFs         map[string]any  `json:"udfs,omitempty"`
}

// Swapped returns a copy of the line with debit and credit exchanged.
func (l JournalLine) Swapped() JournalLine {
	out := l
	out.LineID = ""
	out.JournalID = ""
	out.DebitAmount, out.CreditAmount = l.CreditAmount, l.DebitAmount
	return out
}

// SignedAmount is debit minus credit.
func (l JournalLine) SignedAmount() decimal.Decimal {
	return l.DebitAmount.Sub(l.CreditAmount)
}

// LedgerPosting is one general ledger row written per journal line at posting time.
type LedgerPosting struct {
	PostingID      string          `json:"postingID"`
	OrganizationID string          `json:"organizationID"`
	JournalID      string          `json:"journalID"`
	LineNumber     int             `json:"lineNumber"`
	AccountCode    string          `json:"accountCode"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Amount         decimal.Decimal `json:"amount"` // signed, debit positive
	PeriodID       string          `json:"periodID"`
	PostingDate    time.Time       `json:"postingDate"`
	CreatedAt      time.Time       `json:"createdAt"`
}
