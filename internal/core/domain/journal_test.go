package domain_test

import (
	"testing"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.JournalStatus
		want     bool
	}{
		{domain.Draft, domain.Submitted, true},
		{domain.Draft, domain.Cancelled, true},
		{domain.Submitted, domain.Approved, true},
		{domain.Submitted, domain.Draft, true},
		{domain.Approved, domain.Posted, true},
		{domain.Posted, domain.Reversed, true},
		{domain.Posted, domain.Draft, false},
		{domain.Cancelled, domain.Draft, false},
		{domain.Reversed, domain.Posted, false},
		{domain.Approved, domain.Cancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to))
		})
	}
}

func TestJournal_Reversal(t *testing.T) {
	now := time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)
	original := domain.Journal{
		JournalID:      "j-1",
		OrganizationID: "org-1",
		VoucherType:    "journal",
		VoucherNumber:  "JV-000007",
		Status:         domain.Posted,
		TotalDebit:     decimal.NewFromInt(50),
		TotalCredit:    decimal.NewFromInt(50),
		IsBalanced:     true,
		Lines: []domain.JournalLine{
			{LineID: "l-1", JournalID: "j-1", LineNumber: 1, AccountCode: "1000-Cash", DebitAmount: decimal.NewFromInt(50), CreditAmount: decimal.Zero},
			{LineID: "l-2", JournalID: "j-1", LineNumber: 2, AccountCode: "4000-Sales", DebitAmount: decimal.Zero, CreditAmount: decimal.NewFromInt(50)},
		},
	}

	rev := original.Reversal(now, "user-2", now)

	require.Len(t, rev.Lines, 2)
	assert.True(t, rev.Lines[0].CreditAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, rev.Lines[0].DebitAmount.IsZero())
	assert.True(t, rev.Lines[1].DebitAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, rev.Lines[0].LineNumber)
	assert.Empty(t, rev.Lines[0].LineID)
	require.NotNil(t, rev.OriginalJournalID)
	assert.Equal(t, "j-1", *rev.OriginalJournalID)
	assert.True(t, rev.IsReversal())
	assert.Equal(t, domain.Draft, rev.Status)
	assert.Equal(t, "JV-000007", rev.Reference)
	// the source journal must be left untouched
	assert.True(t, original.Lines[0].DebitAmount.Equal(decimal.NewFromInt(50)))
}

func TestAccountingPeriod_AcceptsPostings(t *testing.T) {
	p := domain.AccountingPeriod{
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}

	assert.True(t, p.AcceptsPostings(time.Date(2024, 7, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, p.AcceptsPostings(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.AcceptsPostings(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)))

	p.Status = domain.PeriodClosed
	assert.False(t, p.AcceptsPostings(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
}

func TestFormatVoucherNumber(t *testing.T) {
	assert.Equal(t, "JV-000042", domain.FormatVoucherNumber("JV", 42))
	assert.Equal(t, "SI-1234567", domain.FormatVoucherNumber("SI", 1234567))

	scope := domain.VoucherNumberScope("org-1", "journal")
	assert.Equal(t, "accounting.journal", scope.ModelLabel)
	assert.Equal(t, "voucher_number:journal", scope.FieldName)
}
