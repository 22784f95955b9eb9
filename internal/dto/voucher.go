package dto

import (
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/summary"
	"github.com/shopspring/decimal"
)

// ChargeInput is an additional charge submitted with a voucher. Charges feed
// the summary only; they do not produce journal lines.
type ChargeInput struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Delete bool            `json:"DELETE,omitempty"`
}

// VoucherPayload is a raw voucher submission. Header and line values are
// validated against the schema resolved for VoucherType.
type VoucherPayload struct {
	VoucherType    string           `json:"voucherType" binding:"required"`
	Header         map[string]any   `json:"header"`
	Lines          []map[string]any `json:"lines"`
	Charges        []ChargeInput    `json:"charges,omitempty"`
	IdempotencyKey string           `json:"idempotencyKey,omitempty"`
}

// UpdateVoucherRequest replaces the header and lines of an editable voucher.
type UpdateVoucherRequest struct {
	Header        map[string]any   `json:"header"`
	Lines         []map[string]any `json:"lines"`
	Charges       []ChargeInput    `json:"charges,omitempty"`
	LastUpdatedAt time.Time        `json:"lastUpdatedAt" binding:"required"`
}

// TransitionRequest carries the optional concurrency token and idempotency
// key of a submit, post or cancel call.
type TransitionRequest struct {
	LastUpdatedAt  *time.Time `json:"lastUpdatedAt,omitempty"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
}

// ApprovalDecisionRequest carries the approver's notes.
type ApprovalDecisionRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// ReverseVoucherRequest optionally sets the reversal date (YYYY-MM-DD). The
// original journal date is used when absent.
type ReverseVoucherRequest struct {
	ReversalDate string `json:"reversalDate,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// PostingResult is the outcome of a posting-service operation.
type PostingResult struct {
	Journal  *domain.Journal      `json:"journal"`
	Summary  *summary.Summary     `json:"summary,omitempty"`
	Task     *domain.ApprovalTask `json:"approvalTask,omitempty"`
	Deferred bool                 `json:"deferred"`
	Replayed bool                 `json:"replayed"`
	Warnings []string             `json:"warnings,omitempty"`
}

// ListVouchersParams defines parameters for listing vouchers.
type ListVouchersParams struct {
	Status      string  `form:"status" binding:"omitempty,oneof=DRAFT SUBMITTED APPROVED POSTED CANCELLED REVERSED"`
	VoucherType string  `form:"voucherType"`
	Limit       int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   *string `form:"nextToken"`
}

// ListVouchersResponse is a page of vouchers without lines.
type ListVouchersResponse struct {
	Vouchers  []domain.Journal `json:"vouchers"`
	NextToken *string          `json:"nextToken,omitempty"`
}
