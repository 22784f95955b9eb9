package dto

import (
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// SaveVoucherConfigRequest creates or updates a voucher type configuration.
// ExpectedVersion must match the stored version when updating.
type SaveVoucherConfigRequest struct {
	Name             string                          `json:"name" binding:"required,max=100"`
	SchemaDefinition string                          `json:"schemaDefinition,omitempty"`
	JournalTypeCode  string                          `json:"journalTypeCode,omitempty" binding:"max=50"`
	ShowDimensions   bool                            `json:"showDimensions"`
	ShowTaxDetails   bool                            `json:"showTaxDetails"`
	FieldOverrides   map[string]domain.FieldOverride `json:"fieldOverrides,omitempty"`
	HeaderUDFs       []domain.FieldSpec              `json:"headerUDFs,omitempty"`
	LineUDFs         []domain.FieldSpec              `json:"lineUDFs,omitempty"`
	NumberPrefix     string                          `json:"numberPrefix,omitempty" binding:"max=20"`
	Approval         *domain.ApprovalWorkflow        `json:"approval,omitempty"`
	EBillingEnabled  bool                            `json:"eBillingEnabled"`
	ExpectedVersion  int                             `json:"expectedVersion"`
}

// SchemaResponse is the resolved form schema of a voucher type with the
// organization's overrides applied.
type SchemaResponse struct {
	VoucherType string             `json:"voucherType"`
	Version     int                `json:"version"`
	Source      string             `json:"source"`
	Found       bool               `json:"found"`
	Header      []domain.FieldSpec `json:"header"`
	Lines       []domain.FieldSpec `json:"lines"`
	Warnings    []string           `json:"warnings,omitempty"`
	Tried       []string           `json:"tried,omitempty"`
}

// ListVoucherConfigsResponse wraps a list of configurations.
type ListVoucherConfigsResponse struct {
	Configs []domain.VoucherTypeConfig `json:"configs"`
}
