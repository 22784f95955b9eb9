package domain

import (
	"fmt"
	"strings"
)

// FieldType is the discriminator of the FieldSpec tagged union.
type FieldType string

const (
	FieldChar    FieldType = "char"
	FieldDecimal FieldType = "decimal"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldChoice  FieldType = "choice"
	FieldFK      FieldType = "fk"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldChar, FieldDecimal, FieldDate, FieldBoolean, FieldChoice, FieldFK:
		return true
	}
	return false
}

// Section identifies where a field lives on a voucher.
type Section string

const (
	SectionHeader Section = "header"
	SectionLines  Section = "lines"
)

// Choice is one selectable option of a choice field.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldSpec describes one form field. Only the attributes matching Type are
// meaningful: MaxLength for char, MaxDigits/DecimalPlaces for decimal,
// Choices for choice and Target for fk.
type FieldSpec struct {
	Name          string    `json:"name" yaml:"name"`
	Label         string    `json:"label,omitempty" yaml:"label"`
	Type          FieldType `json:"type" yaml:"type"`
	Required      bool      `json:"required" yaml:"required"`
	Visible       bool      `json:"visible" yaml:"visible"`
	Order         int       `json:"order" yaml:"order"`
	Widget        string    `json:"widget,omitempty" yaml:"widget"`
	HelpText      string    `json:"helpText,omitempty" yaml:"help_text"`
	Default       any       `json:"default,omitempty" yaml:"default"`
	MaxLength     int       `json:"maxLength,omitempty" yaml:"max_length"`
	MaxDigits     int       `json:"maxDigits,omitempty" yaml:"max_digits"`
	DecimalPlaces int       `json:"decimalPlaces,omitempty" yaml:"decimal_places"`
	Choices       []Choice  `json:"choices,omitempty" yaml:"choices"`
	Target        string    `json:"target,omitempty" yaml:"target"`
}

// HasChoice reports whether v is one of the declared choice values.
func (f FieldSpec) HasChoice(v string) bool {
	for _, c := range f.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// FieldOverride adjusts a field for one organization. Nil members leave the
// type default untouched.
type FieldOverride struct {
	Required *bool   `json:"required,omitempty"`
	Visible  *bool   `json:"visible,omitempty"`
	Label    *string `json:"label,omitempty"`
	HelpText *string `json:"helpText,omitempty"`
}

// OverrideKey builds the FieldOverrides map key for a field in a section.
func OverrideKey(section Section, name string) string {
	return fmt.Sprintf("%s.%s", section, name)
}

// ApprovalStep is one ordered step of an approval workflow.
type ApprovalStep struct {
	Name         string `json:"name"`
	ApproverRole string `json:"approverRole,omitempty"`
}

// ApprovalWorkflow is bound to a voucher type. When Required is set, posting
// is deferred until every step has been approved.
type ApprovalWorkflow struct {
	Required bool           `json:"required"`
	Steps    []ApprovalStep `json:"steps"`
}

// TotalSteps is the number of approvals needed; a required workflow without
// explicit steps needs one.
func (w *ApprovalWorkflow) TotalSteps() int {
	if w == nil {
		return 0
	}
	if len(w.Steps) == 0 {
		return 1
	}
	return len(w.Steps)
}

// VoucherTypeConfig is the per-organization definition of a voucher type.
// Configs are never hard-deleted; IsActive=false retires them.
type VoucherTypeConfig struct {
	ID               string                   `json:"id"`
	OrganizationID   string                   `json:"organizationID"`
	Code             string                   `json:"code"`
	Name             string                   `json:"name"`
	SchemaDefinition string                   `json:"schemaDefinition,omitempty"` // raw stored JSON, may be empty or malformed
	JournalTypeCode  string                   `json:"journalTypeCode"`
	ShowDimensions   bool                     `json:"showDimensions"`
	ShowTaxDetails   bool                     `json:"showTaxDetails"`
	FieldOverrides   map[string]FieldOverride `json:"fieldOverrides,omitempty"`
	HeaderUDFs       []FieldSpec              `json:"headerUDFs,omitempty"`
	LineUDFs         []FieldSpec              `json:"lineUDFs,omitempty"`
	NumberPrefix     string                   `json:"numberPrefix"`
	Approval         *ApprovalWorkflow        `json:"approval,omitempty"`
	EBillingEnabled  bool                     `json:"eBillingEnabled"`
	IsActive         bool                     `json:"isActive"`
	Version          int                      `json:"version"`
	AuditFields
}

// RequiresApproval reports whether posting this voucher type must wait for approval.
func (c *VoucherTypeConfig) RequiresApproval() bool {
	return c.Approval != nil && c.Approval.Required
}

// Prefix returns the voucher number prefix, falling back to the upper-cased code.
func (c *VoucherTypeConfig) Prefix() string {
	if c.NumberPrefix != "" {
		return c.NumberPrefix
	}
	return strings.ToUpper(c.Code)
}
