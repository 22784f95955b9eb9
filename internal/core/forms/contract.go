// Package forms builds header and line validation contracts from a resolved
// voucher schema and runs raw submissions through them.
package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
	"github.com/shopspring/decimal"
)

// Well-known header and line field names.
const (
	FieldDate         = "date"
	FieldReference    = "reference"
	FieldAccount      = "account"
	FieldDebitAmount  = "debit_amount"
	FieldCreditAmount = "credit_amount"
	FieldQuantity     = "quantity"
	FieldCostCenter   = "cost_center"
	FieldProject      = "project"
	FieldTaxCode      = "tax_code"
	FieldDescription  = "description"

	// NonFieldErrors is the error key for failures not tied to one field.
	NonFieldErrors = "non_field_errors"
	// DeleteFlag marks a submitted row for removal.
	DeleteFlag = "DELETE"
)

// Error messages.
const (
	msgRequired      = "This field is required."
	msgInvalidNumber = "Enter a number."
	msgInvalidDate   = "Enter a valid date."
	msgInvalidBool   = "Enter a valid boolean."
	msgOneSide       = "Enter either a debit or a credit amount, not both."
	msgNoSide        = "Enter a debit or a credit amount."
	msgNegative      = "Amounts cannot be negative."
)

// rowAliases maps shorthand input keys onto line field names.
var rowAliases = map[string]string{
	"dr":           FieldDebitAmount,
	"cr":           FieldCreditAmount,
	"debit":        FieldDebitAmount,
	"credit":       FieldCreditAmount,
	"account_code": FieldAccount,
}

var validate = validator.New()

// ReferenceChecker confirms that a code exists for an fk target such as
// "account", "cost_center" or "project" within an organization.
type ReferenceChecker interface {
	ReferenceExists(ctx context.Context, orgID, target, code string) (bool, error)
}

// contract is the shared field list and validator of one section.
type contract struct {
	section domain.Section
	fields  []domain.FieldSpec
	refs    ReferenceChecker
}

// HeaderContract validates the voucher header.
type HeaderContract struct {
	contract
}

// LineContract validates the voucher lines as a formset.
type LineContract struct {
	contract
	enforceSides bool
}

// BuildHeaderContract applies overrides to the schema's header fields.
func BuildHeaderContract(s schema.Schema, overrides map[string]domain.FieldOverride, refs ReferenceChecker) *HeaderContract {
	return &HeaderContract{contract{
		section: domain.SectionHeader,
		fields:  applyOverrides(domain.SectionHeader, s.Header, overrides),
		refs:    refs,
	}}
}

// BuildLineContract applies overrides to the schema's line fields. The
// debit/credit rule is enforced when the schema declares both amount fields.
func BuildLineContract(s schema.Schema, overrides map[string]domain.FieldOverride, refs ReferenceChecker) *LineContract {
	fields := applyOverrides(domain.SectionLines, s.Lines, overrides)
	_, hasDebit := s.Field(domain.SectionLines, FieldDebitAmount)
	_, hasCredit := s.Field(domain.SectionLines, FieldCreditAmount)
	return &LineContract{
		contract:     contract{section: domain.SectionLines, fields: fields, refs: refs},
		enforceSides: hasDebit && hasCredit,
	}
}

// OverridesFor returns the config's field overrides, hiding the dimension and
// tax line fields when the voucher type does not show them. Explicit
// overrides take precedence.
func OverridesFor(cfg *domain.VoucherTypeConfig) map[string]domain.FieldOverride {
	out := make(map[string]domain.FieldOverride, len(cfg.FieldOverrides)+3)
	hidden := false
	if !cfg.ShowDimensions {
		out[domain.OverrideKey(domain.SectionLines, FieldCostCenter)] = domain.FieldOverride{Visible: &hidden}
		out[domain.OverrideKey(domain.SectionLines, FieldProject)] = domain.FieldOverride{Visible: &hidden}
	}
	if !cfg.ShowTaxDetails {
		out[domain.OverrideKey(domain.SectionLines, FieldTaxCode)] = domain.FieldOverride{Visible: &hidden}
	}
	for k, v := range cfg.FieldOverrides {
		out[k] = v
	}
	return out
}

func applyOverrides(section domain.Section, fields []domain.FieldSpec, overrides map[string]domain.FieldOverride) []domain.FieldSpec {
	out := make([]domain.FieldSpec, len(fields))
	for i, f := range fields {
		if o, ok := overrides[domain.OverrideKey(section, f.Name)]; ok {
			if o.Required != nil {
				f.Required = *o.Required
			}
			if o.Visible != nil {
				f.Visible = *o.Visible
			}
			if o.Label != nil {
				f.Label = *o.Label
			}
			if o.HelpText != nil {
				f.HelpText = *o.HelpText
			}
		}
		out[i] = f
	}
	return out
}

// Fields returns the effective field list after overrides.
func (c *contract) Fields() []domain.FieldSpec {
	return c.fields
}

// Validate cleans a raw header. Field errors are returned in FieldErrors; the
// error result is reserved for reference lookup failures.
func (h *HeaderContract) Validate(ctx context.Context, orgID string, raw map[string]any) (Values, apperrors.FieldErrors, error) {
	errs := apperrors.FieldErrors{}
	values, err := h.clean(ctx, orgID, raw, "", errs)
	if err != nil {
		return nil, nil, err
	}
	return values, errs, nil
}

// Validate cleans every submitted row. Rows flagged DELETE and rows whose
// fields are all empty or at their defaults are dropped and consume no line
// number. Errors are keyed lines[i].field using the submitted position.
func (l *LineContract) Validate(ctx context.Context, orgID string, rows []map[string]any) ([]Row, apperrors.FieldErrors, error) {
	errs := apperrors.FieldErrors{}
	out := make([]Row, 0, len(rows))
	for i, raw := range rows {
		raw = canonicalRow(raw)
		if deleted(raw) || l.isBlank(raw) {
			continue
		}
		prefix := fmt.Sprintf("lines[%d].", i)
		values, err := l.clean(ctx, orgID, raw, prefix, errs)
		if err != nil {
			return nil, nil, err
		}
		if l.enforceSides {
			l.checkSides(values, prefix, errs)
		}
		out = append(out, Row{Index: i, Values: values})
	}
	return out, errs, nil
}

func (l *LineContract) isBlank(raw map[string]any) bool {
	for _, f := range l.fields {
		if !isBlankValue(f, raw[f.Name]) {
			return false
		}
	}
	return true
}

func (l *LineContract) checkSides(values Values, prefix string, errs apperrors.FieldErrors) {
	if len(errs[prefix+FieldDebitAmount]) > 0 || len(errs[prefix+FieldCreditAmount]) > 0 {
		return
	}
	debit := values.Decimal(FieldDebitAmount)
	credit := values.Decimal(FieldCreditAmount)
	switch {
	case debit.IsNegative() || credit.IsNegative():
		errs.Add(prefix+NonFieldErrors, msgNegative)
	case !debit.IsZero() && !credit.IsZero():
		errs.Add(prefix+NonFieldErrors, msgOneSide)
	case debit.IsZero() && credit.IsZero():
		errs.Add(prefix+NonFieldErrors, msgNoSide)
	}
}

func canonicalRow(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for alias, name := range rowAliases {
		if v, ok := raw[alias]; ok {
			if _, set := raw[name]; !set {
				out[name] = v
			}
			delete(out, alias)
		}
	}
	return out
}

func deleted(raw map[string]any) bool {
	v, ok := raw[DeleteFlag]
	if !ok {
		return false
	}
	b, err := toBool(v)
	return err == nil && b
}

func (c *contract) clean(ctx context.Context, orgID string, raw map[string]any, prefix string, errs apperrors.FieldErrors) (Values, error) {
	values := Values{}
	for _, f := range c.fields {
		v := raw[f.Name]
		if !f.Visible {
			// hidden fields are not validated and take their default
			v = f.Default
			if isEmpty(v) {
				continue
			}
		} else if isEmpty(v) {
			if f.Required {
				errs.Add(prefix+f.Name, msgRequired)
				continue
			}
			if isEmpty(f.Default) {
				continue
			}
			v = f.Default
		}

		cleaned, msg := cleanValue(f, v)
		if msg != "" {
			errs.Add(prefix+f.Name, msg)
			continue
		}
		if f.Type == domain.FieldFK && c.refs != nil && f.Visible {
			ok, err := c.refs.ReferenceExists(ctx, orgID, f.Target, cleaned.(string))
			if err != nil {
				return nil, fmt.Errorf("failed to check %s %q: %w", f.Target, cleaned, err)
			}
			if !ok {
				errs.Add(prefix+f.Name, fmt.Sprintf("Unknown %s %q.", strings.ReplaceAll(f.Target, "_", " "), cleaned))
				continue
			}
		}
		values[f.Name] = cleaned
	}
	return values, nil
}

// cleanValue converts v to the field's Go type, returning a user-facing
// message when it does not fit.
func cleanValue(f domain.FieldSpec, v any) (any, string) {
	switch f.Type {
	case domain.FieldDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, msgInvalidNumber
		}
		return d, checkPrecision(f, d)
	case domain.FieldDate:
		t, err := toDate(v)
		if err != nil {
			return nil, msgInvalidDate
		}
		return t, ""
	case domain.FieldBoolean:
		b, err := toBool(v)
		if err != nil {
			return nil, msgInvalidBool
		}
		return b, ""
	case domain.FieldChoice:
		s := toString(v)
		if !f.HasChoice(s) {
			return nil, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s)
		}
		return s, ""
	default:
		s := toString(v)
		if f.MaxLength > 0 {
			if err := validate.Var(s, fmt.Sprintf("max=%d", f.MaxLength)); err != nil {
				return nil, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", f.MaxLength, len([]rune(s)))
			}
		}
		return s, ""
	}
}

func checkPrecision(f domain.FieldSpec, d decimal.Decimal) string {
	whole, frac := digitCounts(d)
	switch {
	case f.MaxDigits > 0 && whole+frac > f.MaxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", f.MaxDigits)
	case f.DecimalPlaces > 0 && frac > f.DecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", f.DecimalPlaces)
	case f.MaxDigits > 0 && f.DecimalPlaces > 0 && whole > f.MaxDigits-f.DecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", f.MaxDigits-f.DecimalPlaces)
	}
	return ""
}
