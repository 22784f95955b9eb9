package forms_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/forms"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReferenceChecker struct {
	mock.Mock
}

func (m *MockReferenceChecker) ReferenceExists(ctx context.Context, orgID, target, code string) (bool, error) {
	args := m.Called(ctx, orgID, target, code)
	return args.Bool(0), args.Error(1)
}

var _ forms.ReferenceChecker = (*MockReferenceChecker)(nil)

func knownAccounts() *MockReferenceChecker {
	refs := new(MockReferenceChecker)
	refs.On("ReferenceExists", mock.Anything, "org-1", "account", "1000-Cash").Return(true, nil)
	refs.On("ReferenceExists", mock.Anything, "org-1", "account", "4000-Sales").Return(true, nil)
	refs.On("ReferenceExists", mock.Anything, "org-1", "account", mock.Anything).Return(false, nil)
	return refs
}

func TestLineContract_BlankRowsSkippedAndDense(t *testing.T) {
	lc := forms.BuildLineContract(schema.Minimal(), nil, knownAccounts())

	rows := []map[string]any{
		{"account": "1000-Cash", "dr": json.Number("50"), "cr": json.Number("0")},
		{"account": "", "dr": "", "cr": "0"},
		{"account": "1000-Cash", "dr": 0, "cr": 50},
	}
	clean, errs, err := lc.Validate(context.Background(), "org-1", rows)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, clean, 2)
	assert.Equal(t, 0, clean[0].Index)
	assert.Equal(t, 2, clean[1].Index)
	assert.True(t, clean[0].Values.Decimal(forms.FieldDebitAmount).Equal(decimal.NewFromInt(50)))
	assert.True(t, clean[1].Values.Decimal(forms.FieldCreditAmount).Equal(decimal.NewFromInt(50)))
}

func TestLineContract_DeletedRowsExcluded(t *testing.T) {
	lc := forms.BuildLineContract(schema.Minimal(), nil, knownAccounts())
	rows := []map[string]any{
		{"account": "9999-Nope", "debit_amount": "10", "DELETE": true},
		{"account": "1000-Cash", "debit_amount": "10"},
	}
	clean, errs, err := lc.Validate(context.Background(), "org-1", rows)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, clean, 1)
	assert.Equal(t, 1, clean[0].Index)
}

func TestLineContract_FieldErrors(t *testing.T) {
	lc := forms.BuildLineContract(schema.Minimal(), nil, knownAccounts())
	rows := []map[string]any{
		{"account": "1000-Cash", "debit_amount": "10", "credit_amount": "10"},
		{"account": "9999-Nope", "debit_amount": "5"},
		{"debit_amount": "abc"},
		{"account": "1000-Cash", "credit_amount": "-3"},
		{"account": "1000-Cash", "debit_amount": "1.23456"},
	}
	_, errs, err := lc.Validate(context.Background(), "org-1", rows)
	require.NoError(t, err)

	assert.Contains(t, errs["lines[0].non_field_errors"], "Enter either a debit or a credit amount, not both.")
	assert.Contains(t, errs["lines[1].account"][0], "Unknown account")
	assert.Equal(t, []string{"This field is required."}, errs["lines[2].account"])
	assert.Equal(t, []string{"Enter a number."}, errs["lines[2].debit_amount"])
	assert.Contains(t, errs["lines[3].non_field_errors"], "Amounts cannot be negative.")
	assert.Contains(t, errs["lines[4].debit_amount"][0], "4 decimal places")
}

func TestLineContract_ReferenceFailureIsError(t *testing.T) {
	refs := new(MockReferenceChecker)
	refs.On("ReferenceExists", mock.Anything, "org-1", "account", "1000-Cash").Return(false, errors.New("db down"))
	lc := forms.BuildLineContract(schema.Minimal(), nil, refs)

	_, _, err := lc.Validate(context.Background(), "org-1", []map[string]any{{"account": "1000-Cash", "debit_amount": "1"}})
	assert.Error(t, err)
	refs.AssertExpectations(t)
}

func testSchema() schema.Schema {
	return schema.Schema{
		Header: []domain.FieldSpec{
			{Name: "date", Type: domain.FieldDate, Required: true, Visible: true},
			{Name: "reference", Type: domain.FieldChar, MaxLength: 5, Visible: true},
			{Name: "mode", Type: domain.FieldChoice, Visible: true, Choices: []domain.Choice{{Value: "cash"}, {Value: "bank"}}},
			{Name: "taxable", Type: domain.FieldBoolean, Visible: true},
			{Name: "branch", Type: domain.FieldChar, Visible: true, Default: "HQ"},
			{Name: "internal", Type: domain.FieldChar, Visible: false, Default: "system", Required: true},
		},
	}
}

func TestHeaderContract_Validate(t *testing.T) {
	hc := forms.BuildHeaderContract(testSchema(), nil, nil)

	values, errs, err := hc.Validate(context.Background(), "org-1", map[string]any{
		"date":      "2024-07-15T08:30:00Z",
		"reference": "INV-1",
		"mode":      "bank",
		"taxable":   "yes",
		"internal":  "ignored",
	})
	require.NoError(t, err)
	assert.Empty(t, errs)

	date, ok := values.Date("date")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, "INV-1", values.String("reference"))
	assert.True(t, values.Bool("taxable"))
	assert.Equal(t, "HQ", values.String("branch"))
	assert.Equal(t, "system", values.String("internal"))
}

func TestHeaderContract_Errors(t *testing.T) {
	hc := forms.BuildHeaderContract(testSchema(), nil, nil)

	_, errs, err := hc.Validate(context.Background(), "org-1", map[string]any{
		"date":      "15/07/2024",
		"reference": "TOO-LONG-REF",
		"mode":      "card",
		"taxable":   "maybe",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Enter a valid date."}, errs["date"])
	assert.Contains(t, errs["reference"][0], "at most 5 characters")
	assert.Contains(t, errs["mode"][0], "Select a valid choice")
	assert.Equal(t, []string{"Enter a valid boolean."}, errs["taxable"])
	assert.NotContains(t, errs, "internal")
}

func TestOverridesWinOverDefaults(t *testing.T) {
	notRequired := false
	hidden := false
	label := "Voucher Date"
	cfg := &domain.VoucherTypeConfig{
		FieldOverrides: map[string]domain.FieldOverride{
			"header.date":      {Required: &notRequired, Label: &label},
			"header.reference": {Visible: &hidden},
		},
	}
	hc := forms.BuildHeaderContract(testSchema(), forms.OverridesFor(cfg), nil)

	fields := hc.Fields()
	assert.False(t, fields[0].Required)
	assert.Equal(t, "Voucher Date", fields[0].Label)
	assert.False(t, fields[1].Visible)

	_, errs, err := hc.Validate(context.Background(), "org-1", map[string]any{"reference": "WAY-TOO-LONG"})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestOverridesFor_HidesDimensionsAndTax(t *testing.T) {
	visible := true
	cfg := &domain.VoucherTypeConfig{
		ShowDimensions: false,
		ShowTaxDetails: false,
		FieldOverrides: map[string]domain.FieldOverride{"lines.project": {Visible: &visible}},
	}
	o := forms.OverridesFor(cfg)
	assert.False(t, *o["lines.cost_center"].Visible)
	assert.False(t, *o["lines.tax_code"].Visible)
	assert.True(t, *o["lines.project"].Visible)

	cfg.ShowDimensions, cfg.ShowTaxDetails = true, true
	cfg.FieldOverrides = nil
	assert.Empty(t, forms.OverridesFor(cfg))
}

func TestValuesRest(t *testing.T) {
	v := forms.Values{
		"date":   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"amount": decimal.RequireFromString("1.50"),
		"po":     "PO-9",
	}
	assert.Equal(t, map[string]any{"amount": "1.5", "po": "PO-9"}, v.Rest("date"))
	assert.Nil(t, forms.Values{"date": "x"}.Rest("date"))
}
