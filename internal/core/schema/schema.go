// Package schema resolves the ordered header and line field definitions of a
// voucher type from its stored definition or from fallback YAML files.
package schema

import (
	"fmt"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// Schema is the normalized, ordered field list of a voucher type.
type Schema struct {
	Header []domain.FieldSpec `json:"header"`
	Lines  []domain.FieldSpec `json:"lines"`
}

// Field looks up a field by name in the given section.
func (s Schema) Field(section domain.Section, name string) (domain.FieldSpec, bool) {
	fields := s.Header
	if section == domain.SectionLines {
		fields = s.Lines
	}
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return domain.FieldSpec{}, false
}

// IsEmpty reports whether neither section declares a field.
func (s Schema) IsEmpty() bool {
	return len(s.Header) == 0 && len(s.Lines) == 0
}

func (s Schema) clone() Schema {
	return Schema{
		Header: append([]domain.FieldSpec(nil), s.Header...),
		Lines:  append([]domain.FieldSpec(nil), s.Lines...),
	}
}

// Minimal is the built-in schema used when no definition can be found:
// a dated, referenced header and account/debit/credit lines.
func Minimal() Schema {
	return Schema{
		Header: []domain.FieldSpec{
			{Name: "date", Label: "Date", Type: domain.FieldDate, Required: true, Visible: true, Order: 1, Widget: "date"},
			{Name: "reference", Label: "Reference", Type: domain.FieldChar, Visible: true, Order: 2, MaxLength: 100},
			{Name: "description", Label: "Description", Type: domain.FieldChar, Visible: true, Order: 3, MaxLength: 500, Widget: "textarea"},
		},
		Lines: []domain.FieldSpec{
			{Name: "account", Label: "Account", Type: domain.FieldFK, Required: true, Visible: true, Order: 1, Target: "account"},
			{Name: "description", Label: "Description", Type: domain.FieldChar, Visible: true, Order: 2, MaxLength: 255},
			{Name: "debit_amount", Label: "Debit", Type: domain.FieldDecimal, Visible: true, Order: 3, MaxDigits: 19, DecimalPlaces: 4, Default: "0"},
			{Name: "credit_amount", Label: "Credit", Type: domain.FieldDecimal, Visible: true, Order: 4, MaxDigits: 19, DecimalPlaces: 4, Default: "0"},
		},
	}
}

// Merge appends the config's UDFs after the base section fields. A name that
// appears twice in the merged section is a configuration error.
func Merge(base Schema, headerUDFs, lineUDFs []domain.FieldSpec) (Schema, error) {
	out := base.clone()
	out.Header = appendUDFs(out.Header, headerUDFs)
	out.Lines = appendUDFs(out.Lines, lineUDFs)

	if err := checkDuplicates(domain.SectionHeader, out.Header); err != nil {
		return Schema{}, err
	}
	if err := checkDuplicates(domain.SectionLines, out.Lines); err != nil {
		return Schema{}, err
	}
	return out, nil
}

func appendUDFs(fields, udfs []domain.FieldSpec) []domain.FieldSpec {
	next := len(fields)
	for _, u := range udfs {
		next++
		if u.Order == 0 {
			u.Order = next
		}
		if u.Label == "" {
			u.Label = u.Name
		}
		fields = append(fields, u)
	}
	return fields
}

func checkDuplicates(section domain.Section, fields []domain.FieldSpec) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return apperrors.NewConfigurationError(fmt.Sprintf("duplicate field %q in %s section", f.Name, section))
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// coreFields are the fields posting reads whatever the voucher type declares.
var coreFields = map[domain.Section][]string{
	domain.SectionHeader: {"date"},
	domain.SectionLines:  {"account", "debit_amount", "credit_amount"},
}

// WithCoreFields returns s with any missing core field appended from the
// minimal schema, together with the names it added. A core field declared
// with a type posting cannot read is a configuration error.
func WithCoreFields(s Schema) (Schema, []string, error) {
	out := s.clone()
	minimal := Minimal()
	var added []string
	for _, section := range []domain.Section{domain.SectionHeader, domain.SectionLines} {
		fields := &out.Header
		if section == domain.SectionLines {
			fields = &out.Lines
		}
		for _, name := range coreFields[section] {
			want, _ := minimal.Field(section, name)
			if have, ok := out.Field(section, name); ok {
				if have.Type != want.Type && !(name == "account" && have.Type == domain.FieldChar) {
					return Schema{}, nil, apperrors.NewConfigurationError(
						fmt.Sprintf("field %q in %s section must be of type %s, got %s", name, section, want.Type, have.Type))
				}
				continue
			}
			want.Order = nextOrder(*fields)
			*fields = append(*fields, want)
			added = append(added, string(section)+"."+name)
		}
	}
	return out, added, nil
}

func nextOrder(fields []domain.FieldSpec) int {
	last := 0
	for _, f := range fields {
		if f.Order > last {
			last = f.Order
		}
	}
	return last + 1
}
