package forms

import (
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Values holds the cleaned, typed values of one validated form: strings for
// char/choice/fk, decimal.Decimal, time.Time and bool for the rest.
type Values map[string]any

// String returns a char, choice or fk value, or "" when absent.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Decimal returns a decimal value, or zero when absent.
func (v Values) Decimal(name string) decimal.Decimal {
	d, ok := v[name].(decimal.Decimal)
	if !ok {
		return decimal.Zero
	}
	return d
}

// Date returns a date value and whether it was present.
func (v Values) Date(name string) (time.Time, bool) {
	t, ok := v[name].(time.Time)
	return t, ok
}

// Bool returns a boolean value, or false when absent.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Rest returns every value whose name is not in known.
func (v Values) Rest(known ...string) map[string]any {
	skip := make(map[string]struct{}, len(known))
	for _, k := range known {
		skip[k] = struct{}{}
	}
	out := map[string]any{}
	for k, val := range v {
		if _, ok := skip[k]; ok {
			continue
		}
		switch x := val.(type) {
		case decimal.Decimal:
			out[k] = x.String()
		case time.Time:
			out[k] = x.Format(domain.DateLayout)
		default:
			out[k] = x
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Row is one non-blank line of a formset. Index is the position the row had
// in the submitted list, used for error keys.
type Row struct {
	Index  int
	Values Values
}
