package forms

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/shopspring/decimal"
)

// isEmpty reports whether a raw input value counts as "not provided".
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case json.Number:
		return x.String() == ""
	}
	return false
}

// isBlankValue reports whether v is empty or equal to the field's declared
// default. An unchecked boolean counts as blank.
func isBlankValue(spec domain.FieldSpec, v any) bool {
	if isEmpty(v) {
		return true
	}
	if spec.Type == domain.FieldBoolean {
		if b, err := toBool(v); err == nil && !b {
			if spec.Default == nil {
				return true
			}
			if def, err := toBool(spec.Default); err == nil && !def {
				return true
			}
		}
	}
	if spec.Default == nil {
		return false
	}
	if spec.Type == domain.FieldDecimal {
		a, errA := toDecimal(v)
		b, errB := toDecimal(spec.Default)
		return errA == nil && errB == nil && a.Equal(b)
	}
	return strings.TrimSpace(fmt.Sprint(v)) == strings.TrimSpace(fmt.Sprint(spec.Default))
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(domain.DateLayout)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, nil
		}
		return *x, nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(x), ",", ""))
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	}
	return decimal.Zero, fmt.Errorf("unsupported number %T", v)
}

func toDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return domain.TruncateToDate(x), nil
	case string:
		s := strings.TrimSpace(x)
		if t, err := time.Parse(domain.DateLayout, s); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
		return domain.TruncateToDate(t), nil
	}
	return time.Time{}, fmt.Errorf("unsupported date %T", v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case json.Number:
		return strconv.ParseBool(x.String())
	case float64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "on", "y", "t":
			return true, nil
		case "false", "0", "no", "off", "n", "f", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("unsupported boolean %v", v)
}

// digitCounts returns the number of integer and fractional digits of d,
// ignoring sign, a lone leading zero and trailing fractional zeros.
func digitCounts(d decimal.Decimal) (whole, frac int) {
	s := d.Abs().String()
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart != "0" {
		whole = len(intPart)
	}
	return whole, len(strings.TrimRight(fracPart, "0"))
}
