// Package summary computes voucher totals from cleaned line values.
package summary

import (
	"github.com/shopspring/decimal"
)

// Line is the part of a voucher line the totals depend on.
type Line struct {
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Quantity decimal.Decimal
	Deleted  bool
}

// Charge is an additional header level amount such as freight or a discount
// (negative). Charges do not take part in the debit/credit balance.
type Charge struct {
	Name    string
	Amount  decimal.Decimal
	Deleted bool
}

// Summary holds voucher totals. BalanceDiff is TotalDebit minus TotalCredit
// and is reported, not rejected, here.
type Summary struct {
	TotalLines    int             `json:"totalLines"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	BalanceDiff   decimal.Decimal `json:"balanceDiff"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalCharges  decimal.Decimal `json:"totalCharges"`
}

// IsBalanced reports whether debits equal credits.
func (s Summary) IsBalanced() bool {
	return s.BalanceDiff.IsZero()
}

// Compute totals the non-deleted lines and charges with exact decimal
// arithmetic. No rounding is applied.
func Compute(lines []Line, charges []Charge) Summary {
	s := Summary{
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
		TotalQuantity: decimal.Zero,
		TotalCharges:  decimal.Zero,
	}
	for _, l := range lines {
		if l.Deleted {
			continue
		}
		s.TotalLines++
		s.TotalDebit = s.TotalDebit.Add(l.Debit)
		s.TotalCredit = s.TotalCredit.Add(l.Credit)
		s.TotalQuantity = s.TotalQuantity.Add(l.Quantity)
	}
	for _, c := range charges {
		if c.Deleted {
			continue
		}
		s.TotalCharges = s.TotalCharges.Add(c.Amount)
	}
	s.BalanceDiff = s.TotalDebit.Sub(s.TotalCredit)
	return s
}
