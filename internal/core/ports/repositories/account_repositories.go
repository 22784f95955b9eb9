package repositories

import (
	"context"
)

// Reference targets understood by ReferenceReader.
const (
	TargetAccount    = "account"
	TargetCostCenter = "cost_center"
	TargetProject    = "project"
	TargetTaxCode    = "tax_code"
)

// ReferenceReader checks chart-of-account and dimension codes. It satisfies forms.ReferenceChecker.
type ReferenceReader interface {
	// ReferenceExists reports whether an active record with code exists for
	// target. Accounts are looked up in the chart of accounts; every other
	// target is a dimension kind.
	ReferenceExists(ctx context.Context, orgID, target, code string) (bool, error)
}
