package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Account is a chart-of-accounts entry referenced by journal lines.
// The posting core only reads accounts; they are maintained elsewhere.
type Account struct {
	OrganizationID string      `json:"organizationID"`
	Code           string      `json:"code"` // e.g. 1000-Cash
	Name           string      `json:"name"`
	AccountType    AccountType `json:"accountType"`
	IsActive       bool        `json:"isActive"`
}

// DimensionKind names a reporting dimension a line may be tagged with.
type DimensionKind string

const (
	DimensionCostCenter DimensionKind = "cost_center"
	DimensionProject    DimensionKind = "project"
	DimensionTaxCode    DimensionKind = "tax_code"
)

// Dimension is a code within one dimension kind for an organization.
type Dimension struct {
	OrganizationID string        `json:"organizationID"`
	Kind           DimensionKind `json:"kind"`
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	IsActive       bool          `json:"isActive"`
}
