package repositories

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// VoucherConfigReader defines read operations for voucher type configurations
type VoucherConfigReader interface {
	// FindConfigByCode retrieves a configuration by its code, active or not.
	FindConfigByCode(ctx context.Context, orgID, code string) (*domain.VoucherTypeConfig, error)

	// ListConfigs retrieves the configurations of an organization ordered by code.
	ListConfigs(ctx context.Context, orgID string, includeInactive bool) ([]domain.VoucherTypeConfig, error)
}

// VoucherConfigWriter defines write operations for voucher type configurations
type VoucherConfigWriter interface {
	// SaveConfig persists a new configuration.
	SaveConfig(ctx context.Context, cfg *domain.VoucherTypeConfig) error

	// UpdateConfig overwrites a configuration whose stored version equals expectedVersion.
	// cfg.Version holds the new version.
	UpdateConfig(ctx context.Context, cfg *domain.VoucherTypeConfig, expectedVersion int) error
}

// VoucherConfigRepositoryFacade combines configuration reads and writes.
type VoucherConfigRepositoryFacade interface {
	VoucherConfigReader
	VoucherConfigWriter
}
