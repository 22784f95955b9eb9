package services

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
)

// VoucherConfigReaderSvc defines read operations for voucher type configurations
type VoucherConfigReaderSvc interface {
	ListConfigs(ctx context.Context, orgID string, includeInactive bool) ([]domain.VoucherTypeConfig, error)
	GetConfig(ctx context.Context, orgID, code string) (*domain.VoucherTypeConfig, error)

	// ResolveSchema returns the effective form schema of an active voucher type.
	ResolveSchema(ctx context.Context, orgID, code string) (*dto.SchemaResponse, error)
}

// VoucherConfigWriterSvc defines write operations for voucher type configurations
type VoucherConfigWriterSvc interface {
	// SaveConfig creates the configuration or updates it and bumps its version.
	SaveConfig(ctx context.Context, orgID, code string, req dto.SaveVoucherConfigRequest, userID string) (*domain.VoucherTypeConfig, error)

	// DeactivateConfig soft-deletes a configuration.
	DeactivateConfig(ctx context.Context, orgID, code, userID string) error
}

// VoucherConfigSvcFacade combines configuration reads and writes.
type VoucherConfigSvcFacade interface {
	VoucherConfigReaderSvc
	VoucherConfigWriterSvc
}
