package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

const configColumns = `
	id, organization_id, code, name, schema_definition, journal_type_code,
	show_dimensions, show_tax_details, field_overrides, header_udfs, line_udfs,
	number_prefix, approval, e_billing_enabled, is_active, version,
	created_at, created_by, last_updated_at, last_updated_by`

func scanConfig(row pgx.Row) (*domain.VoucherTypeConfig, error) {
	var c domain.VoucherTypeConfig
	err := row.Scan(
		&c.ID,
		&c.OrganizationID,
		&c.Code,
		&c.Name,
		&c.SchemaDefinition,
		&c.JournalTypeCode,
		&c.ShowDimensions,
		&c.ShowTaxDetails,
		&c.FieldOverrides,
		&c.HeaderUDFs,
		&c.LineUDFs,
		&c.NumberPrefix,
		&c.Approval,
		&c.EBillingEnabled,
		&c.IsActive,
		&c.Version,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConfigByCode retrieves a configuration by its code, active or not.
func (c *conn) FindConfigByCode(ctx context.Context, orgID, code string) (*domain.VoucherTypeConfig, error) {
	query := `SELECT ` + configColumns + ` FROM voucher_configs WHERE organization_id = $1 AND code = $2;`
	cfg, err := scanConfig(c.q.QueryRow(ctx, query, orgID, code))
	if err != nil {
		return nil, notFound(err, "voucher type "+code)
	}
	return cfg, nil
}

func (c *conn) ListConfigs(ctx context.Context, orgID string, includeInactive bool) ([]domain.VoucherTypeConfig, error) {
	query := `SELECT ` + configColumns + ` FROM voucher_configs WHERE organization_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY code;`

	rows, err := c.q.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list voucher types of %s: %w", orgID, err)
	}
	defer rows.Close()

	configs := []domain.VoucherTypeConfig{}
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher type row: %w", err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voucher type rows: %w", err)
	}
	return configs, nil
}

func (c *conn) SaveConfig(ctx context.Context, cfg *domain.VoucherTypeConfig) error {
	query := `INSERT INTO voucher_configs (` + configColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);`
	_, err := c.q.Exec(ctx, query,
		cfg.ID,
		cfg.OrganizationID,
		cfg.Code,
		cfg.Name,
		cfg.SchemaDefinition,
		cfg.JournalTypeCode,
		cfg.ShowDimensions,
		cfg.ShowTaxDetails,
		cfg.FieldOverrides,
		cfg.HeaderUDFs,
		cfg.LineUDFs,
		cfg.NumberPrefix,
		cfg.Approval,
		cfg.EBillingEnabled,
		cfg.IsActive,
		cfg.Version,
		cfg.CreatedAt,
		cfg.CreatedBy,
		cfg.LastUpdatedAt,
		cfg.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: voucher type %s", apperrors.ErrDuplicate, cfg.Code)
		}
		return fmt.Errorf("insert voucher type %s: %w", cfg.Code, err)
	}
	return nil
}

// UpdateConfig overwrites a configuration whose stored version equals expectedVersion.
func (c *conn) UpdateConfig(ctx context.Context, cfg *domain.VoucherTypeConfig, expectedVersion int) error {
	query := `
		UPDATE voucher_configs SET
			name = $3, schema_definition = $4, journal_type_code = $5, show_dimensions = $6,
			show_tax_details = $7, field_overrides = $8, header_udfs = $9, line_udfs = $10,
			number_prefix = $11, approval = $12, e_billing_enabled = $13, is_active = $14,
			version = $15, last_updated_at = $16, last_updated_by = $17
		WHERE organization_id = $1 AND code = $2 AND version = $18;
	`
	tag, err := c.q.Exec(ctx, query,
		cfg.OrganizationID,
		cfg.Code,
		cfg.Name,
		cfg.SchemaDefinition,
		cfg.JournalTypeCode,
		cfg.ShowDimensions,
		cfg.ShowTaxDetails,
		cfg.FieldOverrides,
		cfg.HeaderUDFs,
		cfg.LineUDFs,
		cfg.NumberPrefix,
		cfg.Approval,
		cfg.EBillingEnabled,
		cfg.IsActive,
		cfg.Version,
		cfg.LastUpdatedAt,
		cfg.LastUpdatedBy,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update voucher type %s: %w", cfg.Code, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := c.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM voucher_configs WHERE organization_id = $1 AND code = $2)`,
			cfg.OrganizationID, cfg.Code).Scan(&exists); err != nil {
			return fmt.Errorf("check voucher type %s: %w", cfg.Code, err)
		}
		if !exists {
			return fmt.Errorf("voucher type %s: %w", cfg.Code, apperrors.ErrNotFound)
		}
		return fmt.Errorf("%w: voucher type %s was modified by another request", apperrors.ErrConflict, cfg.Code)
	}
	return nil
}
