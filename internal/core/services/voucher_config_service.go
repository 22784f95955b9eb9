package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/forms"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
)

type voucherConfigService struct {
	BaseService
	uow      portsrepo.UnitOfWork
	resolver *schema.Resolver
}

// NewVoucherConfigService creates the voucher type configuration service.
func NewVoucherConfigService(uow portsrepo.UnitOfWork, resolver *schema.Resolver) portssvc.VoucherConfigSvcFacade {
	return &voucherConfigService{
		BaseService: newBaseService(),
		uow:         uow,
		resolver:    resolver,
	}
}

var _ portssvc.VoucherConfigSvcFacade = (*voucherConfigService)(nil)

func (s *voucherConfigService) ListConfigs(ctx context.Context, orgID string, includeInactive bool) ([]domain.VoucherTypeConfig, error) {
	configs, err := s.uow.VoucherConfigs().ListConfigs(ctx, orgID, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list voucher types", slog.String("organization_id", orgID))
		return nil, fmt.Errorf("failed to list voucher types: %w", err)
	}
	if configs == nil {
		configs = []domain.VoucherTypeConfig{}
	}
	return configs, nil
}

func (s *voucherConfigService) GetConfig(ctx context.Context, orgID, code string) (*domain.VoucherTypeConfig, error) {
	return loadConfig(ctx, s.uow, orgID, code, false)
}

// ResolveSchema returns the effective ordered fields of an active voucher
// type, with the organization's overrides applied.
func (s *voucherConfigService) ResolveSchema(ctx context.Context, orgID, code string) (*dto.SchemaResponse, error) {
	cfg, err := loadConfig(ctx, s.uow, orgID, code, true)
	if err != nil {
		return nil, err
	}
	res, err := s.resolver.Resolve(ctx, cfg)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve voucher schema", slog.String("voucher_type", code))
		return nil, err
	}

	overrides := forms.OverridesFor(cfg)
	return &dto.SchemaResponse{
		VoucherType: cfg.Code,
		Version:     cfg.Version,
		Source:      res.Source,
		Found:       res.Found,
		Header:      forms.BuildHeaderContract(res.Schema, overrides, nil).Fields(),
		Lines:       forms.BuildLineContract(res.Schema, overrides, nil).Fields(),
		Warnings:    res.Warnings,
		Tried:       res.Tried,
	}, nil
}

// SaveConfig creates a configuration or updates it at ExpectedVersion. The
// stored schema and UDFs are checked before anything is written.
func (s *voucherConfigService) SaveConfig(ctx context.Context, orgID, code string, req dto.SaveVoucherConfigRequest, userID string) (*domain.VoucherTypeConfig, error) {
	code = strings.TrimSpace(code)
	candidate := &domain.VoucherTypeConfig{
		OrganizationID:   orgID,
		Code:             code,
		Name:             strings.TrimSpace(req.Name),
		SchemaDefinition: strings.TrimSpace(req.SchemaDefinition),
		JournalTypeCode:  req.JournalTypeCode,
		ShowDimensions:   req.ShowDimensions,
		ShowTaxDetails:   req.ShowTaxDetails,
		FieldOverrides:   req.FieldOverrides,
		HeaderUDFs:       visibleUDFs(req.HeaderUDFs),
		LineUDFs:         visibleUDFs(req.LineUDFs),
		NumberPrefix:     strings.TrimSpace(req.NumberPrefix),
		Approval:         req.Approval,
		EBillingEnabled:  req.EBillingEnabled,
		IsActive:         true,
	}
	if err := validateConfig(candidate); err != nil {
		return nil, err
	}
	// resolve without an id so the check bypasses the cache
	if _, err := s.resolver.Resolve(ctx, candidate); err != nil {
		return nil, err
	}

	now := s.Now()
	var saved *domain.VoucherTypeConfig
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		existing, err := tx.VoucherConfigs().FindConfigByCode(ctx, orgID, code)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			candidate.ID = s.newID()
			candidate.Version = 1
			candidate.AuditFields = domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}
			if err := tx.VoucherConfigs().SaveConfig(ctx, candidate); err != nil {
				return fmt.Errorf("failed to save voucher type: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load voucher type: %w", err)
		default:
			if req.ExpectedVersion != existing.Version {
				return apperrors.NewConflictError(fmt.Sprintf("voucher type %q is at version %d, not %d", code, existing.Version, req.ExpectedVersion))
			}
			candidate.ID = existing.ID
			candidate.Version = existing.Version + 1
			candidate.AuditFields = existing.AuditFields
			candidate.Touch(userID, now)
			if err := tx.VoucherConfigs().UpdateConfig(ctx, candidate, existing.Version); err != nil {
				return fmt.Errorf("failed to update voucher type: %w", err)
			}
		}
		saved = candidate
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to save voucher type", slog.String("voucher_type", code))
		return nil, err
	}

	s.resolver.Purge()
	s.LogInfo(ctx, "Voucher type saved", slog.String("voucher_type", code), slog.Int("version", saved.Version))
	return saved, nil
}

// DeactivateConfig retires a configuration. Existing journals keep their type.
func (s *voucherConfigService) DeactivateConfig(ctx context.Context, orgID, code, userID string) error {
	now := s.Now()
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		cfg, err := loadConfig(ctx, tx, orgID, code, false)
		if err != nil {
			return err
		}
		if !cfg.IsActive {
			return nil
		}
		expected := cfg.Version
		cfg.IsActive = false
		cfg.Version++
		cfg.Touch(userID, now)
		if err := tx.VoucherConfigs().UpdateConfig(ctx, cfg, expected); err != nil {
			return fmt.Errorf("failed to deactivate voucher type: %w", err)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to deactivate voucher type", slog.String("voucher_type", code))
		return err
	}
	s.resolver.Purge()
	s.LogInfo(ctx, "Voucher type deactivated", slog.String("voucher_type", code))
	return nil
}

// visibleUDFs returns copies of the UDFs marked visible. Hiding a UDF is done
// through field overrides.
func visibleUDFs(udfs []domain.FieldSpec) []domain.FieldSpec {
	if len(udfs) == 0 {
		return nil
	}
	out := make([]domain.FieldSpec, len(udfs))
	for i, u := range udfs {
		u.Name = strings.TrimSpace(u.Name)
		u.Visible = true
		out[i] = u
	}
	return out
}

func validateConfig(cfg *domain.VoucherTypeConfig) error {
	errs := apperrors.FieldErrors{}
	if cfg.Code == "" || cfg.Code != schema.Slugify(cfg.Code) {
		errs.Add("code", "Use lowercase letters, digits and hyphens only.")
	}
	if cfg.SchemaDefinition != "" {
		if _, err := schema.Parse([]byte(cfg.SchemaDefinition)); err != nil {
			errs.Add("schemaDefinition", err.Error())
		}
	}
	checkUDFs(errs, "headerUDFs", cfg.HeaderUDFs)
	checkUDFs(errs, "lineUDFs", cfg.LineUDFs)
	if len(errs) > 0 {
		return apperrors.NewValidationError(errs)
	}
	return nil
}

func checkUDFs(errs apperrors.FieldErrors, key string, udfs []domain.FieldSpec) {
	for i, u := range udfs {
		prefix := fmt.Sprintf("%s[%d].", key, i)
		if u.Name == "" {
			errs.Add(prefix+"name", "This field is required.")
		}
		if !u.Type.Valid() {
			errs.Add(prefix+"type", fmt.Sprintf("Unknown field type %q.", u.Type))
		}
		if u.Type == domain.FieldChoice && len(u.Choices) == 0 {
			errs.Add(prefix+"choices", "A choice field needs at least one choice.")
		}
		if u.Type == domain.FieldFK && u.Target == "" {
			errs.Add(prefix+"target", "A reference field needs a target.")
		}
	}
}
