package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (v *view) ReferenceExists(ctx context.Context, orgID, target, code string) (bool, error) {
	var active bool
	err := v.do(ctx, func(d *data) error {
		active = d.references[refKey{orgID, target, code}]
		return nil
	})
	return active, err
}

func (v *view) FindOpenPeriod(ctx context.Context, orgID string, date time.Time) (*domain.AccountingPeriod, error) {
	var out *domain.AccountingPeriod
	err := v.do(ctx, func(d *data) error {
		for _, p := range d.periods {
			if p.OrganizationID == orgID && p.AcceptsPostings(date) {
				p := p
				out = &p
				return nil
			}
		}
		return fmt.Errorf("open period for %s: %w", date.Format(domain.DateLayout), apperrors.ErrNotFound)
	})
	return out, err
}

func (v *view) FindConfigByCode(ctx context.Context, orgID, code string) (*domain.VoucherTypeConfig, error) {
	var out *domain.VoucherTypeConfig
	err := v.do(ctx, func(d *data) error {
		cfg, ok := d.configs[codeKey{orgID, code}]
		if !ok {
			return fmt.Errorf("voucher type %q: %w", code, apperrors.ErrNotFound)
		}
		out = &cfg
		return nil
	})
	return out, err
}

func (v *view) ListConfigs(ctx context.Context, orgID string, includeInactive bool) ([]domain.VoucherTypeConfig, error) {
	var out []domain.VoucherTypeConfig
	err := v.do(ctx, func(d *data) error {
		for k, cfg := range d.configs {
			if k.org == orgID && (includeInactive || cfg.IsActive) {
				out = append(out, cfg)
			}
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool { return out[a].Code < out[b].Code })
	return out, err
}

func (v *view) SaveConfig(ctx context.Context, cfg *domain.VoucherTypeConfig) error {
	return v.do(ctx, func(d *data) error {
		k := codeKey{cfg.OrganizationID, cfg.Code}
		if _, ok := d.configs[k]; ok {
			return fmt.Errorf("%w: voucher type %q", apperrors.ErrDuplicate, cfg.Code)
		}
		d.configs[k] = *cfg
		return nil
	})
}

func (v *view) UpdateConfig(ctx context.Context, cfg *domain.VoucherTypeConfig, expectedVersion int) error {
	return v.do(ctx, func(d *data) error {
		k := codeKey{cfg.OrganizationID, cfg.Code}
		stored, ok := d.configs[k]
		if !ok {
			return fmt.Errorf("voucher type %q: %w", cfg.Code, apperrors.ErrNotFound)
		}
		if stored.Version != expectedVersion {
			return fmt.Errorf("%w: voucher type %q is at version %d", apperrors.ErrConflict, cfg.Code, stored.Version)
		}
		d.configs[k] = *cfg
		return nil
	})
}
