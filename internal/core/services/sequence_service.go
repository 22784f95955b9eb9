package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
)

type sequenceService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewSequenceService creates the numbering service.
func NewSequenceService(uow portsrepo.UnitOfWork) portssvc.SequenceSvc {
	return &sequenceService{BaseService: newBaseService(), uow: uow}
}

var _ portssvc.SequenceSvc = (*sequenceService)(nil)

// Next issues the next value of a scope in its own transaction.
func (s *sequenceService) Next(ctx context.Context, orgID, modelLabel, fieldName string) (int64, error) {
	scope := domain.SequenceScope{
		OrganizationID: strings.TrimSpace(orgID),
		ModelLabel:     strings.TrimSpace(modelLabel),
		FieldName:      strings.TrimSpace(fieldName),
	}
	errs := apperrors.FieldErrors{}
	if scope.ModelLabel == "" {
		errs.Add("model_label", "This field is required.")
	}
	if scope.FieldName == "" {
		errs.Add("field_name", "This field is required.")
	}
	if len(errs) > 0 {
		return 0, apperrors.NewValidationError(errs)
	}

	var n int64
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		var err error
		n, err = tx.Sequences().NextValue(ctx, scope)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to issue sequence number",
			slog.String("model_label", scope.ModelLabel), slog.String("field_name", scope.FieldName))
		return 0, apperrors.NewSequenceError(err)
	}
	s.LogDebug(ctx, "Sequence number issued", slog.String("model_label", scope.ModelLabel), slog.Int64("value", n))
	return n, nil
}
