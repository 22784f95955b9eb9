package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	"github.com/ritsnep/HimalytixNew-sub007/internal/utils/pagination"
)

func copyJournal(j domain.Journal) domain.Journal {
	j.Lines = append([]domain.JournalLine(nil), j.Lines...)
	if j.HeaderUDFs != nil {
		udfs := make(map[string]any, len(j.HeaderUDFs))
		for k, v := range j.HeaderUDFs {
			udfs[k] = v
		}
		j.HeaderUDFs = udfs
	}
	return j
}

func (v *view) FindJournalByID(ctx context.Context, orgID, journalID string) (*domain.Journal, error) {
	var out *domain.Journal
	err := v.do(ctx, func(d *data) error {
		j, ok := d.journals[journalID]
		if !ok || j.OrganizationID != orgID {
			return fmt.Errorf("journal %s: %w", journalID, apperrors.ErrNotFound)
		}
		c := copyJournal(j)
		out = &c
		return nil
	})
	return out, err
}

// FindJournalByIDForUpdate needs no extra locking: units of work are serialized.
func (v *view) FindJournalByIDForUpdate(ctx context.Context, orgID, journalID string) (*domain.Journal, error) {
	return v.FindJournalByID(ctx, orgID, journalID)
}

func (v *view) ListJournals(ctx context.Context, orgID string, filter portsrepo.JournalFilter, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	var page []domain.Journal
	err := v.do(ctx, func(d *data) error {
		for _, j := range d.journals {
			if j.OrganizationID != orgID {
				continue
			}
			if filter.Status != "" && j.Status != filter.Status {
				continue
			}
			if filter.VoucherType != "" && j.VoucherType != filter.VoucherType {
				continue
			}
			if cursor != nil && !cursor.Before(j.JournalDate, j.CreatedAt, j.JournalID) {
				continue
			}
			j.Lines = nil
			page = append(page, copyJournal(j))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(page, func(a, b int) bool {
		ja, jb := page[a], page[b]
		if !ja.JournalDate.Equal(jb.JournalDate) {
			return ja.JournalDate.After(jb.JournalDate)
		}
		if !ja.CreatedAt.Equal(jb.CreatedAt) {
			return ja.CreatedAt.After(jb.CreatedAt)
		}
		return ja.JournalID > jb.JournalID
	})

	var next *string
	if len(page) > limit {
		page = page[:limit]
		last := page[limit-1]
		token := pagination.Cursor{JournalDate: last.JournalDate, CreatedAt: last.CreatedAt, ID: last.JournalID}.Encode()
		next = &token
	}
	return page, next, nil
}

func (v *view) SaveJournal(ctx context.Context, journal *domain.Journal) error {
	return v.do(ctx, func(d *data) error {
		if _, ok := d.journals[journal.JournalID]; ok {
			return fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, journal.JournalID)
		}
		d.journals[journal.JournalID] = copyJournal(*journal)
		return nil
	})
}

func (v *view) UpdateJournal(ctx context.Context, journal *domain.Journal, expectedUpdatedAt time.Time) error {
	return v.do(ctx, func(d *data) error {
		stored, ok := d.journals[journal.JournalID]
		if !ok || stored.OrganizationID != journal.OrganizationID {
			return fmt.Errorf("journal %s: %w", journal.JournalID, apperrors.ErrNotFound)
		}
		if !stored.LastUpdatedAt.Equal(expectedUpdatedAt) {
			return fmt.Errorf("%w: journal %s was modified by another request", apperrors.ErrConflict, journal.JournalID)
		}
		d.journals[journal.JournalID] = copyJournal(*journal)
		return nil
	})
}

func (v *view) SaveLedgerPostings(ctx context.Context, postings []domain.LedgerPosting) error {
	return v.do(ctx, func(d *data) error {
		d.postings = append(d.postings, postings...)
		return nil
	})
}
