package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	"github.com/ritsnep/HimalytixNew-sub007/internal/utils/pagination"
)

const journalColumns = `
	journal_id, organization_id, voucher_config_id, voucher_type, journal_type_code,
	journal_date, reference, description, status, voucher_number, sequence_number,
	total_debit, total_credit, is_balanced, period_id, approved_by, approved_at,
	posted_by, posted_at, original_journal_id, reversing_journal_id, rejection_notes,
	header_udfs, created_at, created_by, last_updated_at, last_updated_by`

func scanJournal(row pgx.Row) (*domain.Journal, error) {
	var j domain.Journal
	var voucherNumber sql.NullString
	var sequenceNumber sql.NullInt64
	err := row.Scan(
		&j.JournalID,
		&j.OrganizationID,
		&j.VoucherConfigID,
		&j.VoucherType,
		&j.JournalTypeCode,
		&j.JournalDate,
		&j.Reference,
		&j.Description,
		&j.Status,
		&voucherNumber,
		&sequenceNumber,
		&j.TotalDebit,
		&j.TotalCredit,
		&j.IsBalanced,
		&j.PeriodID,
		&j.ApprovedBy,
		&j.ApprovedAt,
		&j.PostedBy,
		&j.PostedAt,
		&j.OriginalJournalID,
		&j.ReversingJournalID,
		&j.RejectionNotes,
		&j.HeaderUDFs,
		&j.CreatedAt,
		&j.CreatedBy,
		&j.LastUpdatedAt,
		&j.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	j.VoucherNumber = voucherNumber.String
	j.SequenceNumber = sequenceNumber.Int64
	return &j, nil
}

func (c *conn) findJournal(ctx context.Context, orgID, journalID, lock string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE organization_id = $1 AND journal_id = $2 ` + lock
	j, err := scanJournal(c.q.QueryRow(ctx, query, orgID, journalID))
	if err != nil {
		return nil, notFound(err, "journal "+journalID)
	}
	if j.Lines, err = c.findLines(ctx, journalID); err != nil {
		return nil, err
	}
	return j, nil
}

// FindJournalByID retrieves a journal together with its lines.
func (c *conn) FindJournalByID(ctx context.Context, orgID, journalID string) (*domain.Journal, error) {
	return c.findJournal(ctx, orgID, journalID, "")
}

// FindJournalByIDForUpdate retrieves a journal and locks its row.
func (c *conn) FindJournalByIDForUpdate(ctx context.Context, orgID, journalID string) (*domain.Journal, error) {
	return c.findJournal(ctx, orgID, journalID, "FOR UPDATE")
}

func (c *conn) findLines(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, journal_id, line_number, account_code, description,
		       debit_amount, credit_amount, quantity, cost_center, project, tax_code, udfs
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY line_number;
	`
	rows, err := c.q.Query(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("query lines of journal %s: %w", journalID, err)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var l domain.JournalLine
		if err := rows.Scan(
			&l.LineID,
			&l.JournalID,
			&l.LineNumber,
			&l.AccountCode,
			&l.Description,
			&l.DebitAmount,
			&l.CreditAmount,
			&l.Quantity,
			&l.CostCenter,
			&l.Project,
			&l.TaxCode,
			&l.UDFs,
		); err != nil {
			return nil, fmt.Errorf("scan line of journal %s: %w", journalID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines of journal %s: %w", journalID, err)
	}
	return lines, nil
}

// ListJournals retrieves a page of journals, newest journal date first.
func (c *conn) ListJournals(ctx context.Context, orgID string, filter portsrepo.JournalFilter, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	query := `SELECT ` + journalColumns + ` FROM journals WHERE organization_id = $1`
	args := []any{orgID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.VoucherType != "" {
		args = append(args, filter.VoucherType)
		query += ` AND voucher_type = $` + strconv.Itoa(len(args))
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursor.JournalDate, cursor.CreatedAt, cursor.ID)
		n := len(args)
		query += fmt.Sprintf(` AND (journal_date, created_at, journal_id) < ($%d, $%d, $%d)`, n-2, n-1, n)
	}
	args = append(args, fetchLimit)
	query += ` ORDER BY journal_date DESC, created_at DESC, journal_id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list journals of %s: %w", orgID, err)
	}
	defer rows.Close()

	journals := make([]domain.Journal, 0, fetchLimit)
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan journal row: %w", err)
		}
		journals = append(journals, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate journal rows: %w", err)
	}

	var next *string
	if len(journals) > limit {
		last := journals[limit-1]
		token := pagination.Cursor{JournalDate: last.JournalDate, CreatedAt: last.CreatedAt, ID: last.JournalID}.Encode()
		next = &token
		journals = journals[:limit]
	}
	return journals, next, nil
}

// SaveJournal persists a new journal and its lines.
func (c *conn) SaveJournal(ctx context.Context, j *domain.Journal) error {
	query := `INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27);`
	_, err := c.q.Exec(ctx, query,
		j.JournalID,
		j.OrganizationID,
		j.VoucherConfigID,
		j.VoucherType,
		j.JournalTypeCode,
		j.JournalDate,
		j.Reference,
		j.Description,
		j.Status,
		nullIfEmpty(j.VoucherNumber),
		sequenceValue(j.SequenceNumber),
		j.TotalDebit,
		j.TotalCredit,
		j.IsBalanced,
		j.PeriodID,
		j.ApprovedBy,
		j.ApprovedAt,
		j.PostedBy,
		j.PostedAt,
		j.OriginalJournalID,
		j.ReversingJournalID,
		j.RejectionNotes,
		j.HeaderUDFs,
		j.CreatedAt,
		j.CreatedBy,
		j.LastUpdatedAt,
		j.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, j.JournalID)
		}
		return fmt.Errorf("insert journal %s: %w", j.JournalID, err)
	}
	return c.insertLines(ctx, j)
}

// UpdateJournal overwrites the header and replaces the lines of a journal
// whose stored last_updated_at still equals expectedUpdatedAt.
func (c *conn) UpdateJournal(ctx context.Context, j *domain.Journal, expectedUpdatedAt time.Time) error {
	query := `
		UPDATE journals SET
			voucher_config_id = $3, journal_type_code = $4, journal_date = $5, reference = $6,
			description = $7, status = $8, voucher_number = $9, sequence_number = $10,
			total_debit = $11, total_credit = $12, is_balanced = $13, period_id = $14,
			approved_by = $15, approved_at = $16, posted_by = $17, posted_at = $18,
			reversing_journal_id = $19, rejection_notes = $20, header_udfs = $21,
			last_updated_at = $22, last_updated_by = $23
		WHERE organization_id = $1 AND journal_id = $2 AND last_updated_at = $24;
	`
	tag, err := c.q.Exec(ctx, query,
		j.OrganizationID,
		j.JournalID,
		j.VoucherConfigID,
		j.JournalTypeCode,
		j.JournalDate,
		j.Reference,
		j.Description,
		j.Status,
		nullIfEmpty(j.VoucherNumber),
		sequenceValue(j.SequenceNumber),
		j.TotalDebit,
		j.TotalCredit,
		j.IsBalanced,
		j.PeriodID,
		j.ApprovedBy,
		j.ApprovedAt,
		j.PostedBy,
		j.PostedAt,
		j.ReversingJournalID,
		j.RejectionNotes,
		j.HeaderUDFs,
		j.LastUpdatedAt,
		j.LastUpdatedBy,
		expectedUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: voucher number %s", apperrors.ErrDuplicate, j.VoucherNumber)
		}
		return fmt.Errorf("update journal %s: %w", j.JournalID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := c.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journals WHERE organization_id = $1 AND journal_id = $2)`,
			j.OrganizationID, j.JournalID).Scan(&exists); err != nil {
			return fmt.Errorf("check journal %s: %w", j.JournalID, err)
		}
		if !exists {
			return fmt.Errorf("journal %s: %w", j.JournalID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("%w: journal %s was modified by another request", apperrors.ErrConflict, j.JournalID)
	}

	if _, err := c.q.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id = $1`, j.JournalID); err != nil {
		return fmt.Errorf("delete lines of journal %s: %w", j.JournalID, err)
	}
	return c.insertLines(ctx, j)
}

func (c *conn) insertLines(ctx context.Context, j *domain.Journal) error {
	if len(j.Lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (line_id, journal_id, line_number, account_code, description,
			debit_amount, credit_amount, quantity, cost_center, project, tax_code, udfs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, l := range j.Lines {
		batch.Queue(lineQuery,
			l.LineID,
			j.JournalID,
			l.LineNumber,
			l.AccountCode,
			l.Description,
			l.DebitAmount,
			l.CreditAmount,
			l.Quantity,
			l.CostCenter,
			l.Project,
			l.TaxCode,
			l.UDFs,
		)
	}
	// Close the batch results to surface the first failed insert
	if err := c.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert lines of journal %s: %w", j.JournalID, err)
	}
	return nil
}

// SaveLedgerPostings writes one general-ledger row per posted line.
func (c *conn) SaveLedgerPostings(ctx context.Context, postings []domain.LedgerPosting) error {
	if len(postings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_postings (posting_id, organization_id, journal_id, line_number, account_code,
			debit, credit, amount, period_id, posting_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, p := range postings {
		batch.Queue(query,
			p.PostingID,
			p.OrganizationID,
			p.JournalID,
			p.LineNumber,
			p.AccountCode,
			p.Debit,
			p.Credit,
			p.Amount,
			p.PeriodID,
			p.PostingDate,
			p.CreatedAt,
		)
	}
	if err := c.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert ledger postings of journal %s: %w", postings[0].JournalID, err)
	}
	return nil
}

func sequenceValue(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
