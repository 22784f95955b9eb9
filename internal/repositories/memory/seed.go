package memory

import (
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
)

// AddAccount registers a chart-of-accounts entry.
func (s *Store) AddAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.references[refKey{a.OrganizationID, portsrepo.TargetAccount, a.Code}] = a.IsActive
}

// AddDimension registers a dimension code.
func (s *Store) AddDimension(d domain.Dimension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.references[refKey{d.OrganizationID, string(d.Kind), d.Code}] = d.IsActive
}

// AddPeriod registers an accounting period.
func (s *Store) AddPeriod(p domain.AccountingPeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.periods = append(s.data.periods, p)
}

// SetPeriodStatus changes the status of a registered period.
func (s *Store) SetPeriodStatus(periodID string, status domain.PeriodStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.periods {
		if s.data.periods[i].PeriodID == periodID {
			s.data.periods[i].Status = status
		}
	}
}

// AddConfig registers a voucher type configuration.
func (s *Store) AddConfig(cfg domain.VoucherTypeConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.configs[codeKey{cfg.OrganizationID, cfg.Code}] = cfg
}

// LedgerPostings returns the postings written for a journal.
func (s *Store) LedgerPostings(journalID string) []domain.LedgerPosting {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerPosting
	for _, p := range s.data.postings {
		if p.JournalID == journalID {
			out = append(out, p)
		}
	}
	return out
}

// Events returns every outbox event in insertion order.
func (s *Store) Events() []domain.IntegrationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.IntegrationEvent(nil), s.data.outbox...)
}

// JournalCount returns the number of journals stored for an organization.
func (s *Store) JournalCount(orgID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.data.journals {
		if j.OrganizationID == orgID {
			n++
		}
	}
	return n
}
