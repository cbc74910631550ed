package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"energy_bill/internal/billing"
)

// ErrNotFound is returned when no report matches a lookup.
var ErrNotFound = errors.New("report not found")

// DefaultRetention is the number of reports kept when New is given a
// non-positive limit.
const DefaultRetention = 20

// Summary describes a stored report without its series.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Tariff    string    `json:"tariff"`
	Days      int       `json:"days"`
	Partial   bool      `json:"partial"`
}

// Store holds billing reports in memory, ordered by creation time. Reports
// are never modified after Add; the oldest are dropped beyond the retention
// limit.
type Store struct {
	mu        sync.RWMutex
	retention int
	reports   []*billing.Report // sorted by CreatedAt
	byID      map[uuid.UUID]*billing.Report
}

func New(retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		retention: retention,
		byID:      make(map[uuid.UUID]*billing.Report),
	}
}

// Add stores r and evicts the oldest reports over the retention limit.
// Adding a report whose ID is already stored is a no-op.
func (s *Store) Add(r *billing.Report) {
	if r == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return
	}

	idx := sort.Search(len(s.reports), func(i int) bool {
		return s.reports[i].CreatedAt.After(r.CreatedAt)
	})
	s.reports = append(s.reports, nil)
	copy(s.reports[idx+1:], s.reports[idx:])
	s.reports[idx] = r
	s.byID[r.ID] = r

	for len(s.reports) > s.retention {
		delete(s.byID, s.reports[0].ID)
		s.reports[0] = nil
		s.reports = s.reports[1:]
	}
}

// Get returns the report with the given ID.
func (s *Store) Get(id uuid.UUID) (*billing.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Latest returns the most recently created report.
func (s *Store) Latest() (*billing.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return nil, ErrNotFound
	}
	return s.reports[len(s.reports)-1], nil
}

// ReportAt returns the most recent report created at or before t.
func (s *Store) ReportAt(t time.Time) (*billing.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := sort.Search(len(s.reports), func(i int) bool {
		return s.reports[i].CreatedAt.After(t)
	})
	if idx == 0 {
		return nil, ErrNotFound
	}
	return s.reports[idx-1], nil
}

// List returns summaries of all stored reports, newest first.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.reports))
	for i := len(s.reports) - 1; i >= 0; i-- {
		out = append(out, Summarize(s.reports[i]))
	}
	return out
}

// Len returns the number of stored reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

func Summarize(r *billing.Report) Summary {
	return Summary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Tariff:    r.Tariff.Name,
		Days:      r.Days,
		Partial:   r.Partial(),
	}
}
