package api

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"energy_bill/internal/billing"
	"energy_bill/internal/logger"
	"energy_bill/internal/store"
)

// Service recomputes reports from the configured inputs and keeps them in
// the store.
type Service struct {
	mu       sync.Mutex
	checker  *billing.Checker
	inputs   billing.Inputs
	store    *store.Store
	onReport func(*billing.Report)
	log      logrus.FieldLogger
}

// NewService returns a Service. onReport, when non-nil, is called after
// each stored report.
func NewService(checker *billing.Checker, inputs billing.Inputs, s *store.Store, onReport func(*billing.Report), log logrus.FieldLogger) *Service {
	return &Service{
		checker:  checker,
		inputs:   inputs,
		store:    s,
		onReport: onReport,
		log:      logger.OrDiscard(log),
	}
}

// Reload runs the checker over the input files. Reloads are serialized.
func (s *Service) Reload(ctx context.Context) (*billing.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.checker.RunFiles(s.inputs)
	if err != nil {
		return nil, err
	}
	s.store.Add(r)
	s.log.WithFields(logrus.Fields{
		"report_id": r.ID.String(),
		"days":      r.Days,
		"tariff":    r.Tariff.Name,
		"partial":   r.Partial(),
	}).Info("report stored")

	if s.onReport != nil {
		s.onReport(r)
	}
	return r, nil
}

// TariffName names the schedule applied on reload.
func (s *Service) TariffName() string { return s.checker.Tariff().Name }

// Store returns the report store.
func (s *Service) Store() *store.Store { return s.store }
