package billing

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"energy_bill/internal/ingest"
	"energy_bill/internal/logger"
	"energy_bill/internal/metrics"
	"energy_bill/internal/model"
)

const (
	sourceSpot        = "spot prices"
	sourceConsumption = "consumption"
)

// StopReason tells why a normalizer pass ended.
type StopReason string

const (
	StopEndOfInput StopReason = "end_of_input"
	StopEndOfData  StopReason = "end_of_data"
	StopParseError StopReason = "parse_error"
)

// Report is the immutable result of one billing run.
type Report struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Tariff    model.Tariff

	SpotPrices  *model.DayHourMap
	Consumption *model.DayHourMap

	// Days is the consumption day count; it divides the period averages.
	Days         int
	Temperatures []float64

	Aggregate Aggregate
	Totals    model.Totals

	SpotStop        StopReason
	ConsumptionStop StopReason
	// ParseErrors holds the messages of errors that ended a pass early.
	ParseErrors []string
}

// Partial reports whether either pass ended on a parse error.
func (r *Report) Partial() bool {
	return r.SpotStop == StopParseError || r.ConsumptionStop == StopParseError
}

// Inputs locates the two CSV files of a run.
type Inputs struct {
	SpotFile             string
	SpotDelimiter        rune
	ConsumptionFile      string
	ConsumptionDelimiter rune
}

// Checker runs the normalize, align and totals pipeline.
type Checker struct {
	tariff            model.Tariff
	spotFields        ingest.SpotFields
	consumptionFields ingest.ConsumptionFields
	log               logrus.FieldLogger
	now               func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

func WithTariff(t model.Tariff) Option {
	return func(c *Checker) { c.tariff = t }
}

func WithSpotFields(f ingest.SpotFields) Option {
	return func(c *Checker) { c.spotFields = f }
}

func WithConsumptionFields(f ingest.ConsumptionFields) Option {
	return func(c *Checker) { c.consumptionFields = f }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Checker) {
		if l != nil {
			c.log = l
		}
	}
}

// NewChecker returns a Checker using the default tariff and field names
// unless overridden.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		tariff:            model.DefaultTariff(),
		spotFields:        ingest.DefaultSpotFields(),
		consumptionFields: ingest.DefaultConsumptionFields(),
		log:               logger.Discard(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tariff returns the schedule applied by Run.
func (c *Checker) Tariff() model.Tariff { return c.tariff }

// Run normalizes both sources and computes the totals. A parse error ends
// only the affected pass: it is logged and recorded on the report, and the
// run continues with the days completed before it. Any other error aborts
// the run.
func (c *Checker) Run(spot, consumption ingest.RowSource) (*Report, error) {
	start := c.now()
	r := &Report{
		ID:        uuid.New(),
		CreatedAt: start,
		Tariff:    c.tariff,
	}
	log := c.log.WithField("report_id", r.ID.String())

	spotSrc := &countingSource{src: spot}
	spotDays, err := ingest.NewSpotPriceNormalizer(c.spotFields, log).Normalize(spotSrc)
	metrics.AddRows(sourceSpot, spotSrc.rows)
	if r.SpotStop, err = c.stopReason(log, sourceSpot, r, err); err != nil {
		metrics.ObserveRun(metrics.ResultError, c.now().Sub(start), 0)
		return nil, err
	}
	r.SpotPrices = spotDays

	consSrc := &countingSource{src: consumption}
	cons, err := ingest.NewConsumptionNormalizer(c.consumptionFields, log).Normalize(consSrc)
	metrics.AddRows(sourceConsumption, consSrc.rows)
	if r.ConsumptionStop, err = c.stopReason(log, sourceConsumption, r, err); err != nil {
		metrics.ObserveRun(metrics.ResultError, c.now().Sub(start), 0)
		return nil, err
	}
	if cons.EndOfData {
		r.ConsumptionStop = StopEndOfData
	}
	r.Consumption = cons.Days
	r.Days = cons.DayCount
	r.Temperatures = cons.Temperatures

	r.Aggregate = Align(r.Consumption, r.SpotPrices)
	r.Totals = Calculate(r.Aggregate, r.Days, r.Temperatures, c.tariff)

	if r.Days == 0 {
		log.Warn("no complete consumption days; period averages are undefined")
	}

	result := metrics.ResultSuccess
	if r.Partial() {
		result = metrics.ResultPartial
	}
	metrics.ObserveRun(result, c.now().Sub(start), r.Days)

	log.WithFields(logrus.Fields{
		"spot_days":        r.SpotPrices.Len(),
		"consumption_days": r.Days,
		"consumption_kwh":  r.Totals.TotalConsumption,
		"total_cost":       r.Totals.TotalFinalAmount,
		"tariff":           c.tariff.Name,
		"result":           result,
	}).Info("billing run complete")

	return r, nil
}

// RunFiles opens both inputs and runs the pipeline over them.
func (c *Checker) RunFiles(in Inputs) (*Report, error) {
	spotFile, err := os.Open(in.SpotFile)
	if err != nil {
		return nil, fmt.Errorf("opening spot price file: %w", err)
	}
	defer spotFile.Close()

	consFile, err := os.Open(in.ConsumptionFile)
	if err != nil {
		return nil, fmt.Errorf("opening consumption file: %w", err)
	}
	defer consFile.Close()

	spotSrc, err := ingest.NewCSVSource(sourceSpot, spotFile, in.SpotDelimiter,
		c.spotFields.DateTime, c.spotFields.Price)
	if err != nil {
		return nil, err
	}

	required := []string{c.consumptionFields.DateTime, c.consumptionFields.Consumption, c.consumptionFields.Temperature}
	if c.consumptionFields.Date != "" {
		required = append(required, c.consumptionFields.Date)
	}
	consSrc, err := ingest.NewCSVSource(sourceConsumption, consFile, in.ConsumptionDelimiter, required...)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"spot_file":        in.SpotFile,
		"consumption_file": in.ConsumptionFile,
	}).Debug("inputs opened")

	return c.Run(spotSrc, consSrc)
}

// stopReason classifies the error that ended a pass. Parse errors are
// recorded and swallowed; other errors are returned.
func (c *Checker) stopReason(log logrus.FieldLogger, source string, r *Report, err error) (StopReason, error) {
	if err == nil {
		return StopEndOfInput, nil
	}
	var perr *ingest.ParseError
	if errors.As(err, &perr) {
		metrics.IncParseError(source)
		r.ParseErrors = append(r.ParseErrors, perr.Error())
		log.WithError(err).WithField("source", source).
			Warn("parse error, continuing with the days read so far")
		return StopParseError, nil
	}
	return "", fmt.Errorf("%s: %w", source, err)
}

type countingSource struct {
	src  ingest.RowSource
	rows int
}

func (s *countingSource) Next() (ingest.Row, error) {
	row, err := s.src.Next()
	if err == nil {
		s.rows++
	}
	return row, err
}
