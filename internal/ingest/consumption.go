package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"energy_bill/internal/logger"
	"energy_bill/internal/model"
)

// EndOfDataValue marks the first hour without metered consumption. The
// metering export pads the rest of the period with it.
const EndOfDataValue = "0.00"

// ConsumptionFields names the consumption columns. Date is optional: when
// set, the date is read from it and DateTime may carry only the hour.
type ConsumptionFields struct {
	DateTime    string `mapstructure:"datetime_field"`
	Consumption string `mapstructure:"consumption_field"`
	Temperature string `mapstructure:"temperature_field"`
	Date        string `mapstructure:"date_field"`
}

// DefaultConsumptionFields matches the Finnish metering export:
//
//	Alkaa;Kulutus (kWh);Keskilämpötila
//	3.10.2022 0:00;0,42;8,1
func DefaultConsumptionFields() ConsumptionFields {
	return ConsumptionFields{
		DateTime:    "Alkaa",
		Consumption: "Kulutus (kWh)",
		Temperature: "Keskilämpötila",
	}
}

// ConsumptionResult is the outcome of a consumption pass.
type ConsumptionResult struct {
	Days *model.DayHourMap
	// DayCount counts completed days. It is the divisor for period averages.
	DayCount int
	// Temperatures holds one mean per completed day, in input order.
	Temperatures []float64
	// EndOfData is set when the pass stopped at the EndOfDataValue sentinel.
	EndOfData bool
}

// ConsumptionNormalizer groups hourly consumption by day and collects daily
// mean temperatures.
type ConsumptionNormalizer struct {
	Fields ConsumptionFields
	Log    logrus.FieldLogger
}

func NewConsumptionNormalizer(fields ConsumptionFields, log logrus.FieldLogger) *ConsumptionNormalizer {
	return &ConsumptionNormalizer{Fields: fields, Log: logger.OrDiscard(log)}
}

// Normalize reads rows from src until input ends, the end-of-data sentinel
// is seen, or a field fails to parse. Rows must be grouped by date.
//
// When two consecutive rows share an hour label (the repeated hour of the
// autumn clock change) their consumption is summed into one bucket.
func (n *ConsumptionNormalizer) Normalize(src RowSource) (ConsumptionResult, error) {
	const source = "consumption"
	log := logger.OrDiscard(n.Log).WithField("source", source)

	res := ConsumptionResult{Days: model.NewDayHourMap()}
	current := model.HourMap{}
	var dayTemps []float64
	var dayTracker, prevHour string

	flush := func() {
		res.Days.Set(dayTracker, current)
		res.DayCount++
		var sum float64
		for _, t := range dayTemps {
			sum += t
		}
		mean := sum / model.HoursPerDay
		res.Temperatures = append(res.Temperatures, mean)
		log.WithFields(logrus.Fields{
			"date":        dayTracker,
			"hours":       len(current),
			"temperature": mean,
		}).Debug("day complete")
		current = model.HourMap{}
		dayTemps = dayTemps[:0]
	}

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				return res, perr
			}
			return res, fmt.Errorf("reading %s: %w", source, err)
		}

		date, hour, err := n.dateHour(row)
		if err != nil {
			return res, err
		}

		if dayTracker != "" && date != dayTracker {
			flush()
		}
		dayTracker = date

		rawCons, err := row.Field(n.Fields.Consumption)
		if err != nil {
			return res, asParseError(source, row, n.Fields.Consumption, "", err)
		}
		rawTemp, err := row.Field(n.Fields.Temperature)
		if err != nil {
			return res, asParseError(source, row, n.Fields.Temperature, "", err)
		}
		consStr := NormalizeDecimal(rawCons)
		tempStr := NormalizeDecimal(rawTemp)

		if consStr == EndOfDataValue {
			log.WithFields(logrus.Fields{"date": date, "hour": hour, "line": row.Line()}).
				Info("end of consumption data")
			res.EndOfData = true
			return res, nil
		}

		cons, err := strconv.ParseFloat(consStr, 64)
		if err != nil {
			return res, asParseError(source, row, n.Fields.Consumption, rawCons, err)
		}
		temp, err := strconv.ParseFloat(tempStr, 64)
		if err != nil {
			return res, asParseError(source, row, n.Fields.Temperature, rawTemp, err)
		}

		if hour == prevHour {
			current[hour] += cons
			log.WithFields(logrus.Fields{"date": date, "hour": hour}).Debug("repeated hour merged")
		} else {
			current[hour] = cons
		}
		dayTemps = append(dayTemps, temp)
		prevHour = hour
	}

	if dayTracker != "" {
		flush()
	}
	return res, nil
}

func (n *ConsumptionNormalizer) dateHour(row Row) (string, string, error) {
	const source = "consumption"

	raw, err := row.Field(n.Fields.DateTime)
	if err != nil {
		return "", "", asParseError(source, row, n.Fields.DateTime, "", err)
	}

	var rawDate, rawHour string
	if n.Fields.Date != "" {
		rawDate, err = row.Field(n.Fields.Date)
		if err != nil {
			return "", "", asParseError(source, row, n.Fields.Date, "", err)
		}
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			return "", "", asParseError(source, row, n.Fields.DateTime, raw, errors.New("empty hour"))
		}
		rawHour = fields[len(fields)-1]
	} else {
		rawDate, rawHour, err = SplitDateTime(raw)
		if err != nil {
			return "", "", asParseError(source, row, n.Fields.DateTime, raw, err)
		}
	}

	date, err := CanonicalDate(rawDate)
	if err != nil {
		field, value := n.Fields.DateTime, raw
		if n.Fields.Date != "" {
			field, value = n.Fields.Date, rawDate
		}
		return "", "", asParseError(source, row, field, value, err)
	}
	hour, err := CanonicalHour(rawHour)
	if err != nil {
		return "", "", asParseError(source, row, n.Fields.DateTime, raw, err)
	}
	return date, hour, nil
}
