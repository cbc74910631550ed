package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"energy_bill/internal/logger"
	"energy_bill/internal/model"
)

// SpotFields names the spot price columns.
type SpotFields struct {
	DateTime string `mapstructure:"datetime_field"`
	Price    string `mapstructure:"price_field"`
}

// DefaultSpotFields matches the Nordic spot price export:
//
//	DateTime,Hinta
//	2022-10-01 0:00:00,21.54
func DefaultSpotFields() SpotFields {
	return SpotFields{DateTime: "DateTime", Price: "Hinta"}
}

// SpotPriceNormalizer groups hourly spot prices by day.
type SpotPriceNormalizer struct {
	Fields SpotFields
	Log    logrus.FieldLogger
}

func NewSpotPriceNormalizer(fields SpotFields, log logrus.FieldLogger) *SpotPriceNormalizer {
	return &SpotPriceNormalizer{Fields: fields, Log: logger.OrDiscard(log)}
}

// Normalize reads all rows from src. Rows must be grouped by date; a day is
// complete when the date changes or input ends.
//
// On a *ParseError the days completed so far are returned along with the
// error; the day in progress is dropped.
func (n *SpotPriceNormalizer) Normalize(src RowSource) (*model.DayHourMap, error) {
	const source = "spot prices"
	log := logger.OrDiscard(n.Log).WithField("source", source)

	days := model.NewDayHourMap()
	current := model.HourMap{}
	var dayTracker string

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				return days, perr
			}
			return days, fmt.Errorf("reading %s: %w", source, err)
		}

		raw, err := row.Field(n.Fields.DateTime)
		if err != nil {
			return days, asParseError(source, row, n.Fields.DateTime, "", err)
		}
		date, rawHour, err := SplitDateTime(raw)
		if err != nil {
			return days, asParseError(source, row, n.Fields.DateTime, raw, err)
		}
		hour, err := CanonicalHour(rawHour)
		if err != nil {
			return days, asParseError(source, row, n.Fields.DateTime, raw, err)
		}

		if dayTracker != "" && date != dayTracker {
			days.Set(dayTracker, current)
			log.WithFields(logrus.Fields{"date": dayTracker, "hours": len(current)}).Debug("day complete")
			current = model.HourMap{}
		}
		dayTracker = date

		price, err := row.Float(n.Fields.Price)
		if err != nil {
			return days, asParseError(source, row, n.Fields.Price, "", err)
		}
		current[hour] = price
	}

	if dayTracker != "" {
		days.Set(dayTracker, current)
		log.WithFields(logrus.Fields{"date": dayTracker, "hours": len(current)}).Debug("day complete")
	}
	return days, nil
}
