package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"energy_bill/internal/model"
)

// SplitDateTime splits a "date hour" field on whitespace.
func SplitDateTime(s string) (date, hour string, err error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("expected date and hour, got %q", s)
	}
	return fields[0], fields[1], nil
}

// CanonicalHour converts "0:00", "7", "07:00" or "00:00:00" to "HH:00".
// Minutes and seconds are discarded.
func CanonicalHour(s string) (string, error) {
	s = strings.TrimSpace(s)
	head, _, _ := strings.Cut(s, ":")
	h, err := strconv.Atoi(head)
	if err != nil || !isDigits(head) {
		return "", fmt.Errorf("invalid hour %q", s)
	}
	if h < 0 || h >= model.HoursPerDay {
		return "", fmt.Errorf("hour %d out of range in %q", h, s)
	}
	return model.HourLabel(h), nil
}

// CanonicalDate converts D.M.YYYY (with or without zero padding) to YYYY-MM-DD.
func CanonicalDate(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date %q: want D.M.YYYY", s)
	}
	day, month, year := parts[0], parts[1], parts[2]
	if !isDigits(day) || !isDigits(month) || !isDigits(year) ||
		len(day) > 2 || len(month) > 2 || len(year) != 4 {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return year + "-" + leadingZero(month) + "-" + leadingZero(day), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func leadingZero(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// NormalizeDecimal replaces the first decimal comma with a period.
func NormalizeDecimal(s string) string {
	return strings.Replace(strings.TrimSpace(s), ",", ".", 1)
}

// asParseError converts err into a *ParseError for the given row and field,
// keeping an existing *ParseError unchanged.
func asParseError(source string, row Row, field, value string, err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr
	}
	return &ParseError{Source: source, Line: row.Line(), Field: field, Value: value, Err: err}
}
