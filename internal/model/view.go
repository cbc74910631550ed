package model

import (
	"errors"
	"fmt"
)

// View names a rendered representation of a report.
type View string

const (
	ViewConsumption View = "consumption"
	ViewSpot        View = "spot"
	ViewTotals      View = "totals"
	ViewSummary     View = "summary"
)

// Views lists all views in display order.
var Views = []View{ViewConsumption, ViewSpot, ViewTotals, ViewSummary}

// ErrUnknownView is returned by ParseView for unsupported names.
var ErrUnknownView = errors.New("unknown view")

// ParseView resolves a view name. The empty string selects the summary.
func ParseView(s string) (View, error) {
	if s == "" {
		return ViewSummary, nil
	}
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q (options: consumption, spot, totals)", ErrUnknownView, s)
}
