package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"energy_bill/internal/billing"
	"energy_bill/internal/model"
)

// SummaryLine is one labelled figure of the text summary.
type SummaryLine struct {
	Label string
	Value float64
	Unit  string
}

// Text returns the line as printed by WriteSummary.
func (l SummaryLine) Text() string {
	return fmt.Sprintf("%s: %s %s", l.Label, FormatValue(l.Value), l.Unit)
}

// SummaryLines lists the summary figures in print order. "Transfer costs"
// keeps its historical "cnt" unit even though the figure is in euros.
func SummaryLines(t model.Totals) []SummaryLine {
	return []SummaryLine{
		{"Total consumption", t.TotalConsumption, model.SeriesCatalog[model.SeriesConsumption].Unit},
		{"Total marginal amount", t.TotalAmountMarginal, "€"},
		{"Total cost of bill w/o marginal", t.TotalAmount, "€"},
		{"Total cost of bill with marginal", t.TotalAmountWithMarginal, "€"},
		{"Total cost of bill", t.TotalFinalAmount, "€"},
		{"Average cost per kWh", t.AvgCostPerKWh, "cnt"},
		{fmt.Sprintf("Average SpotPrice for %d days", t.Days), t.AvgSpotPrice, "cnt"},
		{"Average temperature", t.AvgTemperature(), model.SeriesCatalog[model.SeriesTemperature].Unit},
		{"Transfer costs", t.TotalTransferCost(), "cnt"},
		{"Transfer and energy total", t.TotalCostWithTransfer(), "€"},
	}
}

func consumptionTitle() string {
	return model.SeriesCatalog[model.SeriesConsumption].Title()
}

func meanSpotTitle() string {
	spot := model.SeriesCatalog[model.SeriesSpotPrice]
	return fmt.Sprintf("Mean %s (%s)", strings.ToLower(spot.Name), spot.Unit)
}

// WriteSummary prints the human-readable totals, one figure per line.
func WriteSummary(w io.Writer, t model.Totals) error {
	for _, line := range SummaryLines(t) {
		if _, err := fmt.Fprintln(w, line.Text()); err != nil {
			return err
		}
	}
	return nil
}

// ViewData returns the JSON-encodable value of a view. The summary view is
// its list of lines.
func ViewData(r *billing.Report, v model.View) (any, error) {
	switch v {
	case model.ViewConsumption:
		return DayHourView(r.Consumption), nil
	case model.ViewSpot:
		return DayHourView(r.SpotPrices), nil
	case model.ViewTotals:
		return NewTotalsView(r.Totals), nil
	case model.ViewSummary:
		lines := SummaryLines(r.Totals)
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = l.Text()
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w %q", model.ErrUnknownView, v)
}

// WriteView writes the selected view of r: JSON for consumption, spot and
// totals, plain text for the summary.
func WriteView(w io.Writer, r *billing.Report, v model.View) error {
	if v == model.ViewSummary {
		return WriteSummary(w, r.Totals)
	}
	data, err := ViewData(r, v)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(data)
}
