package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"energy_bill/internal/billing"
	"energy_bill/internal/model"
)

const (
	sheetTotals = "Totals"
	sheetDaily  = "Daily"
)

// XLSX renders r as a workbook with a totals sheet, a per-day sheet and one
// date-by-hour grid per series.
func XLSX(r *billing.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Electricity bill statement",
		Subject:     fmt.Sprintf("Report %s", r.ID),
		Creator:     "bill-checker",
		Description: fmt.Sprintf("Tariff %s, %d days", r.Tariff.Name, r.Days),
		Created:     r.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("document properties: %w", err)
	}

	f.SetSheetName("Sheet1", sheetTotals)
	if err := writeTotalsSheet(f, r); err != nil {
		return nil, fmt.Errorf("totals sheet: %w", err)
	}
	if err := writeDailySheet(f, r); err != nil {
		return nil, fmt.Errorf("daily sheet: %w", err)
	}
	if err := writeGridSheet(f, model.SeriesConsumption, r.Consumption); err != nil {
		return nil, fmt.Errorf("consumption sheet: %w", err)
	}
	if err := writeGridSheet(f, model.SeriesSpotPrice, r.SpotPrices); err != nil {
		return nil, fmt.Errorf("spot price sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTotalsSheet(f *excelize.File, r *billing.Report) error {
	rows := [][]any{
		{"Electricity bill statement"},
		{},
		{"Report", r.ID.String()},
		{"Generated", r.CreatedAt.Format(time.RFC3339)},
		{"Tariff", r.Tariff.Name},
		{"Days", r.Days},
		{},
	}
	for _, line := range SummaryLines(r.Totals) {
		rows = append(rows, []any{line.Label, FormatValue(line.Value), line.Unit})
	}
	if r.Partial() {
		rows = append(rows, []any{}, []any{"Partial input"})
		for _, msg := range r.ParseErrors {
			rows = append(rows, []any{"", msg})
		}
	}
	if err := setRows(f, sheetTotals, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetTotals, "A", "A", 36)
}

func writeDailySheet(f *excelize.File, r *billing.Report) error {
	if _, err := f.NewSheet(sheetDaily); err != nil {
		return err
	}
	rows := [][]any{{"Date", consumptionTitle(), "Cost (c)", meanSpotTitle(), "Matched hours"}}
	for _, d := range r.Aggregate.Daily {
		rows = append(rows, []any{d.Date, d.ConsumptionKWh, d.Cost, d.MeanSpotPrice, d.MatchedHours})
	}
	if err := setRows(f, sheetDaily, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetDaily, "A", "E", 18)
}

// gridSheet names the date-by-hour sheet of series s.
func gridSheet(s model.SeriesType) string {
	return model.SeriesCatalog[s].Name
}

// writeGridSheet lays out m with one row per date and one column per hour.
// Hours without a value stay empty. The unit goes in the corner cell.
func writeGridSheet(f *excelize.File, s model.SeriesType, m *model.DayHourMap) error {
	sheet := gridSheet(s)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{fmt.Sprintf("Date \\ %s", model.SeriesCatalog[s].Unit)}
	for h := 0; h < model.HoursPerDay; h++ {
		header = append(header, model.HourLabel(h))
	}
	rows := [][]any{header}
	m.Each(func(date string, hours model.HourMap) {
		row := make([]any, model.HoursPerDay+1)
		row[0] = date
		for h := 0; h < model.HoursPerDay; h++ {
			if v, ok := hours[model.HourLabel(h)]; ok {
				row[h+1] = v
			}
		}
		rows = append(rows, row)
	})
	if err := setRows(f, sheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 12)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
