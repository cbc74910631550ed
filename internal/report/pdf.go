package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"energy_bill/internal/billing"
)

// PDF renders r as a one-document statement: header, totals block and a
// per-day table.
func PDF(r *billing.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Electricity bill statement", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Electricity bill statement")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report: %s", r.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tariff: %s", r.Tariff.Name))
	pdf.Ln(5)
	if dates := r.Consumption.Dates(); len(dates) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", dates[0], dates[len(dates)-1]))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	for _, line := range SummaryLines(r.Totals) {
		pdf.CellFormat(90, 6, tr(line.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, tr(FormatValue(line.Value)+" "+line.Unit), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if r.Partial() {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr("Partial input: "+strings.Join(r.ParseErrors, "; ")), "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, consumptionTitle(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Cost (c)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, meanSpotTitle(), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, d := range r.Aggregate.Daily {
		pdf.CellFormat(35, 6, d.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, FormatValue(d.ConsumptionKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, FormatValue(d.Cost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, FormatValue(d.MeanSpotPrice), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
