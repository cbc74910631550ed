// Package report renders billing reports: fixed-precision JSON views, the
// text summary and downloadable XLSX/PDF statements.
package report

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"energy_bill/internal/model"
)

// Precision is the number of decimals in every rendered value.
const Precision = 3

// exactExponent is small enough for NewFromFloatWithExponent to keep every
// binary digit of a float64.
const exactExponent = -1074

// FormatValue renders v with Precision fixed decimals, rounding the exact
// binary value half to even like printf's %.3f. Non-finite values, which
// appear when a period has no days or no consumption, render as "nan",
// "inf" or "-inf".
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return decimal.NewFromFloatWithExponent(v, exactExponent).RoundBank(Precision).StringFixed(Precision)
}

// DayHourView renders every value of m with FormatValue. A nil map yields an
// empty view.
func DayHourView(m *model.DayHourMap) map[string]map[string]string {
	out := make(map[string]map[string]string, m.Len())
	m.Each(func(date string, hours model.HourMap) {
		day := make(map[string]string, len(hours))
		for hour, v := range hours {
			day[hour] = FormatValue(v)
		}
		out[date] = day
	})
	return out
}

// TotalsView is the flat rendering of model.Totals. Field order is the
// order of the JSON object.
type TotalsView struct {
	Consumption           string `json:"consumption"`
	Marginal              string `json:"marginal"`
	CostWithoutMarginal   string `json:"cost_wo_marginal"`
	CostWithMarginal      string `json:"cost_with_marginal"`
	TotalCost             string `json:"total_cost"`
	AvgKWhCost            string `json:"avg_kwh_cost"`
	AvgSpotPricePerKWh    string `json:"avg_spotprice_per_kwh"`
	Days                  string `json:"days"`
	AvgTemperature        string `json:"avg_temperature"`
	TransferCost          string `json:"transfer_cost"`
	EnergyTax             string `json:"energy_tax"`
	SecuritySupplyCost    string `json:"security_supply_cost"`
	TotalTransferCost     string `json:"total_transfer_cost"`
	TotalCostWithTransfer string `json:"total_cost_with_transfer"`
}

func NewTotalsView(t model.Totals) TotalsView {
	return TotalsView{
		Consumption:           FormatValue(t.TotalConsumption),
		Marginal:              FormatValue(t.TotalAmountMarginal),
		CostWithoutMarginal:   FormatValue(t.TotalAmount),
		CostWithMarginal:      FormatValue(t.TotalAmountWithMarginal),
		TotalCost:             FormatValue(t.TotalFinalAmount),
		AvgKWhCost:            FormatValue(t.AvgCostPerKWh),
		AvgSpotPricePerKWh:    FormatValue(t.AvgSpotPrice),
		Days:                  strconv.Itoa(t.Days),
		AvgTemperature:        FormatValue(t.AvgTemperature()),
		TransferCost:          FormatValue(t.TransferCost),
		EnergyTax:             FormatValue(t.EnergyTax),
		SecuritySupplyCost:    FormatValue(t.SecuritySupplyCost),
		TotalTransferCost:     FormatValue(t.TotalTransferCost()),
		TotalCostWithTransfer: FormatValue(t.TotalCostWithTransfer()),
	}
}
