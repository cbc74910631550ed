package billing

import "energy_bill/internal/model"

// NewTotals derives the billing figures from the period sums. cost is in
// cents, consumption in kWh.
//
// AvgCostPerKWh divides by consumption; zero consumption yields a
// non-finite value that is passed through unchanged.
func NewTotals(cost, consumption float64, temperatures []float64, tariff model.Tariff) model.Totals {
	var t model.Totals
	t.TotalConsumption = consumption
	t.TotalAmount = cost / 100
	t.TotalAmountMarginal = consumption * tariff.MarginPerKWh
	t.TotalAmountWithMarginal = t.TotalAmount + t.TotalAmountMarginal
	t.TotalFinalAmount = t.TotalAmountWithMarginal + tariff.MonthlyFee
	t.AvgCostPerKWh = (cost + t.TotalAmountMarginal*100) / consumption
	for _, temp := range temperatures {
		t.TemperatureSum += temp
	}
	t.TransferCost = consumption * tariff.TransferPerKWh
	t.EnergyTax = consumption * tariff.EnergyTaxPerKWh
	t.SecuritySupplyCost = consumption * tariff.SecuritySupplyPerKWh
	return t
}

// Calculate builds the Totals for an aligned period. days is the consumption
// day count and divides both period averages.
func Calculate(agg Aggregate, days int, temperatures []float64, tariff model.Tariff) model.Totals {
	t := NewTotals(agg.TotalCost, agg.TotalConsumption, temperatures, tariff)
	t.Days = days
	t.AvgSpotPrice = agg.SpotPriceSum / float64(days)
	return t
}
