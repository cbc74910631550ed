package model

// Totals holds the billing figures for one period. Cost fields are euros,
// AvgCostPerKWh and AvgSpotPrice are cents per kWh.
type Totals struct {
	TotalConsumption        float64 `json:"total_consumption"`
	TotalAmount             float64 `json:"total_amount"`
	TotalAmountMarginal     float64 `json:"total_amount_marginal"`
	TotalAmountWithMarginal float64 `json:"total_amount_with_marginal"`
	TotalFinalAmount        float64 `json:"total_final_amount"`
	AvgCostPerKWh           float64 `json:"avg_cost_per_kwh"`
	AvgSpotPrice            float64 `json:"avg_spot_price"`
	TemperatureSum          float64 `json:"temperature_sum"`
	TransferCost            float64 `json:"transfer_cost"`
	EnergyTax               float64 `json:"energy_tax"`
	SecuritySupplyCost      float64 `json:"security_supply_cost"`
	Days                    int     `json:"days"`
}

// AvgTemperature divides the summed daily means by the consumption day count.
// Zero days yields a non-finite value.
func (t Totals) AvgTemperature() float64 {
	return t.TemperatureSum / float64(t.Days)
}

// TotalTransferCost is the sum of the regulated per-kWh charges.
func (t Totals) TotalTransferCost() float64 {
	return t.TransferCost + t.EnergyTax + t.SecuritySupplyCost
}

// TotalCostWithTransfer is the energy bill plus transfer charges.
func (t Totals) TotalCostWithTransfer() float64 {
	return t.TotalFinalAmount + t.TotalTransferCost()
}
