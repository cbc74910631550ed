package billing

import "energy_bill/internal/model"

// DayRow is the aligned result for one consumption day.
type DayRow struct {
	Date           string
	ConsumptionKWh float64
	// Cost is price × consumption in cents.
	Cost float64
	// MeanSpotPrice is the day's summed hourly prices divided by 24.
	MeanSpotPrice float64
	MatchedHours  int
}

// Aggregate holds the sums produced by Align.
type Aggregate struct {
	// TotalCost is in cents (spot prices are cents per kWh).
	TotalCost        float64
	TotalConsumption float64
	// SpotPriceSum is the sum of daily mean spot prices over consumption days.
	SpotPriceSum float64
	Daily        []DayRow
}

// Align joins consumption and spot prices on (date, hour). Consumption dates
// drive the join; for each date only hours present in both maps contribute.
// A consumption date without spot prices contributes zero. Neither map is
// modified.
func Align(consumption, spot *model.DayHourMap) Aggregate {
	var agg Aggregate

	consumption.Each(func(date string, used model.HourMap) {
		row := DayRow{Date: date}
		prices, _ := spot.Get(date)

		for _, hour := range prices.Hours() {
			kwh, ok := used[hour]
			if !ok {
				continue
			}
			price := prices[hour]
			row.Cost += price * kwh
			row.ConsumptionKWh += kwh
			row.MatchedHours++
		}
		row.MeanSpotPrice = prices.Sum() / model.HoursPerDay

		agg.TotalCost += row.Cost
		agg.TotalConsumption += row.ConsumptionKWh
		agg.SpotPriceSum += row.MeanSpotPrice
		agg.Daily = append(agg.Daily, row)
	})

	return agg
}
