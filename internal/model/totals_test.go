package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals_DerivedFigures(t *testing.T) {
	tot := Totals{
		TotalFinalAmount:   20,
		TransferCost:       4,
		EnergyTax:          2.5,
		SecuritySupplyCost: 0.5,
		TemperatureSum:     30,
		Days:               3,
	}

	assert.InDelta(t, 7.0, tot.TotalTransferCost(), 1e-9)
	assert.InDelta(t, 27.0, tot.TotalCostWithTransfer(), 1e-9)
	assert.InDelta(t, 10.0, tot.AvgTemperature(), 1e-9)
}

func TestTotals_AvgTemperatureZeroDays(t *testing.T) {
	tot := Totals{TemperatureSum: 0}
	assert.True(t, math.IsNaN(tot.AvgTemperature()))
}

func TestDefaultTariff(t *testing.T) {
	tariff := DefaultTariff()
	assert.Equal(t, DefaultTariffName, tariff.Name)
	assert.InDelta(t, 0.006, tariff.MarginPerKWh, 1e-12)
	assert.InDelta(t, 3.53, tariff.MonthlyFee, 1e-12)
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in   string
		want View
	}{
		{"", ViewSummary},
		{"consumption", ViewConsumption},
		{"spot", ViewSpot},
		{"totals", ViewTotals},
		{"summary", ViewSummary},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseView(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	_, err := ParseView("hourly")
	assert.True(t, errors.Is(err, ErrUnknownView))
}
