package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourLabel(t *testing.T) {
	for h := 0; h < HoursPerDay; h++ {
		label := HourLabel(h)
		assert.Len(t, label, 5)
		assert.Equal(t, ":00", label[2:])
	}
	assert.Equal(t, "00:00", HourLabel(0))
	assert.Equal(t, "07:00", HourLabel(7))
	assert.Equal(t, "23:00", HourLabel(23))
}

func TestHourMap_HoursSorted(t *testing.T) {
	m := HourMap{"10:00": 1, "02:00": 2, "00:00": 3}
	assert.Equal(t, []string{"00:00", "02:00", "10:00"}, m.Hours())
	assert.InDelta(t, 6.0, m.Sum(), 1e-9)
}

func TestDayHourMap_ChronologicalOrder(t *testing.T) {
	m := NewDayHourMap()
	m.Set("2022-10-03", HourMap{"00:00": 1})
	m.Set("2022-10-01", HourMap{"00:00": 2})
	m.Set("2022-10-02", HourMap{"00:00": 3})

	assert.Equal(t, []string{"2022-10-01", "2022-10-02", "2022-10-03"}, m.Dates())
	assert.Equal(t, 3, m.Len())

	var visited []string
	m.Each(func(date string, _ HourMap) { visited = append(visited, date) })
	assert.Equal(t, m.Dates(), visited)
}

func TestDayHourMap_SetReplaces(t *testing.T) {
	m := NewDayHourMap()
	m.Set("2022-10-01", HourMap{"00:00": 1})
	m.Set("2022-10-01", HourMap{"01:00": 5})

	require.Equal(t, 1, m.Len())
	hours, ok := m.Get("2022-10-01")
	require.True(t, ok)
	assert.Equal(t, HourMap{"01:00": 5}, hours)

	_, ok = m.Get("2022-10-02")
	assert.False(t, ok)
}

func TestDayHourMap_NilSafe(t *testing.T) {
	var m *DayHourMap
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Dates())
	_, ok := m.Get("2022-10-01")
	assert.False(t, ok)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestDayHourMap_MarshalJSON(t *testing.T) {
	m := NewDayHourMap()
	m.Set("2022-10-02", HourMap{"01:00": 2.5})
	m.Set("2022-10-01", HourMap{"00:00": 1})

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"2022-10-01":{"00:00":1},"2022-10-02":{"01:00":2.5}}`, string(data))
}

func TestSeriesCatalog(t *testing.T) {
	for _, s := range []SeriesType{SeriesSpotPrice, SeriesConsumption, SeriesTemperature} {
		info, ok := SeriesCatalog[s]
		require.True(t, ok, s)
		assert.NotEmpty(t, info.Name, s)
		assert.NotEmpty(t, info.Unit, s)
	}
	assert.Equal(t, "Consumption (kWh)", SeriesCatalog[SeriesConsumption].Title())
	assert.Equal(t, "Spot price (c/kWh)", SeriesCatalog[SeriesSpotPrice].Title())
}
