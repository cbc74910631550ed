package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consumptionSource(t *testing.T, input string) RowSource {
	t.Helper()
	src, err := NewCSVSource("consumption", strings.NewReader(input), ';', "Alkaa", "Kulutus (kWh)", "Keskilämpötila")
	require.NoError(t, err)
	return src
}

func normalizeConsumption(t *testing.T, input string) (ConsumptionResult, error) {
	t.Helper()
	n := NewConsumptionNormalizer(DefaultConsumptionFields(), nil)
	return n.Normalize(consumptionSource(t, input))
}

func TestConsumptionNormalizer_CanonicalKeys(t *testing.T) {
	input := `Alkaa;Kulutus (kWh);Keskilämpötila
3.10.2022 0:00;0,42;8,1
3.10.2022 1:00;12,5;8,3
4.10.2022 0:00;1.5;7`

	res, err := normalizeConsumption(t, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"2022-10-03", "2022-10-04"}, res.Days.Dates())
	day, ok := res.Days.Get("2022-10-03")
	require.True(t, ok)
	assert.InDelta(t, 0.42, day["00:00"], 1e-9)
	assert.InDelta(t, 12.5, day["01:00"], 1e-9)

	assert.Equal(t, 2, res.DayCount)
	assert.False(t, res.EndOfData)
}

func TestConsumptionNormalizer_RepeatedHourIsSummed(t *testing.T) {
	input := `Alkaa;Kulutus (kWh);Keskilämpötila
30.10.2022 1:00;0,7;5
30.10.2022 2:00;1,0;5
30.10.2022 2:00;1,5;5
30.10.2022 3:00;0,3;5`

	res, err := normalizeConsumption(t, input)
	require.NoError(t, err)

	day, ok := res.Days.Get("2022-10-30")
	require.True(t, ok)
	assert.Len(t, day, 3)
	assert.InDelta(t, 2.5, day["02:00"], 1e-9)
	assert.InDelta(t, 0.7, day["01:00"], 1e-9)
}

func TestConsumptionNormalizer_NonConsecutiveDuplicateOverwrites(t *testing.T) {
	input := `Alkaa;Kulutus (kWh);Keskilämpötila
30.10.2022 2:00;1,0;5
30.10.2022 3:00;0,3;5
30.10.2022 2:00;4,0;5`

	res, err := normalizeConsumption(t, input)
	require.NoError(t, err)

	day, _ := res.Days.Get("2022-10-30")
	assert.InDelta(t, 4.0, day["02:00"], 1e-9)
}

func TestConsumptionNormalizer_EndOfDataSentinel(t *testing.T) {
	input := `Alkaa;Kulutus (kWh);Keskilämpötila
1.11.2022 0:00;1,0;2
1.11.2022 1:00;1,0;2
2.11.2022 0:00;0,8;3
2.11.2022 1:00;0,00;3
2.11.2022 2:00;0,9;3`

	res, err := normalizeConsumption(t, input)
	require.NoError(t, err)

	assert.True(t, res.EndOfData)
	assert.Equal(t, 1, res.DayCount)
	assert.Equal(t, []string{"2022-11-01"}, res.Days.Dates())
	require.Len(t, res.Temperatures, 1)
}

func TestConsumptionNormalizer_SentinelOnFirstRowOfDay(t *testing.T) {
	input := `Alkaa;Kulutus (kWh);Keskilämpötila
1.11.2022 23:00;1,0;2
2.11.2022 0:00;0,00;3`

	res, err := normalizeConsumption(t, input)
	require.NoError(t, err)

	assert.True(t, res.EndOfData)
	assert.Equal(t, 1, res.DayCount)
	assert.Equal(t, []string{"2022-11-01"}, res.Days.Dates())
}

func TestConsumptionNormalizer_ZeroWithOtherPrecisionIsNotSentinel(t *testing.T) {
	input := `Alkaa;Kulutus (kWh);Keskilämpötila
1.11.2022 0:00;0,0;2`

	res, err := normalizeConsumption(t, input)
	require.NoError(t, err)
	assert.False(t, res.EndOfData)
	assert.Equal(t, 1, res.DayCount)
}

func TestConsumptionNormalizer_DailyMeanTemperature(t *testing.T) {
	var b strings.Builder
	b.WriteString("Alkaa;Kulutus (kWh);Keskilämpötila\n")
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&b, "5.12.2022 %d:00;1,0;-4,5\n", h)
	}
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&b, "6.12.2022 %d:00;1,0;1,5\n", h)
	}

	res, err := normalizeConsumption(t, b.String())
	require.NoError(t, err)

	require.Len(t, res.Temperatures, 2)
	assert.InDelta(t, -4.5, res.Temperatures[0], 1e-9)
	assert.InDelta(t, 1.5, res.Temperatures[1], 1e-9)
}

func TestConsumptionNormalizer_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"consumption", "2.11.2022 0:00;abc;3", "Kulutus (kWh)"},
		{"temperature", "2.11.2022 0:00;1,0;", "Keskilämpötila"},
		{"date", "2022-11-02 0:00;1,0;3", "Alkaa"},
		{"hour", "2.11.2022 x;1,0;3", "Alkaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "Alkaa;Kulutus (kWh);Keskilämpötila\n1.11.2022 0:00;1,0;2\n" + tt.row + "\n"
			res, err := normalizeConsumption(t, input)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
			assert.Equal(t, 3, perr.Line)
			assert.False(t, res.EndOfData)

			// Completed days survive, the failing day is not counted.
			if tt.name == "consumption" || tt.name == "temperature" {
				assert.Equal(t, 1, res.DayCount)
				assert.Equal(t, []string{"2022-11-01"}, res.Days.Dates())
			}
		})
	}
}

func TestConsumptionNormalizer_SeparateDateField(t *testing.T) {
	input := `Päivä;Tunti;Kulutus;Lämpötila
3.10.2022;0:00;0,4;8
3.10.2022;1:00;0,6;8`

	src, err := NewCSVSource("consumption", strings.NewReader(input), ';')
	require.NoError(t, err)

	n := NewConsumptionNormalizer(ConsumptionFields{
		Date:        "Päivä",
		DateTime:    "Tunti",
		Consumption: "Kulutus",
		Temperature: "Lämpötila",
	}, nil)
	res, err := n.Normalize(src)
	require.NoError(t, err)

	day, ok := res.Days.Get("2022-10-03")
	require.True(t, ok)
	assert.InDelta(t, 0.6, day["01:00"], 1e-9)
}

func TestConsumptionNormalizer_SampleFile(t *testing.T) {
	f, err := os.Open("../../testdata/consumption_sample.csv")
	require.NoError(t, err)
	defer f.Close()

	src, err := NewCSVSource("consumption", f, ';', "Alkaa", "Kulutus (kWh)", "Keskilämpötila")
	require.NoError(t, err)

	res, err := NewConsumptionNormalizer(DefaultConsumptionFields(), nil).Normalize(src)
	require.NoError(t, err)

	assert.True(t, res.EndOfData)
	assert.Equal(t, 2, res.DayCount)
	assert.Equal(t, []string{"2022-10-29", "2022-10-30"}, res.Days.Dates())

	dst, _ := res.Days.Get("2022-10-30")
	assert.Len(t, dst, 24)
	assert.InDelta(t, 1.0, dst["03:00"], 1e-9)

	require.Len(t, res.Temperatures, 2)
	assert.InDelta(t, 5.0, res.Temperatures[0], 1e-9)
	assert.InDelta(t, 6.25, res.Temperatures[1], 1e-9) // 25 readings of 6.0 over 24 hours
}
