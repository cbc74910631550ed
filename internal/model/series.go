package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// HoursPerDay is the number of hourly buckets in a regular day.
const HoursPerDay = 24

// SeriesType identifies one of the hourly input series.
type SeriesType string

const (
	SeriesSpotPrice   SeriesType = "spot_price"
	SeriesConsumption SeriesType = "consumption"
	SeriesTemperature SeriesType = "temperature"
)

// SeriesInfo holds display name and unit for a series type.
type SeriesInfo struct {
	Name string
	Unit string
}

// SeriesCatalog maps every known SeriesType to its display name and unit.
var SeriesCatalog = map[SeriesType]SeriesInfo{
	SeriesSpotPrice:   {Name: "Spot price", Unit: "c/kWh"},
	SeriesConsumption: {Name: "Consumption", Unit: "kWh"},
	SeriesTemperature: {Name: "Temperature", Unit: "C"},
}

// Title returns the column title "Name (Unit)".
func (i SeriesInfo) Title() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Unit)
}

// HourLabel returns the canonical "HH:00" label for hour h.
func HourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// HourMap holds one value per canonical hour label of a single day.
type HourMap map[string]float64

// Hours returns the hour labels in ascending order.
func (m HourMap) Hours() []string {
	hours := make([]string, 0, len(m))
	for h := range m {
		hours = append(hours, h)
	}
	sort.Strings(hours)
	return hours
}

// Sum returns the sum of all hourly values.
func (m HourMap) Sum() float64 {
	var sum float64
	for _, h := range m.Hours() {
		sum += m[h]
	}
	return sum
}

// DayHourMap maps ISO dates (YYYY-MM-DD) to their HourMap. Dates are kept in
// chronological order independent of insertion order.
type DayHourMap struct {
	days  map[string]HourMap
	dates []string // sorted
}

func NewDayHourMap() *DayHourMap {
	return &DayHourMap{days: make(map[string]HourMap)}
}

// Set stores hours for date, replacing any previous entry for the same date.
func (m *DayHourMap) Set(date string, hours HourMap) {
	if _, ok := m.days[date]; !ok {
		idx := sort.SearchStrings(m.dates, date)
		m.dates = append(m.dates, "")
		copy(m.dates[idx+1:], m.dates[idx:])
		m.dates[idx] = date
	}
	m.days[date] = hours
}

// Get returns the HourMap for date.
func (m *DayHourMap) Get(date string) (HourMap, bool) {
	if m == nil {
		return nil, false
	}
	hours, ok := m.days[date]
	return hours, ok
}

// Dates returns a copy of the dates in chronological order.
func (m *DayHourMap) Dates() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.dates))
	copy(out, m.dates)
	return out
}

// Len returns the number of dates.
func (m *DayHourMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.dates)
}

// Each calls fn for every date in chronological order.
func (m *DayHourMap) Each(fn func(date string, hours HourMap)) {
	if m == nil {
		return
	}
	for _, d := range m.dates {
		fn(d, m.days[d])
	}
}

// MarshalJSON encodes the map as an object of objects. encoding/json sorts
// map keys, which for ISO dates and "HH:00" labels is chronological.
func (m *DayHourMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.days)
}
