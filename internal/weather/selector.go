package weather

import (
	"fmt"
	"time"
)

// Timed is implemented by every list entry the selector can choose from.
type Timed interface {
	Time() time.Time
}

// SelectForecast picks the entry that best represents tomorrow at local midday.
//
// "Local" is now.Location(). Among entries on the calendar day after now's date, the one
// whose local hour is closest to 12 wins; on equal distance the earliest in input order is
// kept. When no entry falls on that day, the first entry strictly after now is returned.
// Otherwise ErrNoSuitableEntry.
func SelectForecast[E Timed](entries []E, now time.Time) (E, error) {
	var zero E

	loc := now.Location()
	y, m, d := now.Date()
	tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	ty, tm, td := tomorrow.Date()

	best := -1
	bestDistance := 0
	for i, e := range entries {
		local := e.Time().In(loc)
		ey, em, ed := local.Date()
		if ey != ty || em != tm || ed != td {
			continue
		}
		distance := abs(local.Hour() - 12)
		if best == -1 || distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}
	if best >= 0 {
		return entries[best], nil
	}

	for _, e := range entries {
		if e.Time().After(now) {
			return e, nil
		}
	}

	return zero, ErrNoSuitableEntry
}

// SelectCurrent returns the first entry of the list.
func SelectCurrent[E any](entries []E) (E, error) {
	var zero E
	if len(entries) == 0 {
		return zero, ErrNoMeasurementData
	}
	return entries[0], nil
}

var aqiCategories = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// CategoryUnknown is used for any index outside 1-5.
const CategoryUnknown = "Unknown"

// CategoryForIndex maps the provider AQI index (1-5) to its category name.
func CategoryForIndex(index int) string {
	if c, ok := aqiCategories[index]; ok {
		return c
	}
	return CategoryUnknown
}

// AQICategory maps a decoded AQI value; non-integer and non-numeric values are Unknown.
func AQICategory(index Number) string {
	i, ok := index.Int()
	if !ok {
		return CategoryUnknown
	}
	return CategoryForIndex(i)
}

// Component is one present pollutant concentration.
type Component struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// PollutantKeys is the fixed display order of air-quality components.
var PollutantKeys = []string{"co", "no", "no2", "o3", "so2", "pm2_5", "pm10", "nh3"}

var pollutantNames = map[string]string{
	"co":    "CO (Carbon Monoxide)",
	"no":    "NO (Nitrogen Monoxide)",
	"no2":   "NO₂ (Nitrogen Dioxide)",
	"o3":    "O₃ (Ozone)",
	"so2":   "SO₂ (Sulphur Dioxide)",
	"pm2_5": "PM₂.₅ (Fine Particles)",
	"pm10":  "PM₁₀ (Coarse Particles)",
	"nh3":   "NH₃ (Ammonia)",
}

// ExtractComponents returns the known pollutants present in components, in PollutantKeys order.
// Absent keys are omitted, never reported as zero.
func ExtractComponents(components map[string]float64) []Component {
	out := make([]Component, 0, len(PollutantKeys))
	for _, key := range PollutantKeys {
		v, ok := components[key]
		if !ok {
			continue
		}
		out = append(out, Component{Key: key, Name: pollutantNames[key], Value: v, Unit: "µg/m³"})
	}
	return out
}

// Field is one present weather value, pre-formatted for display.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Weather field keys in display order.
const (
	FieldTemp       = "temp"
	FieldFeelsLike  = "feels_like"
	FieldHumidity   = "humidity"
	FieldPressure   = "pressure"
	FieldWindSpeed  = "wind_speed"
	FieldVisibility = "visibility"
	FieldSunrise    = "sunrise"
	FieldSunset     = "sunset"
)

// ExtractWeatherFields returns the weather values present in e, formatted for display.
// Times are shown in loc.
func ExtractWeatherFields(e WeatherEntry, loc *time.Location) []Field {
	var out []Field

	if t := KelvinToTemperature(e.Temp); t.Valid {
		out = append(out, Field{Key: FieldTemp, Value: t.String()})
	}
	if t := KelvinToTemperature(e.FeelsLike); t.Valid {
		out = append(out, Field{Key: FieldFeelsLike, Value: t.String()})
	}
	if e.Humidity.Valid {
		out = append(out, Field{Key: FieldHumidity, Value: fmt.Sprintf("%g%%", e.Humidity.Value)})
	}
	if e.Pressure.Valid {
		out = append(out, Field{Key: FieldPressure, Value: fmt.Sprintf("%g hPa", e.Pressure.Value)})
	}
	if e.WindSpeed.Valid {
		out = append(out, Field{Key: FieldWindSpeed, Value: fmt.Sprintf("%g m/s", e.WindSpeed.Value)})
	}
	if e.Visibility.Valid {
		out = append(out, Field{Key: FieldVisibility, Value: fmt.Sprintf("%.1f km", e.Visibility.Value/1000)})
	}
	// Sunrise and sunset are only shown as a pair.
	if e.Sunrise != 0 && e.Sunset != 0 {
		out = append(out,
			Field{Key: FieldSunrise, Value: time.Unix(e.Sunrise, 0).In(loc).Format("03:04 PM MST")},
			Field{Key: FieldSunset, Value: time.Unix(e.Sunset, 0).In(loc).Format("03:04 PM MST")},
		)
	}
	return out
}

// Temperature is a Kelvin reading converted for display.
type Temperature struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit float64 `json:"fahrenheit"`
	Valid      bool    `json:"valid"`
}

// KelvinToTemperature converts k to Celsius and Fahrenheit. Invalid input yields an invalid Temperature.
func KelvinToTemperature(k Number) Temperature {
	if !k.Valid {
		return Temperature{}
	}
	c := k.Value - 273.15
	return Temperature{
		Celsius:    c,
		Fahrenheit: c*9/5 + 32,
		Valid:      true,
	}
}

func (t Temperature) String() string {
	if !t.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.1f°C / %.1f°F", t.Celsius, t.Fahrenheit)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
