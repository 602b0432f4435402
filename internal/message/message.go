// Package message renders command results and failures as chat messages.
// A Message is what the chat gateway posts: optional plain content plus an optional embed.
package message

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

// Embed colors.
const (
	ColorBlue   = 0x3498db
	ColorGreen  = 0x2ecc71
	ColorYellow = 0xfee75c
	ColorOrange = 0xe67e22
	ColorRed    = 0xe74c3c
	ColorPurple = 0x9b59b6
)

const (
	airQualityFooter = "Air quality data provided by OpenWeatherMap"
	weatherFooter    = "Weather data provided by OpenWeatherMap"
	noComponentsText = "No specific component data available."
	notAvailable     = "N/A"
)

type Message struct {
	Content   string `json:"content,omitempty"`
	Ephemeral bool   `json:"ephemeral"`
	Embed     *Embed `json:"embed,omitempty"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (e *Embed) add(name, value string, inline bool) {
	e.Fields = append(e.Fields, Field{Name: name, Value: value, Inline: inline})
}

// AQIInfo describes the index categories. It needs no network access.
func AQIInfo() Message {
	e := &Embed{
		Title:       "Air Quality Index (AQI) Categories",
		Description: "Understanding AQI values and their health implications.",
		Color:       ColorBlue,
		Footer:      "Categories based on OpenWeatherMap AQI scale.",
	}
	e.add("1 - Good", "Air quality is considered satisfactory, and air pollution poses little or no risk.", false)
	e.add("2 - Fair", "Air quality is acceptable; however, some pollutants may be a concern for a small number of people.", false)
	e.add("3 - Moderate", "Air quality is acceptable; however, some pollutants may be a concern for a small number of people.", false)
	e.add("4 - Poor", "Everyone may begin to experience health effects; members of sensitive groups may experience more serious health effects.", false)
	e.add("5 - Very Poor", "Everyone may begin to experience health effects; members of sensitive groups may experience more serious health effects.", false)
	return Message{Embed: e, Ephemeral: true}
}

// AQIColor returns the embed color for an index, blue when unknown.
func AQIColor(index weather.Number) int {
	i, ok := index.Int()
	if !ok {
		return ColorBlue
	}
	switch i {
	case 1:
		return ColorGreen
	case 2:
		return ColorYellow
	case 3:
		return ColorOrange
	case 4:
		return ColorRed
	case 5:
		return ColorPurple
	default:
		return ColorBlue
	}
}

// CurrentAirQuality renders the current air pollution report.
func CurrentAirQuality(r weather.AirQualityReport) Message {
	e := &Embed{
		Title:       "Current Air Pollution for " + r.Location.DisplayName,
		Description: fmt.Sprintf("Air Quality Index for Today (%s)", formatDate(r.ObservedAt, "January 02, 2006")),
		Color:       AQIColor(r.Index),
		Footer:      airQualityFooter,
	}
	addAirQualityFields(e, r)
	return Message{Embed: e}
}

// AirQualityForecast renders the selected forecast entry.
func AirQualityForecast(r weather.AirQualityReport) Message {
	e := &Embed{
		Title:       "Air Pollution Forecast for " + r.Location.DisplayName,
		Description: "Forecast for: " + formatDate(r.ObservedAt, "January 02, 2006 at 03:04 PM MST"),
		Color:       AQIColor(r.Index),
		Footer:      airQualityFooter,
	}
	addAirQualityFields(e, r)
	return Message{Embed: e}
}

func addAirQualityFields(e *Embed, r weather.AirQualityReport) {
	e.add("💨 Air Quality Index (AQI)", fmt.Sprintf("%s - %s", formatIndex(r.Index), r.Category), false)

	if len(r.Components) == 0 {
		e.add("🧪 Pollutant Components", noComponentsText, false)
		return
	}
	lines := make([]string, 0, len(r.Components))
	for _, c := range r.Components {
		lines = append(lines, fmt.Sprintf("**%s**: %.2f %s", c.Name, c.Value, c.Unit))
	}
	e.add("🧪 Pollutant Components", strings.Join(lines, "\n"), false)
}

// CurrentWeather renders current conditions.
func CurrentWeather(r weather.WeatherReport) Message {
	e := weatherEmbed("Current Weather for "+r.Location.DisplayName, r)
	e.Footer = fmt.Sprintf("Data observed around: %s\n%s", formatDate(r.ObservedAt, "January 02, 2006 at 03:04 PM MST"), weatherFooter)
	return Message{Embed: e}
}

// WeatherForecast renders the selected weather forecast entry.
func WeatherForecast(r weather.WeatherReport) Message {
	e := weatherEmbed("Weather Forecast for "+r.Location.DisplayName, r)
	e.Footer = fmt.Sprintf("Forecast for: %s\n%s", formatDate(r.ObservedAt, "January 02, 2006 at 03:04 PM MST"), weatherFooter)
	return Message{Embed: e}
}

func weatherEmbed(title string, r weather.WeatherReport) *Embed {
	description := notAvailable
	if r.Entry.Description != "" {
		first, size := utf8.DecodeRuneInString(r.Entry.Description)
		description = string(unicode.ToUpper(first)) + r.Entry.Description[size:]
	}
	e := &Embed{
		Title:       title,
		Description: "*" + description + "*",
		Color:       ColorBlue,
	}
	if r.Entry.Icon != "" {
		e.Thumbnail = fmt.Sprintf("http://openweathermap.org/img/wn/%s@2x.png", r.Entry.Icon)
	}

	temp := notAvailable
	if r.Temp.Valid {
		temp = r.Temp.String()
		if r.FeelsLike.Valid {
			temp += fmt.Sprintf("\n(Feels like: %s)", r.FeelsLike)
		}
	}
	e.add("🌡️ Temperature", temp, false)

	values := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		values[f.Key] = f.Value
	}
	e.add("💧 Humidity", valueOr(values, weather.FieldHumidity), true)
	e.add("🌬️ Wind", valueOr(values, weather.FieldWindSpeed), true)
	e.add("📊 Pressure", valueOr(values, weather.FieldPressure), true)
	if v, ok := values[weather.FieldVisibility]; ok {
		e.add("👁️ Visibility", v, true)
	}
	if v, ok := values[weather.FieldSunrise]; ok {
		e.add("☀️ Sunrise", v, true)
		e.add("🌙 Sunset", values[weather.FieldSunset], true)
	}
	return e
}

// LocationSet confirms a new server default.
func LocationSet(loc weather.ServerLocation) Message {
	return Message{
		Content: fmt.Sprintf("Default location for this server has been set to: %s (Lat: %.4f, Lon: %.4f)",
			loc.DisplayName, loc.Lat, loc.Lon),
	}
}

// ServerLocation shows the stored default.
func ServerLocation(loc weather.ServerLocation) Message {
	return Message{
		Content: fmt.Sprintf("This server's default location is %s (Lat: %.4f, Lon: %.4f), set %s.",
			loc.DisplayName, loc.Lat, loc.Lon, loc.SetAt.Format("January 02, 2006")),
		Ephemeral: true,
	}
}

// AirQualityHistory renders the summary of refreshed readings.
func AirQualityHistory(s weather.AirQualitySummary) Message {
	e := &Embed{
		Title: "Air Quality History",
		Description: fmt.Sprintf("%d readings from %s to %s", s.Samples,
			formatDate(s.From, "January 02, 03:04 PM"), formatDate(s.To, "January 02, 03:04 PM")),
		Color:  ColorBlue,
		Footer: airQualityFooter,
	}
	e.add("💨 Most Frequent Category", s.Category, false)
	if len(s.Components) == 0 {
		e.add("🧪 Average Components", noComponentsText, false)
	} else {
		lines := make([]string, 0, len(s.Components))
		for _, c := range s.Components {
			lines = append(lines, fmt.Sprintf("**%s**: %.2f %s", c.Name, c.Value, c.Unit))
		}
		e.add("🧪 Average Components", strings.Join(lines, "\n"), false)
	}
	return Message{Embed: e, Ephemeral: true}
}

func formatIndex(n weather.Number) string {
	if i, ok := n.Int(); ok {
		return fmt.Sprintf("%d", i)
	}
	if n.Valid {
		return fmt.Sprintf("%g", n.Value)
	}
	return notAvailable
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() || t.Unix() == 0 {
		return notAvailable
	}
	return t.Format(layout)
}

func valueOr(values map[string]string, key string) string {
	if v, ok := values[key]; ok {
		return v
	}
	return notAvailable
}
