package weather

import "time"

// AirQualitySummary condenses a server's refreshed readings.
type AirQualitySummary struct {
	ServerID int64     `json:"serverId"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Samples  int       `json:"samples"`

	// Category is the most frequent category (the first seen wins a tie).
	Category string `json:"category"`
	// Components holds the mean of each pollutant over the readings that reported it.
	Components []Component `json:"components"`
}

// SummarizeReadings combines readings into an AirQualitySummary.
// Readings are expected to be ordered by FetchedAt ascending.
func SummarizeReadings(serverID int64, readings []AirQualityReading) AirQualitySummary {
	summary := AirQualitySummary{
		ServerID: serverID,
		Category: CategoryUnknown,
	}
	if len(readings) == 0 {
		return summary
	}

	var (
		sums   = make(map[string]float64)
		counts = make(map[string]int)
		// category order of first appearance, for tie-breaking
		order          []string
		categoryCounts = make(map[string]int)
	)

	for _, r := range readings {
		cat := AQICategory(r.Entry.Index)
		if categoryCounts[cat] == 0 {
			order = append(order, cat)
		}
		categoryCounts[cat]++

		for k, v := range r.Entry.Components {
			sums[k] += v
			counts[k]++
		}
	}

	best := 0
	for _, cat := range order {
		if categoryCounts[cat] > best {
			best = categoryCounts[cat]
			summary.Category = cat
		}
	}

	means := make(map[string]float64, len(sums))
	for k, sum := range sums {
		means[k] = sum / float64(counts[k])
	}

	summary.Samples = len(readings)
	summary.From = readings[0].FetchedAt
	summary.To = readings[len(readings)-1].FetchedAt
	summary.Components = ExtractComponents(means)
	return summary
}
