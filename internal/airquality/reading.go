package airquality

import (
	"time"

	"hemtjan.st/openaq/internal/openaq"
)

// Reading is a single measurement retained for a pollutant.
type Reading struct {
	Pollutant string
	Time      time.Time
	Value     float64
	Unit      string
	Location  string
}

// LatestReadings maps a pollutant ID to its most recent valid reading.
type LatestReadings map[string]Reading

// Summary counts what a response contained, valid or not.
type Summary struct {
	Stations     int
	Measurements int
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Reduce keeps, for every known pollutant, the measurement with the latest
// timestamp. Values <= 0, unknown pollutants and unparseable timestamps are
// skipped. On equal timestamps the first one encountered is kept.
func Reduce(resp openaq.Response, specs []PollutantSpec) (LatestReadings, Summary) {
	latest := LatestReadings{}
	sum := Summary{Stations: len(resp.Results), Measurements: resp.MeasurementCount()}

	for _, loc := range resp.Results {
		for _, m := range loc.Measurements {
			if m.Value <= 0 {
				continue
			}
			if _, ok := Lookup(specs, m.Parameter); !ok {
				continue
			}
			t, ok := parseTime(m.LastUpdated)
			if !ok {
				continue
			}
			if cur, ok := latest[m.Parameter]; ok && !t.After(cur.Time) {
				continue
			}
			latest[m.Parameter] = Reading{
				Pollutant: m.Parameter,
				Time:      t,
				Value:     m.Value,
				Unit:      m.Unit,
				Location:  loc.Location,
			}
		}
	}

	return latest, sum
}
