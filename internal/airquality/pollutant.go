// Package airquality reduces OpenAQ measurements to one reading per pollutant
// and classifies them into an alert tier.
package airquality

// Tier is an alert severity level, 0 (none) to 4 (very high).
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierHigh
	TierVeryHigh
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "No alert"
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	case TierVeryHigh:
		return "Very high"
	}
	return "Unknown"
}

// Threshold is the limit a value has to strictly exceed to reach Tier.
type Threshold struct {
	Tier  Tier
	Limit float64
}

// ThresholdUnit is the unit every threshold limit is expressed in.
const ThresholdUnit = "µg/m³"

// comparableUnit reports whether a reading in unit can be checked against
// the thresholds. OpenAQ spells micrograms per cubic metre several ways.
func comparableUnit(unit string) bool {
	switch unit {
	case ThresholdUnit, "μg/m³", "µg/m3", "μg/m3", "ug/m3", "ug/m³":
		return true
	}
	return false
}

// PollutantSpec describes one monitored pollutant. Thresholds are ordered by
// ascending tier and expressed in ThresholdUnit; a pollutant without
// thresholds is never classified.
type PollutantSpec struct {
	ID         string
	Name       string
	Thresholds []Threshold
}

func thresholds(low, medium, high, veryHigh float64) []Threshold {
	return []Threshold{
		{Tier: TierLow, Limit: low},
		{Tier: TierMedium, Limit: medium},
		{Tier: TierHigh, Limit: high},
		{Tier: TierVeryHigh, Limit: veryHigh},
	}
}

// Pollutants is the fixed set of pollutants we track, in publishing order.
var Pollutants = []PollutantSpec{
	{ID: "bc", Name: "BC"},
	{ID: "co", Name: "CO", Thresholds: thresholds(5000, 7500, 10000, 20000)},
	{ID: "no2", Name: "NO2", Thresholds: thresholds(50, 100, 200, 400)},
	{ID: "o3", Name: "O3", Thresholds: thresholds(60, 120, 180, 240)},
	{ID: "pm10", Name: "PM10", Thresholds: thresholds(25, 50, 90, 180)},
	{ID: "pm25", Name: "PM2.5", Thresholds: thresholds(15, 30, 55, 110)},
	{ID: "so2", Name: "SO2", Thresholds: thresholds(50, 100, 350, 500)},
}

// Lookup returns the PollutantSpec for a pollutant ID.
func Lookup(specs []PollutantSpec, id string) (PollutantSpec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return PollutantSpec{}, false
}
