package airquality

import "strings"

// AlertState is the overall alert tier and the pollutants that reached it.
type AlertState struct {
	Tier       Tier
	Pollutants []string
}

// Text renders the state for display, e.g. "High: PM2.5, NO2".
func (a AlertState) Text() string {
	if a.Tier == TierNone {
		return TierNone.String()
	}
	return a.Tier.String() + ": " + strings.Join(a.Pollutants, ", ")
}

// TierOf returns the highest tier whose limit value strictly exceeds. value
// must be in ThresholdUnit.
func TierOf(spec PollutantSpec, value float64) Tier {
	for i := len(spec.Thresholds) - 1; i >= 0; i-- {
		if value > spec.Thresholds[i].Limit {
			return spec.Thresholds[i].Tier
		}
	}
	return TierNone
}

// Classify computes the alert state for a set of readings. Only pollutants
// whose tier equals the overall maximum are named. Readings in a unit other
// than ThresholdUnit (ppm, particles/cm³, none) are not classified.
func Classify(latest LatestReadings, specs []PollutantSpec) AlertState {
	var state AlertState
	for _, spec := range specs {
		r, ok := latest[spec.ID]
		if !ok || !comparableUnit(r.Unit) {
			continue
		}
		tier := TierOf(spec, r.Value)
		switch {
		case tier == TierNone:
		case tier > state.Tier:
			state.Tier = tier
			state.Pollutants = []string{spec.Name}
		case tier == state.Tier:
			state.Pollutants = append(state.Pollutants, spec.Name)
		}
	}
	return state
}
