package airquality

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemtjan.st/openaq/internal/openaq"
)

func readings(values map[string]float64) LatestReadings {
	out := LatestReadings{}
	for id, v := range values {
		out[id] = Reading{Pollutant: id, Value: v, Unit: ThresholdUnit}
	}
	return out
}

func TestTierOf(t *testing.T) {
	pm25, ok := Lookup(Pollutants, "pm25")
	require.True(t, ok)

	tests := []struct {
		value float64
		want  Tier
	}{
		{value: 1, want: TierNone},
		{value: 15, want: TierNone},
		{value: 15.1, want: TierLow},
		{value: 30, want: TierLow},
		{value: 42, want: TierMedium},
		{value: 55.5, want: TierHigh},
		{value: 110, want: TierHigh},
		{value: 500, want: TierVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierOf(pm25, tt.value), "value %v", tt.value)
	}
}

func TestTierOf_NoThresholds(t *testing.T) {
	bc, ok := Lookup(Pollutants, "bc")
	require.True(t, ok)
	assert.Equal(t, TierNone, TierOf(bc, 1e6))
}

func TestClassify_SinglePollutant(t *testing.T) {
	state := Classify(readings(map[string]float64{"pm25": 42}), Pollutants)

	assert.Equal(t, TierMedium, state.Tier)
	assert.Equal(t, []string{"PM2.5"}, state.Pollutants)
	assert.Equal(t, "Medium: PM2.5", state.Text())
}

func TestClassify_TiesAccumulate(t *testing.T) {
	state := Classify(readings(map[string]float64{
		"no2":  250, // high
		"pm10": 95,  // high
		"pm25": 20,  // low
	}), Pollutants)

	assert.Equal(t, TierHigh, state.Tier)
	assert.Equal(t, []string{"NO2", "PM10"}, state.Pollutants)
	assert.Equal(t, "High: NO2, PM10", state.Text())
}

func TestClassify_HigherTierReplaces(t *testing.T) {
	state := Classify(readings(map[string]float64{
		"co":   6000, // low
		"no2":  60,   // low
		"pm25": 120,  // very high
	}), Pollutants)

	assert.Equal(t, TierVeryHigh, state.Tier)
	assert.Equal(t, []string{"PM2.5"}, state.Pollutants)
}

func TestClassify_NoAlert(t *testing.T) {
	state := Classify(readings(map[string]float64{
		"pm25": 3,
		"o3":   20,
		"bc":   900,
	}), Pollutants)

	assert.Equal(t, TierNone, state.Tier)
	assert.Empty(t, state.Pollutants)
	assert.Equal(t, "No alert", state.Text())
}

func TestClassify_SkipsOtherUnits(t *testing.T) {
	latest := readings(map[string]float64{"pm25": 20})
	latest["o3"] = Reading{Pollutant: "o3", Value: 0.3, Unit: "ppm"}
	latest["co"] = Reading{Pollutant: "co", Value: 30000}

	state := Classify(latest, Pollutants)

	assert.Equal(t, TierLow, state.Tier)
	assert.Equal(t, []string{"PM2.5"}, state.Pollutants)
}

func TestClassify_UnitSpellings(t *testing.T) {
	for _, unit := range []string{"µg/m³", "μg/m³", "ug/m3", "µg/m3"} {
		latest := LatestReadings{"no2": {Pollutant: "no2", Value: 250, Unit: unit}}
		assert.Equal(t, TierHigh, Classify(latest, Pollutants).Tier, unit)
	}
}

func TestClassify_Empty(t *testing.T) {
	assert.Equal(t, AlertState{}, Classify(nil, Pollutants))
}

func TestFixtureIsIdempotent(t *testing.T) {
	body, err := os.ReadFile("testdata/latest.json")
	require.NoError(t, err)

	run := func() AlertState {
		resp, err := openaq.Decode(body)
		require.NoError(t, err)
		latest, _ := Reduce(resp, Pollutants)
		return Classify(latest, Pollutants)
	}

	first := run()
	second := run()

	assert.Equal(t, first, second)
	assert.Equal(t, TierHigh, first.Tier)
	assert.Equal(t, "High: NO2, PM10", first.Text())
}
