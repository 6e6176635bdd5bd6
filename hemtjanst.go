package main

import (
	"fmt"
	"strconv"

	"lib.hemtjan.st/client"
	"lib.hemtjan.st/device"
	"lib.hemtjan.st/feature"

	"hemtjan.st/openaq/internal/plugin"
)

// pollutantFeatures maps a pollutant slot to its hemtjanst feature.
var pollutantFeatures = map[string]string{
	"bc":   "blackCarbonDensity",
	"co":   "carbonMonoxideLevel",
	"no2":  "nitrogenDioxideDensity",
	"o3":   "ozoneDensity",
	"pm10": "pm10Density",
	"pm25": "pm2_5Density",
	"so2":  "sulphurDioxideDensity",
}

// unitFeature names the feature carrying the unit of a pollutant feature.
func unitFeature(f string) string {
	return f + "Unit"
}

func newAirQualitySensor(name, id string, tr device.Transport) (client.Device, error) {
	features := map[string]*feature.Info{
		"airQuality":       {},
		"alertLevel":       {},
		"alertDescription": {},
		"info":             {},
	}
	for _, f := range pollutantFeatures {
		features[f] = &feature.Info{}
		features[unitFeature(f)] = &feature.Info{}
	}

	return client.NewDevice(&device.Info{
		Topic:        fmt.Sprintf("sensor/airquality/%s", id),
		Manufacturer: "openaq",
		Name:         fmt.Sprintf("%s (%s)", name, id),
		Type:         "airQualitySensor",
		Features:     features,
	}, tr)
}

// sensorRegistry writes plugin slots into features of one hemtjanst device.
type sensorRegistry struct {
	update func(feature, value string) error
}

func newSensorRegistry(dev client.Device) *sensorRegistry {
	return &sensorRegistry{
		update: func(f, v string) error {
			return dev.Feature(f).Update(v)
		},
	}
}

// homekitAirQuality maps an alert tier onto the HomeKit scale, where 0 is
// unknown and 1..5 is excellent..poor.
func homekitAirQuality(tier int) int {
	if tier < 0 || tier > 4 {
		return 0
	}
	return tier + 1
}

func (r *sensorRegistry) Update(u plugin.DeviceUpdate) error {
	switch u.Slot {
	case plugin.SlotAlert:
		if err := r.update("airQuality", strconv.Itoa(homekitAirQuality(u.Value))); err != nil {
			return fmt.Errorf("MQTT: failed to publish air quality: %w", err)
		}
		if err := r.update("alertLevel", strconv.Itoa(u.Value)); err != nil {
			return fmt.Errorf("MQTT: failed to publish alert level: %w", err)
		}
		if err := r.update("alertDescription", u.Text); err != nil {
			return fmt.Errorf("MQTT: failed to publish alert description: %w", err)
		}
		return nil
	case plugin.SlotInfo:
		if err := r.update("info", u.Text); err != nil {
			return fmt.Errorf("MQTT: failed to publish info: %w", err)
		}
		return nil
	}

	f, ok := pollutantFeatures[u.Slot]
	if !ok {
		return fmt.Errorf("no feature for slot %q", u.Slot)
	}
	if err := r.update(f, u.Text); err != nil {
		return fmt.Errorf("MQTT: failed to publish %s: %w", u.Slot, err)
	}
	if err := r.update(unitFeature(f), u.Unit); err != nil {
		return fmt.Errorf("MQTT: failed to publish %s unit: %w", u.Slot, err)
	}
	return nil
}
