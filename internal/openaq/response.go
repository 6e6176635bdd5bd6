package openaq

import (
	"encoding/json"
	"fmt"
)

// Response is the body of a successful "latest" request.
type Response struct {
	Results []Location `json:"results"`
}

// Location is a monitoring station and its most recent measurements.
type Location struct {
	Location     string        `json:"location"`
	Measurements []Measurement `json:"measurements"`
}

type Measurement struct {
	Parameter   string  `json:"parameter"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	LastUpdated string  `json:"lastUpdated"`
}

// Decode parses a response body.
func Decode(body []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if r.Results == nil {
		return Response{}, fmt.Errorf("failed to decode response: no results field")
	}
	return r, nil
}

// MeasurementCount returns the number of measurements across all locations.
func (r Response) MeasurementCount() int {
	n := 0
	for _, l := range r.Results {
		n += len(l.Measurements)
	}
	return n
}
