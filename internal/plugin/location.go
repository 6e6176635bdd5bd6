package plugin

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidLocation = errors.New("invalid location")

// ParseLocation parses a "lat;lon" coordinate pair.
func ParseLocation(s string) (lat, lon float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ";")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q, expected \"lat;lon\"", ErrInvalidLocation, s)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q: %w", ErrInvalidLocation, parts[0], err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q: %w", ErrInvalidLocation, parts[1], err)
	}

	return lat, lon, validateLocation(lat, lon)
}

func validateLocation(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidLocation, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidLocation, lon)
	}
	return nil
}
