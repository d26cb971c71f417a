package videometa

import (
	"regexp"
	"strconv"
	"strings"
)

var iso6709Number = regexp.MustCompile(`[+-]\d+\.\d+`)

// parseISO6709 reads the latitude and longitude from an ISO 6709 string.
// Examples:
//   - "+47.6062-122.3321/" -> (47.6062, -122.3321)
//   - "+37.7749-122.4194+000.000/" (altitude ignored)
//
// The first two signed decimals are taken as latitude and longitude.
func parseISO6709(value string) (Location, bool) {
	matches := iso6709Number.FindAllString(value, 2)
	if len(matches) < 2 {
		return Location{}, false
	}

	lat, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return Location{}, false
	}
	lon, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return Location{}, false
	}
	return Location{Latitude: lat, Longitude: lon}, true
}

// parseSexagesimal converts an XMP GPS coordinate to signed decimal degrees.
// Examples:
//   - "47,33.366000N" -> 47 + 33.366/60
//   - "122,19,55.56W" -> -(122 + 19/60 + 55.56/3600)
//
// The trailing hemisphere letter S or W makes the result negative.
func parseSexagesimal(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if len(value) < 2 {
		return 0, false
	}

	hemisphere := strings.ToUpper(value[len(value)-1:])
	sign := 1.0
	switch hemisphere {
	case "N", "E":
	case "S", "W":
		sign = -1
	default:
		return 0, false
	}

	parts := strings.Split(value[:len(value)-1], ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	var nums [3]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}
		nums[i] = n
	}

	return sign * (nums[0] + nums[1]/60 + nums[2]/3600), true
}

// locationFromXMP pairs the EXIF GPSLatitude/GPSLongitude of an XMP packet.
func locationFromXMP(fields *xmpFields) (Location, bool) {
	if fields == nil {
		return Location{}, false
	}
	latText, ok := fields.values["GPSLatitude"]
	if !ok {
		return Location{}, false
	}
	lonText, ok := fields.values["GPSLongitude"]
	if !ok {
		return Location{}, false
	}

	lat, ok := parseSexagesimal(latText)
	if !ok {
		return Location{}, false
	}
	lon, ok := parseSexagesimal(lonText)
	if !ok {
		return Location{}, false
	}
	return Location{Latitude: lat, Longitude: lon}, true
}
