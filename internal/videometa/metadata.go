package videometa

import (
	"fmt"
	"math"
	"time"
)

// Metadata is the decoded result for one file. Every field is independently
// optional; a nil pointer or nil slice means the file did not carry it.
// A Metadata is not modified after Decode returns it.
type Metadata struct {
	Location  *Location  `json:"location,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Keywords  []string   `json:"keywords,omitempty"`
	PixelSize *PixelSize `json:"pixelSize,omitempty"`
	Rotation  *int       `json:"rotation,omitempty"`

	// CompatibleBrands is empty rather than nil when there is no ftyp atom.
	CompatibleBrands []string `json:"compatibleBrands"`

	// Tags is the raw moov keys/ilst table, e.g. com.apple.quicktime.make.
	Tags map[string]string `json:"tags,omitempty"`
}

// Location is a WGS84 coordinate in signed decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// earthRadiusKm is the mean radius used for haversine distances.
const earthRadiusKm = 6372.8

// String formats the location as "lat, lon" with six decimals.
func (l Location) String() string {
	return fmt.Sprintf("%.6f, %.6f", l.Latitude, l.Longitude)
}

// DMS formats the location in degrees, minutes and seconds,
// e.g. 40°42'46.08"N, 74°0'21.60"W.
func (l Location) DMS() string {
	latDeg, latMin, latSec := splitDegrees(math.Abs(l.Latitude))
	lonDeg, lonMin, lonSec := splitDegrees(math.Abs(l.Longitude))

	latDir := "N"
	if l.Latitude < 0 {
		latDir = "S"
	}
	lonDir := "E"
	if l.Longitude < 0 {
		lonDir = "W"
	}

	return fmt.Sprintf("%d°%d'%.2f\"%s, %d°%d'%.2f\"%s",
		latDeg, latMin, latSec, latDir,
		lonDeg, lonMin, lonSec, lonDir)
}

func splitDegrees(v float64) (deg, mins int, sec float64) {
	deg = int(v)
	minutes := (v - float64(deg)) * 60
	mins = int(minutes)
	sec = (minutes - float64(mins)) * 60
	return deg, mins, sec
}

// MetersTo returns the great-circle distance to other.
func (l Location) MetersTo(other Location) float64 {
	lat1 := l.Latitude * math.Pi / 180
	lon1 := l.Longitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	lon2 := other.Longitude * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKm * c * 1000
}

// PixelSize is the coded width and height of the video track.
type PixelSize struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func (p PixelSize) String() string {
	return fmt.Sprintf("%d x %d", p.Width, p.Height)
}
