package videometa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO6709(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
		wantOK  bool
	}{
		{
			name:    "latitude and longitude",
			input:   "+47.6062-122.3321/",
			wantLat: 47.6062,
			wantLon: -122.3321,
			wantOK:  true,
		},
		{
			name:    "with altitude",
			input:   "+37.7749-122.4194+000.000/",
			wantLat: 37.7749,
			wantLon: -122.4194,
			wantOK:  true,
		},
		{
			name:    "southern hemisphere",
			input:   "-33.8688+151.2093/",
			wantLat: -33.8688,
			wantLon: 151.2093,
			wantOK:  true,
		},
		{
			name:   "only one coordinate",
			input:  "+47.6062/",
			wantOK: false,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := parseISO6709(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.wantLat, loc.Latitude, 1e-9)
			assert.InDelta(t, tt.wantLon, loc.Longitude, 1e-9)
		})
	}
}

func TestParseSexagesimal(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{input: "47,33.366000N", want: 47.5561, wantOK: true},
		{input: "122,19.926000W", want: -122.3321, wantOK: true},
		{input: "33,51,54S", want: -(33 + 51.0/60 + 54.0/3600), wantOK: true},
		{input: "151,12.558e", want: 151.2093, wantOK: true},
		{input: "47,33.366", wantOK: false},
		{input: "47N", wantOK: false},
		{input: "a,bN", wantOK: false},
		{input: "1,2,3,4N", wantOK: false},
		{input: "N", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseSexagesimal(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestLocationFromXMPRequiresBothCoordinates(t *testing.T) {
	fields := &xmpFields{values: map[string]string{"GPSLatitude": "47,33.366N"}}
	_, ok := locationFromXMP(fields)
	assert.False(t, ok)

	_, ok = locationFromXMP(nil)
	assert.False(t, ok)
}

func TestLocationString(t *testing.T) {
	loc := Location{Latitude: 47.6062, Longitude: -122.3321}
	assert.Equal(t, "47.606200, -122.332100", loc.String())
}

func TestLocationMetersTo(t *testing.T) {
	nashville := Location{Latitude: 36.12, Longitude: -86.67}
	losAngeles := Location{Latitude: 33.94, Longitude: -118.40}

	assert.InDelta(t, 2887259.95, nashville.MetersTo(losAngeles), 1)
	assert.InDelta(t, 0, nashville.MetersTo(nashville), 1e-6)
}

func TestLocationDMS(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{
			name: "New York",
			loc:  Location{Latitude: 40.7128, Longitude: -74.0060},
			want: "40°42'46.08\"N, 74°0'21.60\"W",
		},
		{
			name: "Sydney",
			loc:  Location{Latitude: -33.8688, Longitude: 151.2093},
			want: "33°52'7.68\"S, 151°12'33.48\"E",
		},
		{
			name: "origin",
			loc:  Location{},
			want: "0°0'0.00\"N, 0°0'0.00\"E",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.DMS())
		})
	}
}
