package filehandler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/mediameta/internal/videometa"
)

// VideoMetadata adapts a decoded QuickTime/MP4 record to MediaMetadata.
// Device fields are copied out of the moov keys table.
type VideoMetadata struct {
	Latitude  float64
	Longitude float64
	HasGPS    bool

	CreateDate time.Time
	HasDate    bool

	Width    int
	Height   int
	Rotation int
	// HasRotation distinguishes an unrotated track from an unknown matrix.
	HasRotation bool

	Keywords         []string
	CompatibleBrands []string

	DeviceMake     string
	DeviceModel    string
	DeviceSoftware string

	// AtomsScanned is how many atom headers the decoder read.
	AtomsScanned int

	// RawFields holds the full moov keys table.
	RawFields map[string]string

	// Source is the decoder output the fields above were taken from.
	Source *videometa.Metadata
}

var _ MediaMetadata = (*VideoMetadata)(nil)

func (m *VideoMetadata) GetMediaType() string {
	return "video"
}

func (m *VideoMetadata) HasGPSData() bool {
	return m.HasGPS
}

func (m *VideoMetadata) GetGPS() (latitude, longitude float64) {
	return m.Latitude, m.Longitude
}

func (m *VideoMetadata) HasDateData() bool {
	return m.HasDate
}

func (m *VideoMetadata) GetDate() time.Time {
	return m.CreateDate
}

// ExtractVideoMetadata decodes the atoms of a QuickTime or MP4 file.
// Only failing to open or read the file is an error; damaged atoms just
// leave fields unset.
func ExtractVideoMetadata(filePath string) (*VideoMetadata, error) {
	log.Debug().Str("path", filePath).Msg("Extracting video metadata from atoms")

	dec, err := videometa.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	md := dec.Decode()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("failed to read video atoms: %w", err)
	}
	metadata := NewVideoMetadata(md)
	metadata.AtomsScanned = dec.AtomsScanned()

	log.Debug().
		Str("path", filePath).
		Bool("has_gps", metadata.HasGPS).
		Bool("has_date", metadata.HasDate).
		Int("width", metadata.Width).
		Int("height", metadata.Height).
		Int("atoms_scanned", metadata.AtomsScanned).
		Msg("Video metadata extraction complete")

	return metadata, nil
}

// NewVideoMetadata flattens a decoded record.
func NewVideoMetadata(md *videometa.Metadata) *VideoMetadata {
	m := &VideoMetadata{
		Keywords:         md.Keywords,
		CompatibleBrands: md.CompatibleBrands,
		RawFields:        make(map[string]string, len(md.Tags)),
		Source:           md,
	}

	if md.Location != nil {
		m.Latitude = md.Location.Latitude
		m.Longitude = md.Location.Longitude
		m.HasGPS = true
	}
	if md.Timestamp != nil {
		m.CreateDate = *md.Timestamp
		m.HasDate = true
	}
	if md.PixelSize != nil {
		m.Width = int(md.PixelSize.Width)
		m.Height = int(md.PixelSize.Height)
	}
	if md.Rotation != nil {
		m.Rotation = *md.Rotation
		m.HasRotation = true
	}

	for key, value := range md.Tags {
		m.RawFields[key] = value
	}
	m.DeviceMake = md.Tags[videometa.KeyMake]
	m.DeviceModel = md.Tags[videometa.KeyModel]
	m.DeviceSoftware = md.Tags[videometa.KeySoftware]

	return m
}

// resolutionLabel names the common broadcast sizes by their long edge.
func resolutionLabel(width, height int) string {
	long := width
	if height > long {
		long = height
	}
	switch {
	case long >= 3840:
		return " (4K UHD)"
	case long >= 1920:
		return " (Full HD)"
	case long >= 1280:
		return " (HD)"
	default:
		return ""
	}
}

// FormatMetadataContext formats the video metadata as a markdown report.
func (m *VideoMetadata) FormatMetadataContext() string {
	r := newReport(m.GetMediaType())
	r.gps(m.HasGPS, m.Latitude, m.Longitude)
	r.date("Date/Time Created", m.HasDate, m.CreateDate)

	var resolution, rotation string
	if m.Width > 0 && m.Height > 0 {
		resolution = fmt.Sprintf("%dx%d%s", m.Width, m.Height, resolutionLabel(m.Width, m.Height))
	}
	if m.HasRotation {
		rotation = fmt.Sprintf("%d°", m.Rotation)
	}
	r.section("Video Properties", [][2]string{
		{"Resolution", resolution},
		{"Rotation", rotation},
		{"Brands", strings.Join(m.CompatibleBrands, ", ")},
	})

	r.section("Keywords", [][2]string{
		{"Tags", strings.Join(m.Keywords, ", ")},
	})

	r.section("Recording Device", [][2]string{
		{"Make", m.DeviceMake},
		{"Model", m.DeviceModel},
		{"Software", m.DeviceSoftware},
	})

	return r.String()
}
