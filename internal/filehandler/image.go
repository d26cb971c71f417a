package filehandler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageMetadata contains EXIF metadata extracted from an image.
// imagemeta reads only the metadata blocks, so large photos are not loaded
// into memory; HEIC is handled by walking its BMFF boxes to the EXIF item.
type ImageMetadata struct {
	Latitude  float64
	Longitude float64
	HasGPS    bool

	// DateTaken carries the OffsetTimeOriginal zone when the camera wrote one.
	DateTaken time.Time
	HasDate   bool

	CameraMake  string
	CameraModel string

	// RawFields keeps the source EXIF values for display.
	RawFields map[string]string
}

var _ MediaMetadata = (*ImageMetadata)(nil)

func (m *ImageMetadata) GetMediaType() string {
	return "image"
}

func (m *ImageMetadata) HasGPSData() bool {
	return m.HasGPS
}

func (m *ImageMetadata) GetGPS() (latitude, longitude float64) {
	return m.Latitude, m.Longitude
}

func (m *ImageMetadata) HasDateData() bool {
	return m.HasDate
}

func (m *ImageMetadata) GetDate() time.Time {
	return m.DateTaken
}

// ExtractImageMetadata decodes the EXIF block of a JPEG, HEIC, TIFF or
// similar image. The date falls back from DateTimeOriginal to CreateDate
// to ModifyDate.
func ExtractImageMetadata(filePath string) (*ImageMetadata, error) {
	log.Debug().Str("path", filePath).Msg("Extracting EXIF metadata")

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exifData, err := imagemeta.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{
		RawFields: make(map[string]string),
	}

	// imagemeta reports 0,0 for a missing GPS IFD.
	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		metadata.Latitude = gps.Latitude()
		metadata.Longitude = gps.Longitude()
		metadata.HasGPS = true
		metadata.RawFields["GPSLatitude"] = fmt.Sprintf("%f", gps.Latitude())
		metadata.RawFields["GPSLongitude"] = fmt.Sprintf("%f", gps.Longitude())
	}

	dates := []struct {
		name  string
		value time.Time
	}{
		{"DateTimeOriginal", exifData.DateTimeOriginal()},
		{"CreateDate", exifData.CreateDate()},
		{"ModifyDate", exifData.ModifyDate()},
	}
	for _, d := range dates {
		if d.value.IsZero() {
			continue
		}
		metadata.DateTaken = d.value
		metadata.HasDate = true
		metadata.RawFields[d.name] = d.value.String()
		break
	}

	metadata.CameraMake = strings.TrimSpace(exifData.Make)
	metadata.CameraModel = strings.TrimSpace(exifData.Model)
	if metadata.CameraMake != "" {
		metadata.RawFields["Make"] = metadata.CameraMake
	}
	if metadata.CameraModel != "" {
		metadata.RawFields["Model"] = metadata.CameraModel
	}

	log.Debug().
		Str("path", filePath).
		Bool("has_gps", metadata.HasGPS).
		Bool("has_date", metadata.HasDate).
		Msg("Image metadata extraction complete")

	return metadata, nil
}

// FormatMetadataContext formats the image metadata as a markdown report.
func (m *ImageMetadata) FormatMetadataContext() string {
	r := newReport(m.GetMediaType())
	r.gps(m.HasGPS, m.Latitude, m.Longitude)
	r.date("Date/Time Taken", m.HasDate, m.DateTaken)
	r.section("Camera", [][2]string{
		{"Make", m.CameraMake},
		{"Model", m.CameraModel},
	})
	return r.String()
}
