// Package filehandler loads media files from disk and attaches their capture
// metadata.
//
// Metadata comes from one of two providers, chosen by extension:
//   - Images (JPEG, PNG, HEIC, etc.): EXIF via evanoberholster/imagemeta
//   - Videos (MP4, MOV, M4V, 3GP): QuickTime atoms via internal/videometa
//
// Both providers implement MediaMetadata, so callers can report on a mixed
// directory without knowing which decoder produced each record.
package filehandler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/mediameta/internal/videometa"
)

// SupportedImageExtensions maps image extensions to MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// SupportedVideoExtensions maps the QuickTime/ISO-BMFF video extensions to MIME types.
var SupportedVideoExtensions = map[string]string{
	".mp4": "video/mp4",
	".m4v": "video/x-m4v",
	".mov": "video/quicktime",
	".3gp": "video/3gpp",
}

// MediaMetadata is implemented by ImageMetadata and VideoMetadata.
type MediaMetadata interface {
	// FormatMetadataContext returns a markdown report of the metadata.
	FormatMetadataContext() string

	// GetMediaType returns "image" or "video".
	GetMediaType() string

	HasGPSData() bool

	// GetGPS returns latitude and longitude (0,0 if not available).
	GetGPS() (latitude, longitude float64)

	HasDateData() bool

	GetDate() time.Time
}

// MediaFile is a supported file on disk plus whatever metadata could be read from it.
// Metadata is nil when extraction failed.
type MediaFile struct {
	Path     string
	MIMEType string
	Size     int64
	Metadata MediaMetadata
}

// LoadMediaFile stats filePath, resolves its MIME type and routes it to the
// matching metadata provider. A metadata failure is logged and leaves
// Metadata nil; only stat and extension errors are returned.
func LoadMediaFile(filePath string) (*MediaFile, error) {
	log.Debug().Str("path", filePath).Msg("Loading media file")

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	mimeType, err := GetMIMEType(ext)
	if err != nil {
		return nil, err
	}

	mediaFile := &MediaFile{
		Path:     filePath,
		MIMEType: mimeType,
		Size:     info.Size(),
	}

	switch {
	case IsImage(ext):
		imgMeta, err := ExtractImageMetadata(filePath)
		if err != nil {
			log.Warn().Err(err).Str("path", filePath).Msg("Failed to extract image metadata, continuing without it")
		} else {
			mediaFile.Metadata = imgMeta
		}
	case IsVideo(ext):
		vidMeta, err := ExtractVideoMetadata(filePath)
		if err != nil {
			log.Warn().Err(err).Str("path", filePath).Msg("Failed to extract video metadata, continuing without it")
		} else {
			mediaFile.Metadata = vidMeta
		}
	}

	log.Debug().
		Str("path", filePath).
		Str("mime_type", mimeType).
		Int64("size_bytes", info.Size()).
		Bool("has_metadata", mediaFile.Metadata != nil).
		Msg("Media file loaded")

	return mediaFile, nil
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)

	if mimeType, ok := SupportedImageExtensions[ext]; ok {
		return mimeType, nil
	}
	if mimeType, ok := SupportedVideoExtensions[ext]; ok {
		return mimeType, nil
	}

	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

func IsVideo(ext string) bool {
	_, ok := SupportedVideoExtensions[strings.ToLower(ext)]
	return ok
}

// IsSupported returns true if the file extension is an image or a video.
func IsSupported(ext string) bool {
	return IsImage(ext) || IsVideo(ext)
}

// CoordinatesToDMS converts decimal degrees to degrees, minutes, seconds format.
func CoordinatesToDMS(lat, lon float64) string {
	return videometa.Location{Latitude: lat, Longitude: lon}.DMS()
}
