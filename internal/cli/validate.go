package cli

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
)

// ExpandPath expands a leading ~ and makes the path absolute. The input is
// returned unchanged if either step fails.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Failed to expand home directory")
		return path
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return expanded
	}
	return abs
}

// ValidateAndResolveDirectory checks that the path exists and is a directory,
// then returns the absolute path. Exits fatally on failure.
func ValidateAndResolveDirectory(dirPath string) string {
	dirPath = ExpandPath(dirPath)

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatal().Str("path", dirPath).Msg("Directory not found")
		}
		log.Fatal().Err(err).Str("path", dirPath).Msg("Failed to access directory")
	}
	if !info.IsDir() {
		log.Fatal().Str("path", dirPath).Msg("Path is not a directory")
	}

	return dirPath
}
