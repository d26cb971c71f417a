package filehandler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// MaxDepth limits recursion depth. 0 = unlimited, 1 = top-level only.
	MaxDepth int

	// Limit caps the number of files returned. 0 = unlimited.
	Limit int

	// Include selects files by lower-cased extension. IsSupported when nil.
	Include func(ext string) bool
}

// ScanResult is the sorted list of loaded files plus per-kind counts.
type ScanResult struct {
	Files        []*MediaFile
	Images       int
	Videos       int
	Failed       int
	LimitReached bool
}

// ScanDirectoryMedia scans a directory for all supported media files with
// default options.
func ScanDirectoryMedia(dirPath string) ([]*MediaFile, error) {
	res, err := ScanDirectoryWithOptions(dirPath, ScanOptions{})
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

// ScanDirectoryWithOptions walks dirPath and loads every matching file.
// Symlinks to files are followed; symlinks to directories are skipped to
// prevent loops. Files are sorted by path.
func ScanDirectoryWithOptions(dirPath string, opts ScanOptions) (*ScanResult, error) {
	include := opts.Include
	if include == nil {
		include = IsSupported
	}

	log.Info().
		Str("path", dirPath).
		Int("max_depth", opts.MaxDepth).
		Int("limit", opts.Limit).
		Msg("Scanning directory for media")

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	baseDepth := strings.Count(absPath, string(os.PathSeparator))

	res := &ScanResult{}
	err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path, skipping")
			return nil
		}

		if opts.MaxDepth > 0 && d.IsDir() {
			if strings.Count(path, string(os.PathSeparator))-baseDepth >= opts.MaxDepth {
				return fs.SkipDir
			}
		}
		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !isFileSymlink(path) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !include(ext) {
			return nil
		}

		if opts.Limit > 0 && len(res.Files) >= opts.Limit {
			res.LimitReached = true
			return fs.SkipAll
		}

		mediaFile, err := LoadMediaFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", d.Name()).Msg("Failed to load media file, skipping")
			res.Failed++
			return nil
		}

		if IsImage(ext) {
			res.Images++
		} else if IsVideo(ext) {
			res.Videos++
		}
		res.Files = append(res.Files, mediaFile)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Slice(res.Files, func(i, j int) bool {
		return res.Files[i].Path < res.Files[j].Path
	})

	logEvent := log.Info().
		Int("total_media", len(res.Files)).
		Int("images", res.Images).
		Int("videos", res.Videos).
		Int("failed", res.Failed).
		Str("directory", dirPath)
	if res.LimitReached {
		logEvent.Bool("limit_reached", true)
	}
	logEvent.Msg("Directory media scan complete")

	return res, nil
}

func isFileSymlink(path string) bool {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to resolve symlink, skipping")
		return false
	}
	info, err := os.Stat(target)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to stat symlink target, skipping")
		return false
	}
	if info.IsDir() {
		log.Debug().Str("path", path).Msg("Skipping symlink to directory")
		return false
	}
	return true
}
