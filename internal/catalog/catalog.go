// Package catalog exports scan results as newline-delimited JSON, optionally
// zstd-compressed when the file name ends in .zst.
package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/fpang/mediameta/internal/filehandler"
	"github.com/fpang/mediameta/internal/videometa"
)

// Entry is one line of the catalog.
type Entry struct {
	Path      string              `json:"path"`
	MediaType string              `json:"mediaType,omitempty"`
	MIMEType  string              `json:"mimeType"`
	Size      int64               `json:"size"`
	Date      *time.Time          `json:"date,omitempty"`
	Location  *videometa.Location `json:"location,omitempty"`
	Video     *videometa.Metadata `json:"video,omitempty"`
}

// NewEntry flattens a loaded media file.
func NewEntry(file *filehandler.MediaFile) Entry {
	e := Entry{
		Path:     file.Path,
		MIMEType: file.MIMEType,
		Size:     file.Size,
	}
	md := file.Metadata
	if md == nil {
		return e
	}

	e.MediaType = md.GetMediaType()
	if md.HasDateData() {
		d := md.GetDate()
		e.Date = &d
	}
	if md.HasGPSData() {
		lat, lon := md.GetGPS()
		e.Location = &videometa.Location{Latitude: lat, Longitude: lon}
	}
	if vm, ok := md.(*filehandler.VideoMetadata); ok {
		e.Video = vm.Source
	}
	return e
}

// Writer encodes entries one per line.
type Writer struct {
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	zw     *zstd.Encoder
}

// NewWriter writes plain NDJSON to w.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{buf: buf, enc: json.NewEncoder(buf)}
}

// NewZstdWriter writes zstd-compressed NDJSON to w.
func NewZstdWriter(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	cw := NewWriter(zw)
	cw.zw = zw
	return cw, nil
}

// Create opens path for writing and picks the encoding from its extension.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".zst") {
		w := NewWriter(f)
		w.closer = f
		return w, nil
	}

	w, err := NewZstdWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Write appends one entry.
func (w *Writer) Write(e Entry) error {
	if err := w.enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode catalog entry %s: %w", e.Path, err)
	}
	return nil
}

// Close flushes buffered output and closes the compressor and the file.
func (w *Writer) Close() error {
	var errs []error
	if err := w.buf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Read decodes every entry of a catalog file written by Create.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var entries []Entry
	dec := json.NewDecoder(r)
	for {
		var e Entry
		err := dec.Decode(&e)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode catalog entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
}
