// Package videometa reads capture metadata from QuickTime/MP4 files by
// decoding a handful of well-known atoms:
//   - ftyp: compatible brands
//   - uuid and moov/udta/XMP_: embedded XMP (GPS, create date, keywords)
//   - moov/meta/keys + ilst: the QuickTime metadata table
//   - moov/mvhd: movie creation time
//   - trak/tkhd, hdlr and stsd: rotation and pixel size of the video track
//
// Each atom is optional. A missing or malformed atom drops the fields that
// depend on it and never fails the whole file.
package videometa

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/mediameta/internal/atom"
)

// Decoder owns the atom tree of one source for the duration of a parse.
// A Decoder is not safe for concurrent use; separate Decoders are independent.
type Decoder struct {
	tree   *atom.Tree
	closer io.Closer
	log    zerolog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for decode warnings. The global zerolog
// logger is used otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Decoder) {
		d.log = logger
	}
}

// Open opens the file at path and scans its top-level atoms.
// The caller must Close the Decoder.
func Open(path string, opts ...Option) (*Decoder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	opts = append(opts[:len(opts):len(opts)], func(d *Decoder) {
		d.log = d.log.With().Str("path", path).Logger()
	})

	d := NewDecoder(file, info.Size(), opts...)
	d.closer = file
	return d, nil
}

// NewDecoder scans the top-level atoms of an in-memory or otherwise
// random-access source holding size bytes.
func NewDecoder(r io.ReaderAt, size int64, opts ...Option) *Decoder {
	d := &Decoder{log: log.Logger}
	for _, opt := range opts {
		opt(d)
	}
	d.tree = atom.NewTree(r, size, atom.WithLogger(d.log))
	return d
}

// Close releases the underlying file, if the Decoder opened one.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// Tree exposes the atom tree, for example to dump it.
func (d *Decoder) Tree() *atom.Tree {
	return d.tree
}

// Err returns the first I/O failure hit while reading atoms. Running out of
// data is not a failure; a non-nil Err means fields may be missing because
// the source could not be read, not because the file lacks them.
func (d *Decoder) Err() error {
	return d.tree.Err()
}

// AtomsScanned returns how many atom headers have been read so far.
func (d *Decoder) AtomsScanned() int {
	return d.tree.Scans()
}

// Decode runs every field decoder and resolves the final record.
func (d *Decoder) Decode() *Metadata {
	var raw rawMetadata

	d.decodeFtyp(&raw)
	d.decodeUUID(&raw)
	d.decodeXMPAtom(&raw)
	d.decodeKeyTable(&raw)
	d.decodeMvhd(&raw)
	d.decodeUserDataLocation(&raw)
	d.decodeTracks(&raw)

	md := d.resolve(&raw)

	d.log.Debug().
		Bool("has_gps", md.Location != nil).
		Bool("has_date", md.Timestamp != nil).
		Bool("has_size", md.PixelSize != nil).
		Bool("has_rotation", md.Rotation != nil).
		Int("keywords", len(md.Keywords)).
		Strs("brands", md.CompatibleBrands).
		Int("atoms_scanned", d.tree.Scans()).
		Msg("Video atoms decoded")

	return md
}

// Parse opens path, decodes it and closes it again. Failures to open or
// read the file are returned as errors; malformed atoms are not.
func Parse(path string, opts ...Option) (*Metadata, error) {
	d, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	md := d.Decode()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return md, nil
}

// ParseBytes decodes an in-memory file.
func ParseBytes(data []byte, opts ...Option) *Metadata {
	return NewDecoder(bytes.NewReader(data), int64(len(data)), opts...).Decode()
}
