// Package atom walks the QuickTime/ISO-BMFF atom (box) hierarchy.
//
// The top level of a file is scanned eagerly in one linear pass. Every other
// level is scanned lazily, the first time a path lookup passes through it, and
// the result is cached on the node. Nodes live in a flat arena owned by the
// Tree and refer to their children by index, so nothing links back to a parent.
package atom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

// MaxPayloadSize caps how much of a single atom Payload will buffer.
const MaxPayloadSize = 64 << 20

// NodeID indexes a Node inside its Tree.
type NodeID int

// Node is one atom: a 4-character type, its absolute header offset and its
// total length including the header.
type Node struct {
	Type       string
	Offset     int64
	Length     int64
	HeaderSize int

	children []NodeID
	expanded bool
}

// End returns the absolute offset one past the last byte of the atom.
func (n Node) End() int64 {
	return n.Offset + n.Length
}

// PayloadOffset returns the absolute offset of the first byte after the header.
func (n Node) PayloadOffset() int64 {
	return n.Offset + int64(n.HeaderSize)
}

// PayloadSize returns the number of bytes after the header.
func (n Node) PayloadSize() int64 {
	return n.Length - int64(n.HeaderSize)
}

func (n Node) String() string {
	return fmt.Sprintf("[%s] @ %d (Size: %d)", n.Type, n.Offset, n.Length)
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger routes the tree's structural warnings to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tree) {
		t.log = logger
	}
}

// Tree is the lazily expanded atom hierarchy of one byte source.
// A Tree is not safe for concurrent use.
type Tree struct {
	r     io.ReaderAt
	size  int64
	nodes []Node
	roots []NodeID
	scans int
	err   error
	log   zerolog.Logger
}

// NewTree scans the top-level atoms of r, which holds size bytes.
// Structural problems stop the scan where they occur; whatever was read
// before them is kept.
func NewTree(r io.ReaderAt, size int64, opts ...Option) *Tree {
	t := &Tree{
		r:    r,
		size: size,
		log:  log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.roots = t.scanLevel(0, size)
	return t
}

// Size returns the length of the underlying byte source.
func (t *Tree) Size() int64 {
	return t.size
}

// Scans returns how many atom headers have been read so far.
func (t *Tree) Scans() int {
	return t.scans
}

// Err returns the first read failure other than running out of data.
// Atoms past the failure are missing from the tree, so a non-nil Err means
// the tree may be incomplete rather than the file being short.
func (t *Tree) Err() error {
	return t.err
}

// Roots returns the top-level atoms in file order.
func (t *Tree) Roots() []NodeID {
	return t.roots
}

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// Expanded reports whether the children of id have been scanned.
func (t *Tree) Expanded(id NodeID) bool {
	return t.nodes[id].expanded
}

// Children scans the children of id on first use and returns them.
// Later calls return the cached list without touching the source.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.nodes[id]
	if n.expanded {
		return n.children
	}
	t.nodes[id].expanded = true

	children := t.scanLevel(n.PayloadOffset(), n.End())
	t.nodes[id].children = children
	return children
}

// Find resolves a path of atom types from the top level, for example
// Find("moov", "meta", "keys"). Only the atoms along the path are expanded.
// At each level the first atom of the requested type is followed.
func (t *Tree) Find(path ...string) (NodeID, bool) {
	return t.findIn(t.roots, path)
}

// FindFrom resolves path relative to the children of id.
func (t *Tree) FindFrom(id NodeID, path ...string) (NodeID, bool) {
	return t.findIn(t.Children(id), path)
}

func (t *Tree) findIn(ids []NodeID, path []string) (NodeID, bool) {
	if len(path) == 0 {
		return 0, false
	}
	for _, id := range ids {
		if t.nodes[id].Type != path[0] {
			continue
		}
		if len(path) == 1 {
			return id, true
		}
		return t.findIn(t.Children(id), path[1:])
	}
	return 0, false
}

// ChildrenOfType returns every child of id with the given type, in order.
func (t *Tree) ChildrenOfType(id NodeID, typ string) []NodeID {
	var out []NodeID
	for _, child := range t.Children(id) {
		if t.nodes[child].Type == typ {
			out = append(out, child)
		}
	}
	return out
}

// Payload reads the bytes following the header of id.
func (t *Tree) Payload(id NodeID) ([]byte, error) {
	n := t.nodes[id]
	size := n.PayloadSize()
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("%s atom payload of %d bytes: %w", n.Type, size, ErrPayloadTooLarge)
	}

	return t.read(n, make([]byte, size))
}

// PayloadPrefix reads at most size bytes from the start of id's payload.
func (t *Tree) PayloadPrefix(id NodeID, size int) ([]byte, error) {
	n := t.nodes[id]
	if int64(size) > n.PayloadSize() {
		size = int(n.PayloadSize())
	}
	return t.read(n, make([]byte, size))
}

func (t *Tree) read(n Node, buf []byte) ([]byte, error) {
	read, err := t.readAt(buf, n.PayloadOffset())
	if err != nil {
		return nil, fmt.Errorf("read %s payload at %d: %w", n.Type, n.PayloadOffset(), err)
	}
	if read < len(buf) {
		return nil, fmt.Errorf("read %s payload at %d: %w", n.Type, n.PayloadOffset(), ErrShortRead)
	}
	return buf, nil
}

// readAt treats io.EOF as a short read and records any other failure as
// the tree's Err.
func (t *Tree) readAt(p []byte, off int64) (int, error) {
	n, err := t.r.ReadAt(p, off)
	if err == nil || errors.Is(err, io.EOF) {
		return n, nil
	}
	if t.err == nil {
		t.err = fmt.Errorf("read at %d: %w", off, err)
	}
	return n, err
}

// scanLevel reads consecutive sibling atoms in [start, end).
func (t *Tree) scanLevel(start, end int64) []NodeID {
	if end > t.size {
		end = t.size
	}

	var ids []NodeID
	offset := start
	for offset < end {
		n, ok, err := t.scanOne(offset, end)
		if err != nil {
			t.log.Warn().Err(err).Int64("offset", offset).Msg("Failed reading atom, stopping at this level")
			break
		}
		if !ok {
			break
		}

		ids = append(ids, NodeID(len(t.nodes)))
		t.nodes = append(t.nodes, n)
		offset += n.Length
	}
	return ids
}

// scanOne reads the atom header at offset. It reports ok=false without an
// error when no atom starts there: the data ends before the length field,
// or the length is zero. A zero length terminates the level instead of
// meaning "extends to end of file". Read failures other than end of data
// are returned as errors.
func (t *Tree) scanOne(offset, limit int64) (Node, bool, error) {
	t.scans++

	var hdr [16]byte
	n, err := t.readAt(hdr[:8], offset)
	if err != nil {
		return Node{}, false, fmt.Errorf("atom header at %d: %w", offset, err)
	}
	if n < 4 {
		return Node{}, false, nil
	}
	length := binary.BigEndian.Uint32(hdr[:4])
	if length == 0 {
		return Node{}, false, nil
	}
	if n < 8 {
		return Node{}, false, fmt.Errorf("atom type at %d: %w", offset+4, ErrShortRead)
	}

	node := Node{
		Type:       decodeFourCC(hdr[4:8]),
		Offset:     offset,
		Length:     int64(length),
		HeaderSize: 8,
	}

	switch {
	case length == 1:
		n, err := t.readAt(hdr[8:16], offset+8)
		if err != nil {
			return Node{}, false, fmt.Errorf("extended size of %s at %d: %w", node.Type, offset, err)
		}
		if n < 8 {
			return Node{}, false, fmt.Errorf("extended size of %s at %d: %w", node.Type, offset, ErrShortRead)
		}
		large := binary.BigEndian.Uint64(hdr[8:16])
		if large < 16 || large > uint64(limit-offset) {
			return Node{}, false, fmt.Errorf("%s at %d claims %d bytes, %d available: %w",
				node.Type, offset, large, limit-offset, ErrOutOfBounds)
		}
		node.Length = int64(large)
		node.HeaderSize = 16
	case length < 8:
		return Node{}, false, fmt.Errorf("%s at %d has length %d: %w", node.Type, offset, length, ErrInvalidLength)
	case node.End() > limit:
		return Node{}, false, fmt.Errorf("%s at %d claims %d bytes, %d available: %w",
			node.Type, offset, length, limit-offset, ErrOutOfBounds)
	}

	return node, true, nil
}

// decodeFourCC returns tag bytes as text. Tags that are not valid UTF-8 are
// read as Mac OS Roman, which is how QuickTime spells tags such as "©xyz".
func decodeFourCC(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
