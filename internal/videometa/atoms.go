package videometa

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/fpang/mediameta/internal/atom"
)

// xmpUUID identifies a uuid atom that carries an XMP packet.
var xmpUUID = uuid.MustParse("be7acfcb-97a9-42e8-9c71-999491e3afac")

const videoHandler = "vide"

// Fixed-point 16.16 bit patterns accepted in the tkhd matrix.
const (
	fixedMinusOne = 0xFFFF0000
	fixedOne      = 0x00010000
	fixedZero     = 0x00000000
)

// rawMetadata collects what each decoder found before precedence is applied.
type rawMetadata struct {
	brands []string

	uuidXMP *xmpFields
	atomXMP *xmpFields

	tags map[string]string

	mvhdSeconds uint64
	hasMvhd     bool

	userDataLocation string

	rotation  *int
	pixelSize *PixelSize
}

// payload locates path and returns a cursor over its payload.
func (d *Decoder) payload(path ...string) (*atom.Cursor, atom.Node, bool) {
	id, ok := d.tree.Find(path...)
	if !ok {
		d.log.Debug().Strs("atom_path", path).Msg("Atom not present")
		return nil, atom.Node{}, false
	}
	return d.payloadOf(id)
}

func (d *Decoder) payloadOf(id atom.NodeID) (*atom.Cursor, atom.Node, bool) {
	node := d.tree.Node(id)
	data, err := d.tree.Payload(id)
	if err != nil {
		d.log.Warn().Err(err).Str("atom", node.Type).Int64("offset", node.Offset).Msg("Failed to read atom payload")
		return nil, node, false
	}
	return atom.NewCursor(data), node, true
}

// decodeFtyp reads the compatible brands that follow the major brand and
// minor version.
func (d *Decoder) decodeFtyp(raw *rawMetadata) {
	c, _, ok := d.payload("ftyp")
	if !ok {
		return
	}
	if err := c.Skip(8); err != nil {
		d.log.Warn().Err(err).Msg("ftyp atom too short")
		return
	}
	for c.Remaining() >= 4 {
		brand, _ := c.ReadFixedString(4)
		raw.brands = append(raw.brands, brand)
	}
}

// decodeUUID reads the XMP packet of a top-level uuid atom: 16 bytes of
// identifier followed by XML. The XMP identifier is preferred when several
// uuid atoms are present.
func (d *Decoder) decodeUUID(raw *rawMetadata) {
	var candidates []atom.NodeID
	for _, id := range d.tree.Roots() {
		if d.tree.Node(id).Type == "uuid" {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return
	}

	chosen := candidates[0]
	var chosenID uuid.UUID
	for _, id := range candidates {
		head, err := d.tree.PayloadPrefix(id, 16)
		if err != nil || len(head) < 16 {
			continue
		}
		if u, err := uuid.FromBytes(head); err == nil && u == xmpUUID {
			chosen = id
			chosenID = u
			break
		}
	}

	c, node, ok := d.payloadOf(chosen)
	if !ok {
		return
	}
	head, err := c.ReadBytes(16)
	if err != nil {
		d.log.Warn().Err(err).Int64("offset", node.Offset).Msg("uuid atom too short")
		return
	}
	if chosenID != xmpUUID {
		u, _ := uuid.FromBytes(head)
		d.log.Debug().Str("uuid", u.String()).Msg("uuid atom is not tagged as XMP, parsing anyway")
	}

	text, _ := c.ReadFixedString(c.Remaining())
	fields, err := parseXMP(text)
	if err != nil {
		d.log.Warn().Err(err).Msg("Dropping uuid XMP packet")
		return
	}
	raw.uuidXMP = fields
}

// decodeXMPAtom reads the XMP packet stored as the whole payload of moov/udta/XMP_.
func (d *Decoder) decodeXMPAtom(raw *rawMetadata) {
	c, _, ok := d.payload("moov", "udta", "XMP_")
	if !ok {
		return
	}
	text, _ := c.ReadFixedString(c.Remaining())
	fields, err := parseXMP(text)
	if err != nil {
		d.log.Warn().Err(err).Msg("Dropping XMP_ packet")
		return
	}
	raw.atomXMP = fields
}

// decodeKeyTable joins the names in moov/meta/keys with the values in
// moov/meta/ilst. keys holds an 8-byte count and then length-prefixed names
// that start with a 4-byte namespace ("mdta"). Each ilst entry is:
//
//	4 bytes  entry size (ignored)
//	4 bytes  1-based key index
//	4 bytes  data atom length
//	4 bytes  'data'
//	8 bytes  type and locale (ignored)
//	length-16 bytes of value
func (d *Decoder) decodeKeyTable(raw *rawMetadata) {
	keysCur, _, ok := d.payload("moov", "meta", "keys")
	if !ok {
		return
	}
	ilstCur, _, ok := d.payload("moov", "meta", "ilst")
	if !ok {
		return
	}

	count, err := keysCur.ReadU64()
	if err != nil {
		d.log.Warn().Err(err).Msg("keys atom too short")
		return
	}
	if count > uint64(keysCur.Remaining()/8) {
		d.log.Warn().Uint64("count", count).Int("bytes", keysCur.Remaining()).Msg("keys atom count exceeds its payload")
		return
	}

	keys := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := keysCur.ReadLengthPrefixedString()
		if err != nil {
			d.log.Warn().Err(err).Uint64("entry", i).Msg("Truncated keys atom")
			break
		}
		if len(name) >= 4 {
			name = name[4:]
		} else {
			name = ""
		}
		keys = append(keys, name)
	}

	values := make([]string, len(keys))
	present := make([]bool, len(keys))
	for i := 0; i < len(keys); i++ {
		index, value, err := readIlstEntry(ilstCur)
		if err != nil {
			d.log.Warn().Err(err).Int("entry", i).Msg("Truncated ilst atom")
			break
		}
		if index < 1 || int(index) > len(keys) {
			d.log.Warn().Uint32("index", index).Int("keys", len(keys)).Msg("ilst entry refers to an unknown key")
			continue
		}
		values[index-1] = value
		present[index-1] = true
	}

	tags := make(map[string]string, len(keys))
	for i, key := range keys {
		if present[i] {
			tags[key] = values[i]
		}
	}
	if len(tags) > 0 {
		raw.tags = tags
	}
}

func readIlstEntry(c *atom.Cursor) (uint32, string, error) {
	if err := c.Skip(4); err != nil {
		return 0, "", err
	}
	index, err := c.ReadU32()
	if err != nil {
		return 0, "", err
	}
	dataLength, err := c.ReadU32()
	if err != nil {
		return 0, "", err
	}
	if dataLength < 16 {
		return 0, "", atom.ErrInvalidLength
	}
	if err := c.Skip(4 + 8); err != nil {
		return 0, "", err
	}
	value, err := c.ReadFixedString(int(dataLength - 16))
	if err != nil {
		return 0, "", err
	}
	return index, value, nil
}

// decodeMvhd reads the creation time of the movie header, counted in
// seconds since 1904-01-01. Version 1 headers store it in 64 bits.
func (d *Decoder) decodeMvhd(raw *rawMetadata) {
	c, _, ok := d.payload("moov", "mvhd")
	if !ok {
		return
	}
	versionAndFlags, err := c.ReadBytes(4)
	if err != nil {
		d.log.Warn().Err(err).Msg("mvhd atom too short")
		return
	}

	if versionAndFlags[0] == 1 {
		raw.mvhdSeconds, err = c.ReadU64()
	} else {
		var secs uint32
		secs, err = c.ReadU32()
		raw.mvhdSeconds = uint64(secs)
	}
	if err != nil {
		d.log.Warn().Err(err).Msg("mvhd atom too short")
		return
	}
	raw.hasMvhd = true
}

// decodeUserDataLocation reads the ISO 6709 string of moov/udta/©xyz:
// a 2-byte text length, a 2-byte language code, then the text.
func (d *Decoder) decodeUserDataLocation(raw *rawMetadata) {
	c, _, ok := d.payload("moov", "udta", "©xyz")
	if !ok {
		return
	}
	length, err := c.ReadU16()
	if err == nil {
		err = c.Skip(2)
	}
	if err != nil {
		d.log.Warn().Err(err).Msg("©xyz atom too short")
		return
	}
	n := int(length)
	if n > c.Remaining() {
		n = c.Remaining()
	}
	raw.userDataLocation, _ = c.ReadFixedString(n)
}

// decodeTracks walks moov's trak atoms for rotation and pixel size. The
// search stops at the first track whose handler is video.
func (d *Decoder) decodeTracks(raw *rawMetadata) {
	moov, ok := d.tree.Find("moov")
	if !ok {
		return
	}

	var lastRotation *int
	for _, trak := range d.tree.ChildrenOfType(moov, "trak") {
		rotation := d.decodeTkhd(trak)
		if rotation != nil {
			lastRotation = rotation
		}

		size, isVideo := d.decodeTrackSize(trak)
		if isVideo {
			raw.pixelSize = size
			raw.rotation = rotation
			return
		}
	}
	raw.rotation = lastRotation
}

// decodeTkhd derives the rotation in degrees from the first two entries of
// the track matrix. Only the exact bit patterns for -1, 0 and 1 are
// understood; anything else leaves the rotation unknown.
func (d *Decoder) decodeTkhd(trak atom.NodeID) *int {
	id, ok := d.tree.FindFrom(trak, "tkhd")
	if !ok {
		return nil
	}
	c, _, ok := d.payloadOf(id)
	if !ok {
		return nil
	}

	matrixOffset := 40
	if v, err := c.ReadBytes(1); err == nil && v[0] == 1 {
		matrixOffset = 52
	}
	if err := c.Seek(matrixOffset); err != nil {
		d.log.Warn().Err(err).Msg("tkhd atom too short")
		return nil
	}
	rawScale, err := c.ReadU32()
	if err != nil {
		d.log.Warn().Err(err).Msg("tkhd atom too short")
		return nil
	}
	rawRotation, err := c.ReadU32()
	if err != nil {
		d.log.Warn().Err(err).Msg("tkhd atom too short")
		return nil
	}

	degrees := rotationDegrees(rawScale, rawRotation)
	if math.IsNaN(degrees) {
		d.log.Warn().
			Uint32("scale", rawScale).
			Uint32("rotation", rawRotation).
			Msg("Unexpected fixed-point value in track matrix, rotation unknown")
		return nil
	}
	r := int(math.Round(degrees))
	return &r
}

// rotationDegrees returns atan2(rotation, scale) in [0, 360), or NaN when
// either value is not one of the understood bit patterns.
func rotationDegrees(rawScale, rawRotation uint32) float64 {
	degrees := math.Atan2(fixedUnit(rawRotation), fixedUnit(rawScale)) * 180 / math.Pi
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}

func fixedUnit(v uint32) float64 {
	switch v {
	case fixedMinusOne:
		return -1
	case fixedOne:
		return 1
	case fixedZero:
		return 0
	default:
		return math.NaN()
	}
}

// decodeTrackSize reports whether trak is a video track and, if so, its
// width and height from the first sample description. The edts-rooted
// paths are tried first, then the standard mdia-rooted ones.
func (d *Decoder) decodeTrackSize(trak atom.NodeID) (*PixelSize, bool) {
	layouts := [][2][]string{
		{{"edts", "mdia", "hdlr"}, {"edts", "mdia", "minf", "dinf", "stbl", "stsd"}},
		{{"mdia", "hdlr"}, {"mdia", "minf", "stbl", "stsd"}},
	}

	for _, layout := range layouts {
		hdlr, ok := d.tree.FindFrom(trak, layout[0]...)
		if !ok {
			continue
		}
		stsd, ok := d.tree.FindFrom(trak, layout[1]...)
		if !ok {
			continue
		}

		handler, ok := d.readHandlerType(hdlr)
		if !ok || handler != videoHandler {
			return nil, false
		}

		c, _, ok := d.payloadOf(stsd)
		if !ok {
			return nil, true
		}
		if err := c.Seek(40); err != nil {
			d.log.Warn().Err(err).Msg("stsd atom too short")
			return nil, true
		}
		width, err := c.ReadU16()
		if err != nil {
			d.log.Warn().Err(err).Msg("stsd atom too short")
			return nil, true
		}
		height, err := c.ReadU16()
		if err != nil {
			d.log.Warn().Err(err).Msg("stsd atom too short")
			return nil, true
		}
		return &PixelSize{Width: uint32(width), Height: uint32(height)}, true
	}
	return nil, false
}

func (d *Decoder) readHandlerType(hdlr atom.NodeID) (string, bool) {
	c, _, ok := d.payloadOf(hdlr)
	if !ok {
		return "", false
	}
	if err := c.Skip(8); err != nil {
		return "", false
	}
	handler, err := c.ReadFixedString(4)
	if err != nil {
		return "", false
	}
	return strings.TrimRight(handler, "\x00"), true
}
