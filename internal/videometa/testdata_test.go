package videometa

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fpang/mediameta/internal/atom/atomtest"
)

func ftypAtom(brands ...string) []byte {
	parts := [][]byte{[]byte("qt  "), atomtest.U32(0)}
	for _, b := range brands {
		parts = append(parts, []byte(b))
	}
	return atomtest.Box("ftyp", parts...)
}

func mvhdAtom(seconds uint32) []byte {
	return atomtest.Box("mvhd", atomtest.Zeros(4), atomtest.U32(seconds), atomtest.Zeros(92))
}

func mvhdV1Atom(seconds uint64) []byte {
	return atomtest.Box("mvhd", []byte{1, 0, 0, 0}, atomtest.U64(seconds), atomtest.Zeros(100))
}

// tkhdAtom builds a version 0 track header whose matrix starts with a, b.
func tkhdAtom(a, b uint32) []byte {
	return atomtest.Box("tkhd", atomtest.Zeros(40), atomtest.U32(a), atomtest.U32(b), atomtest.Zeros(36))
}

func hdlrAtom(handler string) []byte {
	return atomtest.Box("hdlr", atomtest.Zeros(8), []byte(handler), atomtest.Zeros(12))
}

func stsdAtom(width, height uint16) []byte {
	return atomtest.Box("stsd", atomtest.Zeros(40), atomtest.U16(width), atomtest.U16(height), atomtest.Zeros(10))
}

func videoTrak(a, b uint32, width, height uint16) []byte {
	return atomtest.Box("trak",
		tkhdAtom(a, b),
		atomtest.Box("mdia",
			hdlrAtom("vide"),
			atomtest.Box("minf", atomtest.Box("stbl", stsdAtom(width, height)))))
}

func soundTrak(a, b uint32) []byte {
	return atomtest.Box("trak",
		tkhdAtom(a, b),
		atomtest.Box("mdia",
			hdlrAtom("soun"),
			atomtest.Box("minf", atomtest.Box("stbl", stsdAtom(0, 0)))))
}

// metaAtom builds moov/meta with a keys table and matching ilst entries.
func metaAtom(pairs ...[2]string) []byte {
	keys := [][]byte{atomtest.U64(uint64(len(pairs)))}
	var entries [][]byte
	for i, p := range pairs {
		keys = append(keys, atomtest.LengthPrefixed("mdta"+p[0]))
		value := []byte(p[1])
		entries = append(entries, atomtest.Concat(
			atomtest.U32(uint32(8+16+len(value))),
			atomtest.U32(uint32(i+1)),
			atomtest.U32(uint32(16+len(value))),
			[]byte("data"),
			atomtest.Zeros(8),
			value,
		))
	}
	return atomtest.Box("meta", atomtest.Box("keys", keys...), atomtest.Box("ilst", entries...))
}

func uuidXMPAtom(packet string) []byte {
	id := xmpUUID
	return atomtest.Box("uuid", id[:], []byte(packet))
}

func userDataXYZ(text string) []byte {
	return atomtest.Box("\xa9xyz", atomtest.U16(uint16(len(text))), atomtest.U16(0x15c7), []byte(text))
}

func xmpPacket(body string) string {
	return `<x:xmpmeta xmlns:x="adobe:ns:meta/">` +
		`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description rdf:about=""` +
		` xmlns:exif="http://ns.adobe.com/exif/1.0/"` +
		` xmlns:xmp="http://ns.adobe.com/xap/1.0/"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		body +
		`</rdf:Description></rdf:RDF></x:xmpmeta>`
}

func gpsXMP(lat, lon string) string {
	return `<exif:GPSLatitude>` + lat + `</exif:GPSLatitude>` +
		`<exif:GPSLongitude>` + lon + `</exif:GPSLongitude>`
}

func subjectXMP(keywords ...string) string {
	var sb strings.Builder
	sb.WriteString(`<dc:subject><rdf:Bag>`)
	for _, k := range keywords {
		sb.WriteString(`<rdf:li>` + k + `</rdf:li>`)
	}
	sb.WriteString(`</rdf:Bag></dc:subject>`)
	return sb.String()
}

// captureLogger returns a logger writing JSON lines into buf.
func captureLogger(buf *bytes.Buffer) Option {
	return WithLogger(zerolog.New(buf).Level(zerolog.DebugLevel))
}

func countWarnings(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), `"level":"warn"`)
}
