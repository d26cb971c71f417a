package videometa

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Namespaces read from embedded XMP packets.
const (
	nsExif = "http://ns.adobe.com/exif/1.0/"
	nsXMP  = "http://ns.adobe.com/xap/1.0/"
	nsDC   = "http://purl.org/dc/elements/1.1/"
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Some writers use the usual prefixes without declaring them.
var knownPrefixes = map[string]string{
	"exif": nsExif,
	"xmp":  nsXMP,
	"dc":   nsDC,
	"rdf":  nsRDF,
}

// xmpFields is what one XMP packet contributes: EXIF properties keyed by
// local name (GPSLatitude, GPSLongitude, ...), xmp:CreateDate stored under
// "CreateDate", and the dc:subject bag.
type xmpFields struct {
	values   map[string]string
	keywords []string
}

type xmlFrame struct {
	name xml.Name
	text strings.Builder
}

// parseXMP extracts the fields of interest from an XMP packet. Any XML
// syntax error discards the whole packet.
func parseXMP(text string) (*xmpFields, error) {
	text = strings.TrimRight(text, "\x00 \t\r\n")
	if text == "" {
		return nil, errors.New("empty XMP packet")
	}

	fields := &xmpFields{values: make(map[string]string)}
	dec := xml.NewDecoder(strings.NewReader(text))

	var stack []*xmlFrame
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XMP: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := canonicalName(t.Name)
			for _, attr := range t.Attr {
				fields.addProperty(canonicalName(attr.Name), attr.Value)
			}
			stack = append(stack, &xmlFrame{name: name})

		case xml.CharData:
			for _, f := range stack {
				f.text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := strings.TrimSpace(f.text.String())

			if f.name.Space == nsRDF && f.name.Local == "li" && inSubjectBag(stack) {
				fields.keywords = append(fields.keywords, value)
				continue
			}
			fields.addProperty(f.name, value)
		}
	}

	return fields, nil
}

func (f *xmpFields) addProperty(name xml.Name, value string) {
	switch {
	case name.Space == nsExif:
		f.values[name.Local] = value
	case name.Space == nsXMP && name.Local == "CreateDate":
		f.values[name.Local] = value
	}
}

// inSubjectBag reports whether the innermost open elements are dc:subject/rdf:Bag.
func inSubjectBag(stack []*xmlFrame) bool {
	if len(stack) < 2 {
		return false
	}
	bag := stack[len(stack)-1].name
	subject := stack[len(stack)-2].name
	return bag.Space == nsRDF && bag.Local == "Bag" && subject.Space == nsDC && subject.Local == "subject"
}

func canonicalName(name xml.Name) xml.Name {
	if ns, ok := knownPrefixes[name.Space]; ok {
		name.Space = ns
	}
	return name
}
