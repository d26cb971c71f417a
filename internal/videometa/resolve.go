package videometa

import (
	"time"
)

// Well-known keys of the QuickTime metadata table.
const (
	KeyCreationDate = "com.apple.quicktime.creationdate"
	KeyLocation     = "com.apple.quicktime.location.ISO6709"
	KeyMake         = "com.apple.quicktime.make"
	KeyModel        = "com.apple.quicktime.model"
	KeySoftware     = "com.apple.quicktime.software"
)

// secondsFrom1904To1970 is 66 years plus 17 leap days.
const secondsFrom1904To1970 = (66*365 + 17) * 86400

// maxUnixSeconds keeps 64-bit mvhd values inside what time.Unix can represent.
const maxUnixSeconds = 1 << 40

// Date layouts are tried in order. They are read-only after init.
var (
	// The QuickTime creation date carries an explicit numeric offset.
	offsetDateLayouts = []string{
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
	}

	// XMP create dates usually carry no offset and are taken as UTC.
	xmpDateLayouts = []string{
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
	}
)

// resolve merges the raw decoder output into the exported record.
func (d *Decoder) resolve(raw *rawMetadata) *Metadata {
	md := &Metadata{
		CompatibleBrands: raw.brands,
		PixelSize:        raw.pixelSize,
		Rotation:         raw.rotation,
		Tags:             raw.tags,
	}
	if md.CompatibleBrands == nil {
		md.CompatibleBrands = []string{}
	}

	if loc, ok := d.resolveLocation(raw); ok {
		md.Location = &loc
	}
	if ts, ok := d.resolveTimestamp(raw); ok {
		md.Timestamp = &ts
	}
	md.Keywords = resolveKeywords(raw)

	return md
}

// resolveLocation picks the first location present, in order: uuid XMP,
// XMP_ atom, the ISO 6709 metadata key, the ©xyz user data atom.
func (d *Decoder) resolveLocation(raw *rawMetadata) (Location, bool) {
	if loc, ok := locationFromXMP(raw.uuidXMP); ok {
		return loc, true
	}
	if loc, ok := locationFromXMP(raw.atomXMP); ok {
		return loc, true
	}
	if value, ok := raw.tags[KeyLocation]; ok {
		if loc, ok := parseISO6709(value); ok {
			return loc, true
		}
		d.log.Warn().Str("value", value).Msg("Unparsable ISO 6709 location in metadata keys")
	}
	if raw.userDataLocation != "" {
		if loc, ok := parseISO6709(raw.userDataLocation); ok {
			return loc, true
		}
		d.log.Warn().Str("value", raw.userDataLocation).Msg("Unparsable ISO 6709 location in user data")
	}
	return Location{}, false
}

// resolveTimestamp picks the first timestamp that parses, in order: the
// QuickTime creation date key, the mvhd creation time, the uuid XMP create
// date, the XMP_ create date.
func (d *Decoder) resolveTimestamp(raw *rawMetadata) (time.Time, bool) {
	if value, ok := raw.tags[KeyCreationDate]; ok {
		if ts, ok := parseDate(value, offsetDateLayouts); ok {
			return ts, true
		}
		d.log.Warn().Str("value", value).Msg("Unparsable creation date in metadata keys")
	}

	if raw.hasMvhd {
		if ts, ok := mvhdTime(raw.mvhdSeconds); ok {
			return ts, true
		}
		d.log.Debug().Uint64("seconds", raw.mvhdSeconds).Msg("mvhd creation time before 1970, ignoring")
	}

	for _, fields := range []*xmpFields{raw.uuidXMP, raw.atomXMP} {
		if fields == nil {
			continue
		}
		value, ok := fields.values["CreateDate"]
		if !ok {
			continue
		}
		if ts, ok := parseDate(value, xmpDateLayouts); ok {
			return ts, true
		}
		d.log.Warn().Str("value", value).Msg("Unparsable XMP create date")
	}

	return time.Time{}, false
}

// mvhdTime converts seconds since 1904 to UTC. Values before 1970 are rejected.
func mvhdTime(seconds uint64) (time.Time, bool) {
	if seconds < secondsFrom1904To1970 {
		return time.Time{}, false
	}
	unix := seconds - secondsFrom1904To1970
	if unix > maxUnixSeconds {
		return time.Time{}, false
	}
	return time.Unix(int64(unix), 0).UTC(), true
}

func parseDate(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// resolveKeywords prefers the XMP_ atom's subject bag over the uuid packet's.
func resolveKeywords(raw *rawMetadata) []string {
	for _, fields := range []*xmpFields{raw.atomXMP, raw.uuidXMP} {
		if fields != nil && len(fields.keywords) > 0 {
			return fields.keywords
		}
	}
	return nil
}
