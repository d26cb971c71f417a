package filehandler

import (
	"fmt"
	"strings"
	"time"
)

// report accumulates the markdown sections shared by image and video metadata.
type report struct {
	sb   strings.Builder
	kind string
}

func newReport(kind string) *report {
	r := &report{kind: kind}
	fmt.Fprintf(&r.sb, "## EXTRACTED %s METADATA\n\n", strings.ToUpper(kind))
	return r
}

func (r *report) gps(ok bool, lat, lon float64) {
	if !ok {
		fmt.Fprintf(&r.sb, "**GPS Coordinates:** Not available in %s metadata\n\n", r.kind)
		return
	}
	r.sb.WriteString("**GPS Coordinates:**\n")
	fmt.Fprintf(&r.sb, "- Latitude: %.6f\n", lat)
	fmt.Fprintf(&r.sb, "- Longitude: %.6f\n", lon)
	fmt.Fprintf(&r.sb, "- DMS: %s\n", CoordinatesToDMS(lat, lon))
	fmt.Fprintf(&r.sb, "- Google Maps: https://www.google.com/maps?q=%.6f,%.6f\n\n", lat, lon)
}

func (r *report) date(label string, ok bool, t time.Time) {
	if !ok {
		fmt.Fprintf(&r.sb, "**%s:** Not available in %s metadata\n\n", label, r.kind)
		return
	}
	fmt.Fprintf(&r.sb, "**%s:**\n", label)
	fmt.Fprintf(&r.sb, "- Date: %s\n", t.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&r.sb, "- Time: %s\n", t.Format("3:04 PM"))
	fmt.Fprintf(&r.sb, "- Day of Week: %s\n\n", t.Weekday().String())
}

// section writes a titled bullet list, skipping empty values. Nothing is
// written when every value is empty.
func (r *report) section(title string, items [][2]string) {
	var lines []string
	for _, item := range items {
		if item[1] != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s\n", item[0], item[1]))
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(&r.sb, "**%s:**\n", title)
	for _, l := range lines {
		r.sb.WriteString(l)
	}
	r.sb.WriteString("\n")
}

func (r *report) String() string {
	return r.sb.String()
}
