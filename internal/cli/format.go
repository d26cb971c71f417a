package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.FgHiCyan, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgHiRed, color.Bold)
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// Heading writes a banner around title. Color is dropped automatically
// when w is not a terminal or NO_COLOR is set.
func Heading(w io.Writer, title string) {
	rule := strings.Repeat("=", 44)
	fmt.Fprintln(w, rule)
	headingColor.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

// Rule writes a thin separator line.
func Rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", 44))
}

// Warn writes a highlighted warning line.
func Warn(w io.Writer, format string, args ...interface{}) {
	warnColor.Fprintf(w, format+"\n", args...)
}

// Error writes a highlighted error line.
func Error(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, format+"\n", args...)
}
