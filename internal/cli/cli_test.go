package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{2*time.Minute + 5*time.Second, "2:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, tt := range tests {
		if got := FormatDurationShort(tt.d); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHeadingWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	Heading(&buf, "Media Inspect")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), buf.String())
	}
	if lines[1] != "Media Inspect" {
		t.Errorf("title line = %q", lines[1])
	}
	if lines[0] != strings.Repeat("=", 44) || lines[2] != lines[0] {
		t.Errorf("unexpected rules: %q", buf.String())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandPath("~/videos"); got != filepath.Join(home, "videos") {
		t.Errorf("ExpandPath(~/videos) = %q", got)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got := ExpandPath("clips"); got != filepath.Join(cwd, "clips") {
		t.Errorf("ExpandPath(clips) = %q", got)
	}
}

func TestPromptForDirectoryFrom(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"answer", "/tmp/media\n", "/tmp/media"},
		{"answer without newline", "/srv/clips", "/srv/clips"},
		{"empty line", "\n", cwd},
		{"no input", "", cwd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := PromptForDirectoryFrom(strings.NewReader(tt.input), &out)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Directory [") {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}
