package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRecorder_FlushOutput(t *testing.T) {
	var buf bytes.Buffer
	rec := NewWithWriter("MediaMeta", &buf)
	rec.now = func() time.Time { return time.UnixMilli(1_700_000_000_123) }

	err := rec.Dimension("Kind", "video").
		Metric("ParseMs", 12.5, UnitMilliseconds).
		Metric("AtomsScanned", 14, UnitCount).
		Flag("HasLocation", true).
		Flag("HasTimestamp", false).
		Property("path", "/tmp/clip.mov").
		Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	out := buf.Bytes()
	if bytes.Count(out, []byte("\n")) != 1 || out[len(out)-1] != '\n' {
		t.Fatalf("expected exactly one line, got %q", out)
	}

	var doc struct {
		AWS struct {
			Timestamp         int64 `json:"Timestamp"`
			CloudWatchMetrics []struct {
				Namespace  string              `json:"Namespace"`
				Dimensions [][]string          `json:"Dimensions"`
				Metrics    []map[string]string `json:"Metrics"`
			} `json:"CloudWatchMetrics"`
		} `json:"_aws"`
		Kind         string  `json:"Kind"`
		ParseMs      float64 `json:"ParseMs"`
		AtomsScanned float64 `json:"AtomsScanned"`
		HasLocation  float64 `json:"HasLocation"`
		HasTimestamp float64 `json:"HasTimestamp"`
		Path         string  `json:"path"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("failed to parse EMF output: %v\n%s", err, out)
	}

	if doc.AWS.Timestamp != 1_700_000_000_123 {
		t.Errorf("Timestamp = %d", doc.AWS.Timestamp)
	}
	if len(doc.AWS.CloudWatchMetrics) != 1 {
		t.Fatalf("expected one CloudWatchMetrics entry, got %d", len(doc.AWS.CloudWatchMetrics))
	}
	cw := doc.AWS.CloudWatchMetrics[0]
	if cw.Namespace != "MediaMeta" {
		t.Errorf("Namespace = %q", cw.Namespace)
	}
	if len(cw.Dimensions) != 1 || len(cw.Dimensions[0]) != 1 || cw.Dimensions[0][0] != "Kind" {
		t.Errorf("Dimensions = %v", cw.Dimensions)
	}

	wantOrder := []string{"AtomsScanned", "HasLocation", "HasTimestamp", "ParseMs"}
	if len(cw.Metrics) != len(wantOrder) {
		t.Fatalf("Metrics = %v", cw.Metrics)
	}
	for i, name := range wantOrder {
		if cw.Metrics[i]["Name"] != name {
			t.Errorf("Metrics[%d] = %v, want %s", i, cw.Metrics[i], name)
		}
	}
	if cw.Metrics[3]["Unit"] != UnitMilliseconds {
		t.Errorf("ParseMs unit = %s", cw.Metrics[3]["Unit"])
	}

	if doc.Kind != "video" || doc.ParseMs != 12.5 || doc.AtomsScanned != 14 {
		t.Errorf("unexpected values: %+v", doc)
	}
	if doc.HasLocation != 1 || doc.HasTimestamp != 0 {
		t.Errorf("flags = %v, %v", doc.HasLocation, doc.HasTimestamp)
	}
	if doc.Path != "/tmp/clip.mov" {
		t.Errorf("path = %q", doc.Path)
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWithWriter("Test", &buf).Property("path", "x").Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for a recorder without metrics, got: %s", buf.String())
	}
}

func TestRecorder_Duration(t *testing.T) {
	rec := New("Test").Duration("ParseMs", 1500*time.Microsecond)

	if rec.values["ParseMs"] != 1.5 {
		t.Errorf("ParseMs = %v, want 1.5", rec.values["ParseMs"])
	}
	if rec.metrics["ParseMs"].Unit != UnitMilliseconds {
		t.Errorf("unit = %s", rec.metrics["ParseMs"].Unit)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	rec := New("Test").
		Dimension("Op", "inspect").
		Metric("Bytes", 100, UnitBytes).
		Count("Files").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "inspect" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Bytes"] != 100 {
		t.Error("chaining Metric failed")
	}
	if rec.values["Files"] != 1 || rec.metrics["Files"].Unit != UnitCount {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
