package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/mediameta/internal/atom/atomtest"
	"github.com/fpang/mediameta/internal/catalog"
	"github.com/fpang/mediameta/internal/s3util"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configFlag, logLevelFlag = "", ""
		inspectJSONFlag, inspectEMFFlag = false, false
		treeDepthFlag = 0
		scanDirectoryFlag, scanMaxDepthFlag, scanLimitFlag, scanDetailsFlag = "", 0, 0, false
		scanExportFlag = ""
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--log-level=error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func clipBytes() []byte {
	return atomtest.Concat(
		atomtest.Box("ftyp", []byte("qt  "), atomtest.U32(0), []byte("qt  ")),
		atomtest.Box("moov",
			atomtest.Box("mvhd", atomtest.Zeros(4), atomtest.U32(2082844800+1_700_000_000), atomtest.Zeros(92)),
			atomtest.Box("trak",
				atomtest.Box("tkhd", atomtest.Zeros(40), atomtest.U32(0), atomtest.U32(0x00010000), atomtest.Zeros(36)),
				atomtest.Box("mdia",
					atomtest.Box("hdlr", atomtest.Zeros(8), []byte("vide"), atomtest.Zeros(12)),
					atomtest.Box("minf", atomtest.Box("stbl",
						atomtest.Box("stsd", atomtest.Zeros(40), atomtest.U16(1280), atomtest.U16(720), atomtest.Zeros(10))))),
			),
		),
		atomtest.Box("mdat", atomtest.Zeros(16)),
	)
}

func writeClip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, clipBytes(), 0o644))
	return path
}

func TestInspectJSON(t *testing.T) {
	path := writeClip(t, t.TempDir(), "clip.mov")

	out, err := execute(t, "inspect", "--json", path)
	require.NoError(t, err)

	var results []struct {
		Path             string   `json:"path"`
		CompatibleBrands []string `json:"compatibleBrands"`
		Timestamp        string   `json:"timestamp"`
		Rotation         *int     `json:"rotation"`
		PixelSize        *struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"pixelSize"`
		AtomsScanned int `json:"atomsScanned"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, path, r.Path)
	assert.Equal(t, []string{"qt  "}, r.CompatibleBrands)
	assert.Equal(t, "2023-11-14T22:13:20Z", r.Timestamp)
	require.NotNil(t, r.Rotation)
	assert.Equal(t, 90, *r.Rotation)
	require.NotNil(t, r.PixelSize)
	assert.Equal(t, 1280, r.PixelSize.Width)
	assert.Equal(t, 720, r.PixelSize.Height)
	assert.Greater(t, r.AtomsScanned, 0)
}

func TestInspectReport(t *testing.T) {
	path := writeClip(t, t.TempDir(), "clip.mp4")

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)

	assert.Contains(t, out, path)
	assert.Contains(t, out, "- Resolution: 1280x720 (HD)")
	assert.Contains(t, out, "- Rotation: 90°")
	assert.Contains(t, out, "Not available in video metadata")
	assert.Contains(t, out, "Atoms scanned:")
}

func TestInspectEMF(t *testing.T) {
	path := writeClip(t, t.TempDir(), "clip.mov")

	out, err := execute(t, "inspect", "--emf", "--json", path)
	require.NoError(t, err)

	firstLine, rest, found := strings.Cut(out, "\n")
	require.True(t, found)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(firstLine), &doc))
	assert.Contains(t, doc, "_aws")
	assert.Equal(t, "inspect", doc["Operation"])
	assert.Equal(t, float64(0), doc["HasLocation"])
	assert.Equal(t, float64(1), doc["HasPixelSize"])
	assert.Equal(t, path, doc["path"])

	assert.True(t, strings.HasPrefix(strings.TrimSpace(rest), "["))
}

// bucket serves one object per key with ranged reads.
type bucket map[string][]byte

func (b bucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := b[aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", aws.ToString(in.Key))
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (b bucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	var start, end int
	if _, err := fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	data := b[aws.ToString(in.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data[start : end+1]))}, nil
}

func TestInspectS3(t *testing.T) {
	prev := newObjectAPI
	t.Cleanup(func() { newObjectAPI = prev })
	newObjectAPI = func(context.Context) (s3util.ObjectAPI, error) {
		return bucket{"clips/clip.mov": clipBytes()}, nil
	}

	out, err := execute(t, "inspect", "--json", "s3://media/clips/clip.mov")
	require.NoError(t, err)

	var results []struct {
		Path      string `json:"path"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "s3://media/clips/clip.mov", results[0].Path)
	assert.Equal(t, "2023-11-14T22:13:20Z", results[0].Timestamp)

	_, err = execute(t, "inspect", "s3://media/clips/missing.mov")
	assert.ErrorContains(t, err, "1 of 1 files")
}

func TestInspectMissingFile(t *testing.T) {
	dir := t.TempDir()
	good := writeClip(t, dir, "clip.mov")

	out, err := execute(t, "inspect", "--json", good, filepath.Join(dir, "missing.mov"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files")
	assert.Contains(t, out, `"path": "`+good+`"`)
}

func TestTreeDepth(t *testing.T) {
	path := writeClip(t, t.TempDir(), "clip.mov")

	out, err := execute(t, "tree", "--depth", "2", path)
	require.NoError(t, err)

	assert.Contains(t, out, "ftyp @0 for 20\n")
	assert.Contains(t, out, "moov @20 for ")
	assert.Contains(t, out, "\n  trak @")
	assert.Contains(t, out, "\n  mvhd @28 for 108\n")
	assert.NotContains(t, out, "tkhd")
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir, "a.mov")
	writeClip(t, dir, "b.mp4")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	out, err := execute(t, "scan", "-d", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Videos found: 2")
	assert.Contains(t, out, "Images found: 0")
	assert.Contains(t, out, "With date: 2")
	assert.Contains(t, out, "a.mov")
	assert.Contains(t, out, "2023-11-14")
	assert.NotContains(t, out, "notes.txt")
}

func TestScanExport(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir, "a.mov")
	export := filepath.Join(t.TempDir(), "catalog.ndjson.zst")

	out, err := execute(t, "scan", "-d", dir, "--export", export)
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog written: "+export)

	entries, err := catalog.Read(export)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "video", entries[0].MediaType)
	require.NotNil(t, entries[0].Video)
	assert.Equal(t, []string{"qt  "}, entries[0].Video.CompatibleBrands)
}
