package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/fpang/mediameta/internal/filehandler"
	"github.com/fpang/mediameta/internal/logging"
	"github.com/fpang/mediameta/internal/metrics"
	"github.com/fpang/mediameta/internal/s3util"
	"github.com/fpang/mediameta/internal/videometa"
)

type handler struct {
	objects   s3util.ObjectAPI
	namespace string
	emit      bool
	out       io.Writer

	invoked bool
}

// ObjectResult is the outcome for one S3 record.
type ObjectResult struct {
	Bucket   string              `json:"bucket"`
	Key      string              `json:"key"`
	Metadata *videometa.Metadata `json:"metadata,omitempty"`
	Skipped  bool                `json:"skipped,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Response is returned to the invoker.
type Response struct {
	Results []ObjectResult `json:"results"`
}

// handle decodes every video in the event. A failing object is reported
// in its result and does not fail the invocation; only an event with no
// decodable video at all returns an error.
func (h *handler) handle(ctx context.Context, event events.S3Event) (Response, error) {
	if !h.invoked {
		h.invoked = true
		log.Info().Str("function", "metadata-lambda").Msg("Cold start, first invocation")
	}

	summary := logging.NewRunSummary("metadata-lambda").
		Config("namespace", h.namespace).
		Feature("emf", h.emit)
	defer summary.Log()

	resp := Response{Results: make([]ObjectResult, 0, len(event.Records))}
	for _, record := range event.Records {
		res := h.processRecord(ctx, record, summary.ID())
		switch {
		case res.Skipped:
			summary.Add("skipped", 1)
		case res.Error != "":
			summary.Add("failed", 1)
		default:
			summary.Add("decoded", 1)
		}
		resp.Results = append(resp.Results, res)
	}

	if summary.Count("failed") > 0 && summary.Count("decoded") == 0 {
		return resp, fmt.Errorf("%d objects failed to decode", summary.Count("failed"))
	}
	return resp, nil
}

func (h *handler) processRecord(ctx context.Context, record events.S3EventRecord, runID string) ObjectResult {
	bucket := record.S3.Bucket.Name
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		key = record.S3.Object.Key
	}
	res := ObjectResult{Bucket: bucket, Key: key}

	logger := log.With().Str("bucket", bucket).Str("key", key).Logger()

	ext := strings.ToLower(filepath.Ext(key))
	if !filehandler.IsVideo(ext) {
		logger.Debug().Str("extension", ext).Msg("Not a video, skipping")
		res.Skipped = true
		return res
	}

	start := time.Now()
	r, err := s3util.NewReaderAt(ctx, h.objects, bucket, key)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open S3 object")
		res.Error = err.Error()
		return res
	}

	dec := videometa.NewDecoder(r, r.Size(), videometa.WithLogger(logger))
	md := dec.Decode()
	elapsed := time.Since(start)
	if err := dec.Err(); err != nil {
		logger.Error().Err(err).Int("rangeRequests", r.Requests()).Msg("Failed to read S3 object")
		res.Error = err.Error()
		return res
	}
	res.Metadata = md

	logger.Info().
		Bool("hasLocation", md.Location != nil).
		Bool("hasTimestamp", md.Timestamp != nil).
		Int("atomsScanned", dec.AtomsScanned()).
		Int("rangeRequests", r.Requests()).
		Dur("elapsed", elapsed).
		Msg("Video metadata decoded")

	if h.emit {
		err := metrics.NewWithWriter(h.namespace, h.out).
			Dimension("Operation", "s3-decode").
			Duration("ParseMs", elapsed).
			Metric("AtomsScanned", float64(dec.AtomsScanned()), metrics.UnitCount).
			Metric("RangeRequests", float64(r.Requests()), metrics.UnitCount).
			Metric("ObjectSize", float64(r.Size()), metrics.UnitBytes).
			Flag("HasLocation", md.Location != nil).
			Flag("HasTimestamp", md.Timestamp != nil).
			Property("bucket", bucket).
			Property("key", key).
			Property("runId", runID).
			Flush()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}
	return res
}
