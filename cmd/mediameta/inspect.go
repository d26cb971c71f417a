package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/mediameta/internal/cli"
	"github.com/fpang/mediameta/internal/filehandler"
	"github.com/fpang/mediameta/internal/logging"
	"github.com/fpang/mediameta/internal/metrics"
	"github.com/fpang/mediameta/internal/s3util"
	"github.com/fpang/mediameta/internal/videometa"
)

var (
	inspectJSONFlag bool
	inspectEMFFlag  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE|s3://BUCKET/KEY...",
	Short: "Decode the metadata of one or more video files",
	Long: `Decode each file and print a report. S3 objects are read in place with
ranged requests using the default AWS credential chain.

With --json the records are printed as a JSON array instead. With --emf one CloudWatch Embedded Metric Format
line is written per file (also enabled by MEDIAMETA_EMIT_METRICS).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSONFlag, "json", false, "Print records as JSON")
	inspectCmd.Flags().BoolVar(&inspectEMFFlag, "emf", false, "Write one EMF metrics line per file")
}

// newObjectAPI builds the S3 client on first use of an s3:// argument.
var newObjectAPI = func(ctx context.Context) (s3util.ObjectAPI, error) {
	client, err := s3util.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// inspectResult is one element of the --json output.
type inspectResult struct {
	Path string `json:"path"`
	*videometa.Metadata
	AtomsScanned int `json:"atomsScanned"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	emitMetrics := inspectEMFFlag || cfg.Metrics.Emit

	summary := logging.NewRunSummary("inspect").
		Config("namespace", cfg.Metrics.Namespace).
		Feature("json", inspectJSONFlag).
		Feature("emf", emitMetrics)
	defer summary.Log()

	src := &sources{ctx: cmd.Context()}
	var results []inspectResult
	for _, arg := range args {
		path := arg
		if !s3util.IsURI(arg) {
			path = cli.ExpandPath(arg)
		}

		res, elapsed, err := src.inspect(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to inspect file")
			summary.Add("failed", 1)
			continue
		}
		summary.Add("files", 1)

		if emitMetrics {
			if err := recordMetrics(out, cfg.Metrics.Namespace, summary.ID(), res, elapsed); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to write metrics")
			}
		}

		if inspectJSONFlag {
			results = append(results, res)
			continue
		}
		printReport(out, res)
	}

	if inspectJSONFlag {
		if results == nil {
			results = []inspectResult{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}

	if failed := summary.Count("failed"); failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(args))
	}
	return nil
}

// sources opens local paths and s3:// URIs, sharing one S3 client.
type sources struct {
	ctx context.Context
	s3  s3util.ObjectAPI
}

func (s *sources) open(path string) (*videometa.Decoder, error) {
	if !s3util.IsURI(path) {
		return videometa.Open(path)
	}

	bucket, key, err := s3util.ParseURI(path)
	if err != nil {
		return nil, err
	}
	if s.s3 == nil {
		client, err := newObjectAPI(s.ctx)
		if err != nil {
			return nil, err
		}
		s.s3 = client
	}
	r, err := s3util.NewReaderAt(s.ctx, s.s3, bucket, key)
	if err != nil {
		return nil, err
	}
	logger := log.With().Str("path", path).Logger()
	return videometa.NewDecoder(r, r.Size(), videometa.WithLogger(logger)), nil
}

func (s *sources) inspect(path string) (inspectResult, time.Duration, error) {
	start := time.Now()

	dec, err := s.open(path)
	if err != nil {
		return inspectResult{}, 0, err
	}
	defer dec.Close()

	md := dec.Decode()
	if err := dec.Err(); err != nil {
		return inspectResult{}, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return inspectResult{
		Path:         path,
		Metadata:     md,
		AtomsScanned: dec.AtomsScanned(),
	}, time.Since(start), nil
}

func recordMetrics(w io.Writer, namespace, runID string, res inspectResult, elapsed time.Duration) error {
	md := res.Metadata
	return metrics.NewWithWriter(namespace, w).
		Dimension("Operation", "inspect").
		Duration("ParseMs", elapsed).
		Metric("AtomsScanned", float64(res.AtomsScanned), metrics.UnitCount).
		Flag("HasLocation", md.Location != nil).
		Flag("HasTimestamp", md.Timestamp != nil).
		Flag("HasPixelSize", md.PixelSize != nil).
		Flag("HasRotation", md.Rotation != nil).
		Metric("Keywords", float64(len(md.Keywords)), metrics.UnitCount).
		Property("path", res.Path).
		Property("runId", runID).
		Property("compatibleBrands", md.CompatibleBrands).
		Flush()
}

func printReport(w io.Writer, res inspectResult) {
	fmt.Fprintln(w)
	cli.Heading(w, res.Path)
	fmt.Fprint(w, filehandler.NewVideoMetadata(res.Metadata).FormatMetadataContext())
	fmt.Fprintf(w, "Atoms scanned: %d\n", res.AtomsScanned)
}
