package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fpang/mediameta/internal/catalog"
	"github.com/fpang/mediameta/internal/cli"
	"github.com/fpang/mediameta/internal/filehandler"
	"github.com/fpang/mediameta/internal/logging"
)

var (
	scanDirectoryFlag string
	scanMaxDepthFlag  int
	scanLimitFlag     int
	scanDetailsFlag   bool
	scanExportFlag    string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Summarize the metadata of every media file in a directory",
	Long: `Walk a directory, read the metadata of every supported image and video,
and print one line per file. Images are read through their EXIF block,
videos through their QuickTime atoms.

Examples:
  mediameta scan -d ~/Pictures/trip
  mediameta scan -d ./media --max-depth 2 --limit 100
  mediameta scan -d ./media --export catalog.ndjson.zst
  mediameta scan  # Interactive mode - prompts for directory`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanDirectoryFlag, "directory", "d", "", "Directory to scan")
	scanCmd.Flags().IntVar(&scanMaxDepthFlag, "max-depth", 0, "Maximum recursion depth (0 = unlimited)")
	scanCmd.Flags().IntVar(&scanLimitFlag, "limit", 0, "Maximum media items to process (0 = unlimited)")
	scanCmd.Flags().BoolVar(&scanDetailsFlag, "details", false, "Print the full report for every file")
	scanCmd.Flags().StringVar(&scanExportFlag, "export", "", "Write an NDJSON catalog to this file (zstd-compressed if it ends in .zst)")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	dirPath := scanDirectoryFlag
	if dirPath == "" {
		dirPath = cli.PromptForDirectoryFrom(cmd.InOrStdin(), out)
	}
	dirPath = cli.ValidateAndResolveDirectory(dirPath)

	summary := logging.NewRunSummary("scan").
		Config("directory", dirPath).
		Feature("details", scanDetailsFlag)
	defer summary.Log()

	res, err := filehandler.ScanDirectoryWithOptions(dirPath, filehandler.ScanOptions{
		MaxDepth: scanMaxDepthFlag,
		Limit:    scanLimitFlag,
	})
	if err != nil {
		return err
	}

	summary.Add("images", res.Images).Add("videos", res.Videos).Add("failed", res.Failed)

	fmt.Fprintln(out)
	cli.Heading(out, "Media Scan")
	fmt.Fprintf(out, "Directory: %s\n", dirPath)
	fmt.Fprintf(out, "Images found: %d\n", res.Images)
	fmt.Fprintf(out, "Videos found: %d\n", res.Videos)
	fmt.Fprintf(out, "Total media: %d\n", len(res.Files))
	if res.LimitReached {
		fmt.Fprintf(out, "(limited to %d)\n", scanLimitFlag)
	}
	cli.Rule(out)

	var located, dated int
	for _, file := range res.Files {
		rel, err := filepath.Rel(dirPath, file.Path)
		if err != nil {
			rel = file.Path
		}
		printScanLine(out, rel, file)

		if file.Metadata != nil {
			if file.Metadata.HasGPSData() {
				located++
			}
			if file.Metadata.HasDateData() {
				dated++
			}
			if scanDetailsFlag {
				fmt.Fprintln(out)
				fmt.Fprint(out, file.Metadata.FormatMetadataContext())
			}
		}
	}
	summary.Add("located", located).Add("dated", dated)

	if scanExportFlag != "" {
		exportPath := cli.ExpandPath(scanExportFlag)
		if err := exportCatalog(exportPath, res.Files); err != nil {
			return err
		}
		summary.Config("export", exportPath)
		fmt.Fprintf(out, "Catalog written: %s\n", exportPath)
	}

	cli.Rule(out)
	fmt.Fprintf(out, "With location: %d\n", located)
	fmt.Fprintf(out, "With date: %d\n", dated)
	if res.Failed > 0 {
		cli.Warn(out, "Failed to load: %d", res.Failed)
	}
	return nil
}

func printScanLine(w io.Writer, rel string, file *filehandler.MediaFile) {
	if file.Metadata == nil {
		cli.Warn(w, "%-40s  no metadata", rel)
		return
	}

	date := "-"
	if file.Metadata.HasDateData() {
		date = file.Metadata.GetDate().Format("2006-01-02 15:04")
	}
	gps := "-"
	if file.Metadata.HasGPSData() {
		lat, lon := file.Metadata.GetGPS()
		gps = fmt.Sprintf("%.5f, %.5f", lat, lon)
	}

	fmt.Fprintf(w, "%-40s  %-5s  %-16s  %s\n", rel, file.Metadata.GetMediaType(), date, gps)
}

func exportCatalog(path string, files []*filehandler.MediaFile) error {
	w, err := catalog.Create(path)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := w.Write(catalog.NewEntry(file)); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
