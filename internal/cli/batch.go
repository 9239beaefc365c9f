package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/pipeline"
	"github.com/ppiankov/worldview/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <pattern|@listfile>...",
	Short: "Validate many documents in parallel",
	Long: `Batch validates documents concurrently:
- Expand glob patterns, including ** for recursive matches
- Read paths from a list file with @file (one per line, # comments)
- Validate with a configurable number of workers
- Optionally write one JSON report per document

Example:
  worldview batch 'notes/**/*.wvf'
  worldview batch @documents.txt --concurrency 8
  worldview batch '*.wvf' --output-dir ./reports`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write a JSON report per document to this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "skip cross-reference resolution")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, batchTimeout)
	defer cancelTimeout()

	stderr := cmd.ErrOrStderr()
	logf(cfg, "⚙️  Validating with %d workers...\n\n", cfg.Concurrency.Workers)

	start := time.Now()
	processor := worker.NewBatchProcessor(pipeline.NewPipeline(cfg), cfg.Concurrency.Workers)
	results, err := processor.ProcessPatterns(ctx, args)
	if err != nil {
		return fmt.Errorf("expand patterns: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no documents matched %s", strings.Join(args, " "))
	}
	summary := worker.Summarize(results, time.Since(start))

	var names map[string]string
	if outputDir != "" {
		paths := make([]string, len(results))
		for i, result := range results {
			paths[i] = result.Path
		}
		names = reportFilenames(paths)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Color)
	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		report := result.Result.Report
		switch {
		case !report.Valid:
			fmt.Fprintf(stderr, "✗ %s (%d errors, %d warnings)\n", result.Path, len(report.Errors), len(report.Warnings))
		case report.HasWarnings():
			fmt.Fprintf(stderr, "✓ %s (%d warnings)\n", result.Path, len(report.Warnings))
		default:
			fmt.Fprintf(stderr, "✓ %s\n", result.Path)
		}

		if outputDir != "" {
			jsonPath := filepath.Join(outputDir, names[result.Path])
			if err := renderer.RenderJSON(report, jsonPath); err != nil {
				fmt.Fprintf(stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			}
		}
	}

	if outputDir != "" {
		if err := renderer.RenderJSON(summary, filepath.Join(outputDir, "_summary.json")); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Run:       %s\n", summary.RunID)
	fmt.Fprintf(stderr, "  Total:     %d documents\n", summary.Total)
	fmt.Fprintf(stderr, "  Valid:     %d\n", summary.Valid)
	fmt.Fprintf(stderr, "  Invalid:   %d\n", summary.Invalid)
	fmt.Fprintf(stderr, "  Failed:    %d\n", summary.Failed)
	fmt.Fprintf(stderr, "  Warnings:  %d\n", summary.Warnings)
	fmt.Fprintf(stderr, "  Duration:  %v\n", summary.Duration.Round(time.Millisecond))
	if outputDir != "" {
		fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	}

	if !summary.OK() {
		return &ExitError{Code: 1}
	}
	return nil
}

// maxReportName bounds a report name, excluding the extension
const maxReportName = 100

// reportFilename maps a document path to a flat, filesystem-safe report
// name. Names cut to fit keep their tail and gain a path hash.
func reportFilename(path string) string {
	s := filepath.ToSlash(filepath.Clean(path))
	s = strings.TrimPrefix(s, "./")
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = strings.TrimLeft(replacer.Replace(s), "_.")

	if len(s) > maxReportName {
		suffix := "-" + pathHash(path)
		s = s[len(s)-(maxReportName-len(suffix)):] + suffix
	}
	if s == "" {
		s = "document"
	}
	return s + ".json"
}

// reportFilenames names the report of every path so that no two distinct
// paths share a file. Colliding names are told apart by a path hash.
func reportFilenames(paths []string) map[string]string {
	owners := make(map[string]map[string]bool)
	for _, path := range paths {
		name := reportFilename(path)
		if owners[name] == nil {
			owners[name] = make(map[string]bool)
		}
		owners[name][filepath.Clean(path)] = true
	}

	names := make(map[string]string, len(paths))
	for _, path := range paths {
		name := reportFilename(path)
		if len(owners[name]) > 1 {
			name = strings.TrimSuffix(name, ".json") + "-" + pathHash(path) + ".json"
		}
		names[path] = name
	}
	return names
}

func pathHash(path string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(filepath.Clean(path))))
	return hex.EncodeToString(sum[:4])
}
