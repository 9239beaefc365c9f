package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/pipeline"
)

var (
	readStdin    bool
	outputFormat string
	noResolve    bool
	noCache      bool
	streamInput  bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [file.wvf...]",
	Short: "Validate Worldview documents",
	Long: `Validate checks documents for structural correctness:
- Concept, facet and claim lines at indents 0, 2 and 4
- Claim segments in positional order: text | conditions @sources &references
- No duplicate concepts, or duplicate facets within a concept
- &Concept.facet references that point at existing facets (warnings)

Valid documents are reported on stdout, invalid ones on stderr.
The exit status is 1 when any document is invalid or unreadable.

Example:
  worldview validate beliefs.wvf
  worldview validate a.wvf b.wvf --format json
  cat beliefs.wvf | worldview validate --stdin`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&readStdin, "stdin", false, "read the document from standard input")
	validateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: text, json, yaml (default from config)")
	validateCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "skip cross-reference resolution")
	validateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	validateCmd.Flags().BoolVar(&streamInput, "stream", false, "validate stdin concept by concept without building the tree")
}

// commandConfig loads configuration and applies the flags shared by
// document commands
func commandConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		cfg.Output.Format = outputFormat
	}
	if f := cmd.Flags().Lookup("no-resolve"); f != nil && f.Changed {
		cfg.Validation.ResolveReferences = !noResolve
	}
	if f := cmd.Flags().Lookup("no-cache"); f != nil && f.Changed {
		cfg.Cache.Enabled = !noCache
	}
	if !pipeline.ValidFormat(cfg.Output.Format) {
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", cfg.Output.Format)
	}
	return cfg, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	if readStdin == (len(args) > 0) {
		return fmt.Errorf("provide either document paths or --stdin")
	}
	if streamInput && !readStdin {
		return fmt.Errorf("--stream requires --stdin")
	}

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	v := &validation{
		cfg:      cfg,
		pipeline: pipeline.NewPipeline(cfg),
		renderer: pipeline.NewRenderer(cfg.Output.Color),
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var ok bool
	switch {
	case readStdin && streamInput:
		ok, err = v.stream(ctx, cmd.InOrStdin())
	case readStdin:
		ok, err = v.reader(ctx, cmd.InOrStdin())
	default:
		ok, err = v.files(ctx, args)
	}
	if err != nil {
		return err
	}
	if !ok {
		return &ExitError{Code: 1}
	}
	return nil
}

// validation runs documents through the pipeline and reports each verdict
type validation struct {
	cfg      *model.Config
	pipeline *pipeline.Pipeline
	renderer *pipeline.Renderer
	stdout   io.Writer
	stderr   io.Writer
}

func (v *validation) reader(ctx context.Context, r io.Reader) (bool, error) {
	res, err := v.pipeline.ValidateReader(ctx, "-", r)
	if err != nil {
		return false, fmt.Errorf("error reading from stdin: %w", err)
	}
	return res.Report.Valid, v.emit(res.Report, res.Report, false)
}

func (v *validation) stream(ctx context.Context, r io.Reader) (bool, error) {
	report, err := v.pipeline.Stream(ctx, "-", r, func(c *model.Concept) error {
		logf(v.cfg, "✓ %s (%d facets)\n", c.Name, len(c.Facets))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("error reading from stdin: %w", err)
	}
	return report.Valid, v.emit(report, report, false)
}

func (v *validation) files(ctx context.Context, paths []string) (bool, error) {
	allOK := true
	var reports []*model.Report
	multi := len(paths) > 1

	for _, path := range paths {
		if !pipeline.HasDocumentExtension(path) {
			fmt.Fprintf(v.stderr, "Warning: File does not have %s extension: %s\n", pipeline.DocumentExtension, path)
		}

		res, err := v.pipeline.ValidateFile(ctx, path)
		if err != nil {
			fmt.Fprintf(v.stderr, "Error reading file '%s': %v\n", path, err)
			allOK = false
			continue
		}
		if res.Cached {
			logf(v.cfg, "  (cached) %s\n", path)
		}
		if !res.Report.Valid {
			allOK = false
		}

		if v.cfg.Output.Format == pipeline.FormatText {
			if err := v.emit(res.Report, res.Report, multi); err != nil {
				return false, err
			}
			continue
		}
		reports = append(reports, res.Report)
	}

	if v.cfg.Output.Format != pipeline.FormatText && len(reports) > 0 {
		var out any = reports
		if len(reports) == 1 && !multi {
			out = reports[0]
		}
		if err := v.renderer.Write(v.stdout, v.cfg.Output.Format, out, nil); err != nil {
			return false, err
		}
	}
	return allOK, nil
}

// emit writes one result. Text verdicts go to stdout when valid and stderr
// when invalid; machine formats always go to stdout.
func (v *validation) emit(value any, report *model.Report, withSource bool) error {
	if v.cfg.Output.Format != pipeline.FormatText {
		return v.renderer.Write(v.stdout, v.cfg.Output.Format, value, report)
	}

	shown := *report
	if !withSource {
		shown.Source = ""
	}
	w := v.stdout
	if !report.Valid {
		w = v.stderr
	}
	return v.renderer.RenderText(w, &shown)
}
