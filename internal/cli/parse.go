package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/parse"
	"github.com/ppiankov/worldview/internal/pipeline"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file.wvf|->",
	Short: "Parse a document and print its tree",
	Long: `Parse prints the Concept → Facet → Claim tree of a document.

With --format json or yaml the tree is printed together with the
validation report. With --format text the document is printed in
canonical form and diagnostics go to stderr.

Example:
  worldview parse beliefs.wvf --format json
  worldview parse beliefs.wvf --format text > formatted.wvf
  cat beliefs.wvf | worldview parse -`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&outputFormat, "format", "f", pipeline.FormatJSON, "output format: json, yaml, text (canonical document)")
	parseCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "skip cross-reference resolution")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	// parse defaults to JSON regardless of the configured report format
	if !cmd.Flags().Changed("format") {
		cfg.Output.Format = pipeline.FormatJSON
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p := pipeline.NewPipeline(cfg)
	res, err := loadResult(ctx, p, args[0], cmd)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.Color)
	if cfg.Output.Format == pipeline.FormatText {
		if err := parse.WriteDocument(cmd.OutOrStdout(), res.Document); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		for _, d := range res.Report.Diagnostics() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s [%s]\n", d.String(), d.Kind)
		}
	} else if err := renderer.Write(cmd.OutOrStdout(), cfg.Output.Format, res, res.Report); err != nil {
		return err
	}

	if !res.Report.Valid {
		return &ExitError{Code: 1}
	}
	return nil
}

// loadResult validates a path, or stdin when path is "-"
func loadResult(ctx context.Context, p *pipeline.Pipeline, path string, cmd *cobra.Command) (*pipeline.Result, error) {
	if path == "-" {
		res, err := p.ValidateReader(ctx, "-", cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("error reading from stdin: %w", err)
		}
		return res, nil
	}

	if !pipeline.HasDocumentExtension(path) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: File does not have %s extension: %s\n", pipeline.DocumentExtension, path)
	}
	res, err := p.ValidateFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("error reading file '%s': %w", path, err)
	}
	return res, nil
}
