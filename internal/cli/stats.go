package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/pipeline"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <file.wvf|->",
	Short: "Print document statistics",
	Long: `Stats counts concepts, facets, claims, their segments, modifiers and
brief-form operators. The counts are descriptive only.

Example:
  worldview stats beliefs.wvf
  worldview stats beliefs.wvf --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: text, json, yaml (default from config)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := loadResult(ctx, pipeline.NewPipeline(cfg), args[0], cmd)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.Color)
	if cfg.Output.Format == pipeline.FormatText {
		return renderer.RenderStats(cmd.OutOrStdout(), res.Report.Source, res.Report.Stats)
	}
	return renderer.Write(cmd.OutOrStdout(), cfg.Output.Format, res.Report.Stats, res.Report)
}
