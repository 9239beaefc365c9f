package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/pipeline"
	"github.com/ppiankov/worldview/internal/watch"
)

var watchExisting bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-validate documents as they change",
	Long: `Watch monitors a directory tree and validates each document when it is
created or modified. Rapid saves are debounced and files whose content did
not change are skipped.

Example:
  worldview watch ./notes
  worldview watch . --existing=false`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchExisting, "existing", true, "validate documents already present at startup")
	watchCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "skip cross-reference resolution")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Output.Format = pipeline.FormatText

	ctx, cancel := signalContext(cmd)
	defer cancel()

	w, err := watch.New(cfg.Watch, args[0], newLogger(cfg))
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx, watchExisting); err != nil {
		_ = w.Stop()
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	v := &validation{
		cfg:      cfg,
		pipeline: pipeline.NewPipeline(cfg),
		renderer: pipeline.NewRenderer(cfg.Output.Color),
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
	}

	defer func() {
		if n := w.Dropped(); n > 0 {
			fmt.Fprintf(v.stderr, "Warning: %d change(s) were dropped while validation was busy\n", n)
		}
	}()

	for ev := range w.Events() {
		if ev.Op == watch.OpDelete {
			fmt.Fprintf(v.stderr, "- %s removed\n", ev.Path)
			continue
		}

		res, err := v.pipeline.ValidateFile(ctx, ev.AbsPath)
		if err != nil {
			fmt.Fprintf(v.stderr, "✗ %s: %v\n", ev.Path, err)
			continue
		}
		res.Report.Source = ev.Path
		if err := v.emit(res.Report, res.Report, true); err != nil {
			return err
		}
	}
	return nil
}
