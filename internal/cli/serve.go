package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/pipeline"
	"github.com/ppiankov/worldview/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation HTTP API",
	Long: `Serve exposes parsing and validation over HTTP:

  GET  /healthz
  POST /v1/validate   returns the validation report
  POST /v1/parse      returns the document tree and the report

Send the raw document as the request body, or JSON {"document": "..."}.
Bodies are bounded by limits.max_document_bytes and requests are rate
limited per client address.

Example:
  worldview serve --addr :8080
  curl --data-binary @beliefs.wvf localhost:8080/v1/validate`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if !cfg.Output.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	srv, err := server.New(cfg, pipeline.NewPipeline(cfg), newLogger(cfg))
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
