package cli

import (
	"time"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/media"
	"github.com/fmueller/podscribe/internal/metrics"
	"github.com/fmueller/podscribe/internal/server"
	"github.com/fmueller/podscribe/internal/transcribe"
	"github.com/fmueller/podscribe/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr      string
	maxUpload int64
	tempDir   string
	grace     time.Duration
}

func newServeCmd(app *appState) *cobra.Command {
	opts := serveOptions{
		addr:      ":8080",
		maxUpload: media.DefaultMaxSize,
		grace:     30 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve transcriptions over HTTP",
		Long: "Accept multipart uploads on POST /v1/transcripts (form field \"file\") and answer with the " +
			"finished transcript. Health is reported on /healthz and metrics on /metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := app.newServer(opts)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), opts.addr, opts.grace)
		},
	}

	bindJobFlags(cmd, app)
	bindPollFlags(cmd, app)
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "Listen address")
	cmd.Flags().Int64Var(&opts.maxUpload, "max-upload-bytes", opts.maxUpload, "Reject uploads larger than this")
	cmd.Flags().StringVar(&opts.tempDir, "temp-dir", opts.tempDir, "Directory for staged uploads (default: system temp dir)")
	cmd.Flags().DurationVar(&opts.grace, "shutdown-grace", opts.grace, "How long in-flight requests may finish after a shutdown signal")
	return cmd
}

func (a *appState) newServer(opts serveOptions) (*server.Server, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	serviceFn := a.serviceFn
	if serviceFn == nil {
		serviceFn = newAssemblyAIService
	}
	svc, err := serviceFn(cfg,
		assemblyai.WithLogger(a.log()),
		assemblyai.WithUserAgent("podscribe/"+version.Resolve()),
	)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewWorkflow(reg)
	if err != nil {
		return nil, err
	}

	wf := transcribe.NewWorkflow(svc, cfg,
		transcribe.WithLogger(a.log()),
		transcribe.WithMetrics(m),
	)

	return server.New(wf,
		server.WithLogger(a.log()),
		server.WithGatherer(reg),
		server.WithMaxUploadSize(opts.maxUpload),
		server.WithTempDir(opts.tempDir),
	), nil
}

