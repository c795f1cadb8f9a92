package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/media"
	"github.com/fmueller/podscribe/internal/output"
	"github.com/fmueller/podscribe/internal/transcribe"
	"github.com/fmueller/podscribe/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type transcribeOptions struct {
	stdinFormat     string
	output          string
	copyToClipboard bool
	copyEmpty       bool
}

func newTranscribeCmd(app *appState) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file|->",
		Short: "Transcribe an audio file",
		Long: "Upload an audio file (" + supportedFormats() + ") to AssemblyAI, wait for the transcription " +
			"job to finish and print the transcript to stdout. Use - to read the audio from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			load := func() (media.Blob, error) { return media.Load(args[0]) }
			if args[0] == "-" {
				load = func() (media.Blob, error) {
					return media.Read("stdin."+strings.TrimPrefix(opts.stdinFormat, "."), cmd.InOrStdin(), media.DefaultMaxSize)
				}
			}

			transcript, err := app.transcribe(cmd.Context(), load)
			if err != nil {
				return err
			}
			return app.deliver(cmd, transcript, opts)
		},
	}

	bindJobFlags(cmd, app)
	bindPollFlags(cmd, app)
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
	cmd.Flags().BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Detect near-silent WAV audio and skip transcription")
	cmd.Flags().Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
	cmd.Flags().StringVar(&opts.stdinFormat, "stdin-format", "wav", "Audio format of stdin when the file argument is -")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Also write the transcript to this file (a directory gets "+output.DefaultFileName+")")
	cmd.Flags().BoolVar(&opts.copyToClipboard, "copy", false, "Copy transcript to clipboard")
	cmd.Flags().BoolVar(&opts.copyEmpty, "copy-empty", false, "Copy blank transcripts to clipboard")
	return cmd
}

func (a *appState) transcribe(ctx context.Context, load func() (media.Blob, error)) (string, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return "", err
	}

	blob, err := load()
	if err != nil {
		return "", err
	}

	if a.isSilent(blob) {
		return "", nil
	}

	progress := &stageProgress{enabled: a.progressEnabled()}
	defer progress.finish()

	serviceFn := a.serviceFn
	if serviceFn == nil {
		serviceFn = newAssemblyAIService
	}
	svc, err := serviceFn(cfg,
		assemblyai.WithLogger(a.log()),
		assemblyai.WithUserAgent("podscribe/"+version.Resolve()),
		assemblyai.WithUploadProgress(progress.upload),
	)
	if err != nil {
		return "", err
	}

	if cfg.Poll.Unbounded() {
		a.log().Debug("polling without attempt limit or timeout; interrupt to abort")
	}

	wf := transcribe.NewWorkflow(svc, cfg,
		transcribe.WithLogger(a.log()),
		transcribe.WithStageHook(progress.onStage),
	)

	a.log().Info("transcribing...", zap.String("audio", blob.Name), zap.Int64("bytes", blob.Size()), zap.String("language_code", cfg.Job.LanguageCode))
	res, err := wf.Run(ctx, blob)
	progress.finish()
	if err != nil {
		return "", err
	}
	a.log().Info("transcription finished", zap.String("job_id", string(res.JobID)))

	return res.Text, nil
}

// deliver prints the transcript and hands it to the optional sinks. Sink
// failures after a successful print only warn, except for --output.
func (a *appState) deliver(cmd *cobra.Command, transcript string, opts transcribeOptions) error {
	fmt.Fprintln(cmd.OutOrStdout(), transcript)

	blank := isBlankTranscript(transcript)
	if blank {
		a.log().Warn(noSpeechHint())
	}

	if path := output.ResolvePath(opts.output); path != "" {
		if err := output.WriteFile(path, transcript); err != nil {
			return err
		}
		a.log().Info("transcript written", zap.String("path", path))
	}

	if !opts.copyToClipboard || (blank && !opts.copyEmpty) {
		return nil
	}

	copyFn := a.copyFn
	if copyFn == nil {
		copyFn = output.CopyToClipboard
	}
	if err := copyFn(cmd.Context(), transcript); err != nil {
		if errors.Is(err, output.ErrClipboardUnavailable) {
			a.log().Warn("clipboard tool unavailable; transcript left on stdout")
			return nil
		}
		a.log().Warn("failed to copy transcript to clipboard; transcript left on stdout", zap.Error(err))
		return nil
	}

	a.log().Info("transcript copied to clipboard")
	return nil
}

func (a *appState) isSilent(blob media.Blob) bool {
	if !a.silenceGate || blob.Ext() != ".wav" {
		return false
	}

	silent, metrics, err := blob.IsSilent(a.silenceDBFS)
	if err != nil {
		a.log().Warn("silence gate analysis failed; continuing transcription", zap.Error(err), zap.String("audio", blob.Name))
		return false
	}
	if !silent {
		return false
	}

	a.log().Info(
		"audio considered silent; skipping transcription",
		zap.String("audio", blob.Name),
		zap.Float64("rms_dbfs", metrics.RMSdBFS),
		zap.Float64("peak_dbfs", metrics.PeakdBFS),
		zap.Float64("threshold_dbfs", a.silenceDBFS),
	)
	return true
}

func supportedFormats() string {
	return strings.Join(media.SupportedExtensions, ", ")
}
