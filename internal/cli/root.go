package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/config"
	"github.com/fmueller/podscribe/internal/logging"
	"github.com/fmueller/podscribe/internal/output"
	"github.com/fmueller/podscribe/internal/transcribe"
	"github.com/fmueller/podscribe/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	envFile    string

	language     string
	autoChapters bool
	poll         config.Poll
	silenceGate  bool
	silenceDBFS  float64

	logger *zap.Logger

	loadEnvFn func(path string) (string, error)
	configFn  func() config.Config
	serviceFn func(cfg config.Config, opts ...assemblyai.Option) (transcribe.Service, error)
	copyFn    func(ctx context.Context, value string) error
}

func newAppState() *appState {
	return &appState{
		language:    config.DefaultLanguageCode,
		poll:        config.Default().Poll,
		silenceGate: true,
		silenceDBFS: -65,
		loadEnvFn:   config.LoadEnv,
		configFn:    config.FromEnv,
		serviceFn:   newAssemblyAIService,
		copyFn:      output.CopyToClipboard,
	}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "podscribe",
		Short:         "Transcribe audio files with AssemblyAI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.logger = logging.New(logging.Options{
				Verbose: app.verbose,
				JSON:    app.jsonLogs,
				Output:  cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", app.envFile, "Load "+config.APIKeyEnv+" and friends from this file instead of the default .env lookup")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindJobFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.language, "language", app.language, "Language code sent with the transcription job")
	cmd.Flags().BoolVar(&app.autoChapters, "auto-chapters", app.autoChapters, "Ask the service to split the transcript into chapters")
}

func bindPollFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().DurationVar(&app.poll.Interval, "poll-interval", app.poll.Interval, "Wait between job status checks")
	cmd.Flags().DurationVar(&app.poll.MaxInterval, "poll-max-interval", app.poll.MaxInterval, "Upper bound for the wait when --poll-multiplier > 1")
	cmd.Flags().Float64Var(&app.poll.Multiplier, "poll-multiplier", app.poll.Multiplier, "Growth factor for the wait between status checks; 1 keeps it fixed")
	cmd.Flags().IntVar(&app.poll.MaxAttempts, "poll-max-attempts", app.poll.MaxAttempts, "Give up after this many status checks; 0 means no limit")
	cmd.Flags().DurationVar(&app.poll.Timeout, "timeout", app.poll.Timeout, "Give up polling after this long, e.g. 10m; 0 means no limit")
}

// loadConfig resolves credentials and flags into a validated Config. It runs
// before any file is read or request is sent.
func (a *appState) loadConfig() (config.Config, error) {
	loadEnv := a.loadEnvFn
	if loadEnv == nil {
		loadEnv = config.LoadEnv
	}
	configFn := a.configFn
	if configFn == nil {
		configFn = config.FromEnv
	}

	loaded, err := loadEnv(a.envFile)
	if err != nil {
		return config.Config{}, err
	}
	if loaded != "" {
		a.log().Debug("loaded env file", zap.String("path", loaded))
	}

	cfg := configFn()
	cfg.Job.LanguageCode = sanitizeLanguage(a.language)
	cfg.Job.AutoChapters = a.autoChapters
	cfg.Poll = a.poll

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newAssemblyAIService(cfg config.Config, opts ...assemblyai.Option) (transcribe.Service, error) {
	client, err := assemblyai.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return config.DefaultLanguageCode
	}
	return trimmed
}
