// Package transcribe runs the upload -> submit -> poll sequence against the
// transcription service.
package transcribe

import (
	"context"
	"errors"
	"time"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/config"
	"github.com/fmueller/podscribe/internal/media"
	"github.com/fmueller/podscribe/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Stage string

const (
	StageUpload Stage = "upload"
	StageSubmit Stage = "submit"
	StagePoll   Stage = "poll"
)

// Service is the remote API as seen by the workflow.
type Service interface {
	Upload(ctx context.Context, blob media.Blob) (assemblyai.UploadReference, error)
	Submit(ctx context.Context, ref assemblyai.UploadReference, opts assemblyai.JobOptions) (assemblyai.JobID, error)
	StatusReader
}

type Result struct {
	RunID     string
	UploadURL assemblyai.UploadReference
	JobID     assemblyai.JobID
	Text      string
}

type Workflow struct {
	svc     Service
	job     assemblyai.JobOptions
	poller  *Poller
	logger  *zap.Logger
	metrics *metrics.Workflow
	onStage func(Stage)
}

type Option func(*Workflow)

func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

func WithMetrics(m *metrics.Workflow) Option {
	return func(w *Workflow) { w.metrics = m }
}

// WithStageHook is called right before each stage starts.
func WithStageHook(fn func(Stage)) Option {
	return func(w *Workflow) { w.onStage = fn }
}

func NewWorkflow(svc Service, cfg config.Config, opts ...Option) *Workflow {
	w := &Workflow{
		svc: svc,
		job: assemblyai.JobOptions{
			LanguageCode: cfg.Job.LanguageCode,
			AutoChapters: cfg.Job.AutoChapters,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.poller = NewPoller(svc, cfg.Poll, WithPollLogger(w.logger), WithPollMetrics(w.metrics))
	return w
}

// Run transcribes blob. The first failing stage ends the run; later stages
// are not started.
func (w *Workflow) Run(ctx context.Context, blob media.Blob) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := w.logger.With(zap.String("run_id", res.RunID))

	if err := blob.Validate(); err != nil {
		w.metrics.RunFinished("invalid")
		return res, err
	}

	err := w.stage(StageUpload, log, func() (err error) {
		res.UploadURL, err = w.svc.Upload(ctx, blob)
		return err
	})
	if err != nil {
		return res, err
	}
	log.Info("media uploaded", zap.String("name", blob.Name), zap.Int64("bytes", blob.Size()))

	err = w.stage(StageSubmit, log, func() (err error) {
		res.JobID, err = w.svc.Submit(ctx, res.UploadURL, w.job)
		return err
	})
	if err != nil {
		return res, err
	}
	log.Info("transcription submitted", zap.String("job_id", string(res.JobID)), zap.String("language_code", w.job.LanguageCode))

	err = w.stage(StagePoll, log, func() (err error) {
		res.Text, err = w.poller.Poll(ctx, res.JobID)
		return err
	})
	if err != nil {
		return res, err
	}

	w.metrics.RunFinished("completed")
	return res, nil
}

func (w *Workflow) stage(s Stage, log *zap.Logger, fn func() error) error {
	if w.onStage != nil {
		w.onStage(s)
	}

	started := time.Now()
	err := fn()
	elapsed := time.Since(started)
	w.metrics.ObserveStage(string(s), elapsed, err)

	if err != nil {
		log.Warn("stage failed", zap.String("stage", string(s)), zap.Duration("elapsed", elapsed), zap.Error(err))
		w.metrics.RunFinished(runOutcome(err))
		return err
	}
	log.Debug("stage finished", zap.String("stage", string(s)), zap.Duration("elapsed", elapsed))
	return nil
}

func runOutcome(err error) string {
	var transcriptionErr *TranscriptionError
	switch {
	case errors.As(err, &transcriptionErr):
		return "failed"
	case errors.Is(err, ErrPollExhausted):
		return "exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
