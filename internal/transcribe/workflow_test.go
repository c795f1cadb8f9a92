package transcribe

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/config"
	"github.com/fmueller/podscribe/internal/logging"
	"github.com/fmueller/podscribe/internal/media"
	"github.com/fmueller/podscribe/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(t *testing.T, svc *fakeService, opts ...Option) (*Workflow, *recordingSleeper) {
	t.Helper()

	cfg := config.Default()
	cfg.APIKey = "test-key"
	w := NewWorkflow(svc, cfg, opts...)

	sleeper := &recordingSleeper{clock: &fakeClock{}}
	w.poller.clock = sleeper.clock
	w.poller.sleep = sleeper.sleep
	return w, sleeper
}

var testBlob = media.Blob{Name: "episode.mp3", Data: []byte("ID3")}

func TestWorkflowRunsStagesInOrder(t *testing.T) {
	t.Parallel()

	svc := &fakeService{statuses: []assemblyai.Job{processing(), processing(), completed("hello world")}}
	var stages []Stage
	w, sleeper := newTestWorkflow(t, svc, WithStageHook(func(s Stage) { stages = append(stages, s) }))

	res, err := w.Run(context.Background(), testBlob)
	require.NoError(t, err)
	require.Equal(t, "hello world", res.Text)
	require.Equal(t, assemblyai.UploadReference("https://cdn.example/upload/1"), res.UploadURL)
	require.Equal(t, assemblyai.JobID("job-1"), res.JobID)
	require.NotEmpty(t, res.RunID)
	require.Len(t, sleeper.waits, 2)
	require.Equal(t, []Stage{StageUpload, StageSubmit, StagePoll}, stages)
	require.Equal(t, []string{
		"upload:episode.mp3",
		"submit:https://cdn.example/upload/1:en_us",
		"status:job-1",
		"status:job-1",
		"status:job-1",
	}, svc.callLog())
}

func TestWorkflowUploadFailureSkipsLaterStages(t *testing.T) {
	t.Parallel()

	uploadErr := &assemblyai.UploadError{Response: assemblyai.Response{StatusCode: http.StatusInternalServerError}, Err: assemblyai.ErrUnexpectedStatus}
	svc := &fakeService{uploadErr: uploadErr}
	w, _ := newTestWorkflow(t, svc)

	_, err := w.Run(context.Background(), testBlob)
	var target *assemblyai.UploadError
	require.True(t, errors.As(err, &target))
	require.Equal(t, http.StatusInternalServerError, target.StatusCode)
	require.Equal(t, []string{"upload:episode.mp3"}, svc.callLog())
}

func TestWorkflowSubmitFailureSkipsPolling(t *testing.T) {
	t.Parallel()

	svc := &fakeService{submitErr: &assemblyai.SubmissionError{Err: errors.New("boom")}}
	w, _ := newTestWorkflow(t, svc)

	res, err := w.Run(context.Background(), testBlob)
	var target *assemblyai.SubmissionError
	require.True(t, errors.As(err, &target))
	require.Equal(t, assemblyai.UploadReference("https://cdn.example/upload/1"), res.UploadURL)
	require.Len(t, svc.callLog(), 2)
}

func TestWorkflowRemoteJobError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{statuses: []assemblyai.Job{failed("invalid audio format")}}
	w, _ := newTestWorkflow(t, svc)

	_, err := w.Run(context.Background(), testBlob)
	var target *TranscriptionError
	require.True(t, errors.As(err, &target))
	require.Equal(t, "invalid audio format", target.Message)
}

func TestWorkflowRejectsEmptyBlobWithoutCalls(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	w, _ := newTestWorkflow(t, svc)

	_, err := w.Run(context.Background(), media.Blob{Name: "episode.mp3"})
	require.ErrorIs(t, err, media.ErrEmptyBlob)
	require.Empty(t, svc.callLog())
}

func TestWorkflowLogsRunID(t *testing.T) {
	t.Parallel()

	logs := new(bytes.Buffer)
	svc := &fakeService{statuses: []assemblyai.Job{completed("ok")}}
	w, _ := newTestWorkflow(t, svc, WithLogger(logging.New(logging.Options{JSON: true, Output: logs})))

	res, err := w.Run(context.Background(), testBlob)
	require.NoError(t, err)
	require.Contains(t, logs.String(), `"run_id":"`+res.RunID+`"`)
	require.Contains(t, logs.String(), "transcription submitted")
}

func TestWorkflowRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewWorkflow(reg)
	require.NoError(t, err)

	svc := &fakeService{statuses: []assemblyai.Job{processing(), completed("ok")}}
	w, _ := newTestWorkflow(t, svc, WithMetrics(m))

	_, err = w.Run(context.Background(), testBlob)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "podscribe_runs_total")
	require.Contains(t, names, "podscribe_poll_attempts_total")
	require.Contains(t, names, "podscribe_stage_duration_seconds")
}

func TestRunOutcome(t *testing.T) {
	t.Parallel()

	require.Equal(t, "failed", runOutcome(&TranscriptionError{Message: "x"}))
	require.Equal(t, "exhausted", runOutcome(ErrPollExhausted))
	require.Equal(t, "cancelled", runOutcome(context.DeadlineExceeded))
	require.Equal(t, "error", runOutcome(errors.New("boom")))
}

func TestWorkflowTimeoutPropagatesToPoller(t *testing.T) {
	t.Parallel()

	svc := &fakeService{statuses: []assemblyai.Job{processing()}}
	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.Poll.MaxAttempts = 2
	w := NewWorkflow(svc, cfg)
	w.poller.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := w.Run(context.Background(), testBlob)
	require.ErrorIs(t, err, ErrPollExhausted)
}
