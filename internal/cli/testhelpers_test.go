package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"sync"
	"testing"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/config"
	"github.com/fmueller/podscribe/internal/media"
	"github.com/fmueller/podscribe/internal/transcribe"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runApp(t, testApp(nil), args)
}

func runApp(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// testApp never touches the process environment or the network. A nil svc
// leaves the API key unset.
func testApp(svc *fakeService) *appState {
	app := newAppState()
	app.noProgress = true
	app.loadEnvFn = func(string) (string, error) { return "", nil }
	app.configFn = func() config.Config {
		cfg := config.Default()
		if svc != nil {
			cfg.APIKey = "test-key"
		}
		return cfg
	}
	app.serviceFn = func(cfg config.Config, _ ...assemblyai.Option) (transcribe.Service, error) {
		if svc == nil {
			return newAssemblyAIService(cfg)
		}
		svc.record("new:" + cfg.Job.LanguageCode)
		return svc, nil
	}
	app.copyFn = func(context.Context, string) error { return nil }
	return app
}

type fakeService struct {
	mu    sync.Mutex
	calls []string

	uploadErr error
	job       assemblyai.Job
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) Upload(_ context.Context, blob media.Blob) (assemblyai.UploadReference, error) {
	f.record("upload:" + blob.Name)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.example/u/1", nil
}

func (f *fakeService) Submit(_ context.Context, ref assemblyai.UploadReference, _ assemblyai.JobOptions) (assemblyai.JobID, error) {
	f.record("submit:" + string(ref))
	return "job-1", nil
}

func (f *fakeService) Status(_ context.Context, id assemblyai.JobID) (assemblyai.Job, error) {
	f.record("status:" + string(id))
	job := f.job
	job.ID = id
	return job, nil
}

func completed(text string) assemblyai.Job {
	return assemblyai.Job{Status: assemblyai.StatusCompleted, Text: text}
}

func writeMonoWAV(t *testing.T, path string, samples []int16) {
	t.Helper()

	const sampleRate = 16000
	dataSize := len(samples) * 2

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVEfmt ")
	for _, v := range []any{uint32(16), uint16(1), uint16(1), uint32(sampleRate), uint32(sampleRate * 2), uint16(2), uint16(16)} {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(buf, binary.LittleEndian, samples)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
