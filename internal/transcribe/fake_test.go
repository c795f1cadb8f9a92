package transcribe

import (
	"context"
	"sync"
	"time"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/media"
)

// fakeService scripts the remote API. Status answers come from statuses in
// order; the last one repeats once the script runs out.
type fakeService struct {
	mu sync.Mutex

	uploadErr error
	submitErr error
	statusErr error
	statuses  []assemblyai.Job

	calls       []string
	statusCalls int
}

func (f *fakeService) Upload(_ context.Context, blob media.Blob) (assemblyai.UploadReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "upload:"+blob.Name)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.example/upload/1", nil
}

func (f *fakeService) Submit(_ context.Context, ref assemblyai.UploadReference, opts assemblyai.JobOptions) (assemblyai.JobID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "submit:"+string(ref)+":"+opts.LanguageCode)
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-1", nil
}

func (f *fakeService) Status(_ context.Context, id assemblyai.JobID) (assemblyai.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "status:"+string(id))
	f.statusCalls++
	if f.statusErr != nil {
		return assemblyai.Job{}, f.statusErr
	}
	idx := min(f.statusCalls-1, len(f.statuses)-1)
	job := f.statuses[idx]
	job.ID = id
	return job, nil
}

func (f *fakeService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func processing() assemblyai.Job {
	return assemblyai.Job{Status: assemblyai.StatusProcessing}
}

func completed(text string) assemblyai.Job {
	return assemblyai.Job{Status: assemblyai.StatusCompleted, Text: text}
}

func failed(message string) assemblyai.Job {
	return assemblyai.Job{Status: assemblyai.StatusErrored, Error: message}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSleeper replaces real sleeps, advancing the fake clock instead.
type recordingSleeper struct {
	clock *fakeClock
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.waits = append(r.waits, d)
	if r.clock != nil {
		r.clock.advance(d)
	}
	return nil
}
