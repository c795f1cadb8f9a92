package cli

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/fmueller/podscribe/internal/transcribe"
	"github.com/schollz/progressbar/v3"
)

type stopFunc func()

func startSpinner(enabled bool, description string) stopFunc {
	if !enabled {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

// uploadBar renders a byte counter for the upload request body.
func uploadBar(enabled bool, total int64) (io.Writer, func()) {
	if !enabled || total <= 0 {
		return io.Discard, func() {}
	}

	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription("uploading"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	return bar, func() { _ = bar.Finish() }
}

// stageProgress swaps the indicator as the workflow moves between stages.
// Upload progress is reported by uploadBar; submit and poll get a spinner.
type stageProgress struct {
	enabled bool

	mu   sync.Mutex
	stop stopFunc
}

func (p *stageProgress) onStage(s transcribe.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	switch s {
	case transcribe.StageSubmit:
		p.stop = startSpinner(p.enabled, "Submitting")
	case transcribe.StagePoll:
		p.stop = startSpinner(p.enabled, "Transcribing")
	}
}

func (p *stageProgress) upload(total int64) (io.Writer, func()) {
	return uploadBar(p.enabled, total)
}

func (p *stageProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *stageProgress) stopLocked() {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}
