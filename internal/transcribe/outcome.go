package transcribe

import (
	"fmt"

	"github.com/fmueller/podscribe/internal/assemblyai"
)

// Kind tags an Outcome.
type Kind int

const (
	Pending Kind = iota
	Completed
	Failed
)

func (k Kind) String() string {
	switch k {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome is what one status read tells the caller. Text is set for
// Completed, Message for Failed.
type Outcome struct {
	Kind    Kind
	Text    string
	Message string
}

// Check classifies a job snapshot. Unknown statuses are treated as Pending.
func Check(job assemblyai.Job) Outcome {
	switch job.Status {
	case assemblyai.StatusCompleted:
		return Outcome{Kind: Completed, Text: job.Text}
	case assemblyai.StatusErrored:
		return Outcome{Kind: Failed, Message: job.Error}
	default:
		return Outcome{Kind: Pending}
	}
}

// TranscriptionError reports that the service itself failed the job.
type TranscriptionError struct {
	JobID   assemblyai.JobID
	Message string
}

func (e *TranscriptionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transcription %s failed", e.JobID)
	}
	return fmt.Sprintf("transcription failed: %s", e.Message)
}
