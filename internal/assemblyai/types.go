package assemblyai

// UploadReference is the URL under which the service stored uploaded media.
type UploadReference string

// JobID names a submitted transcription.
type JobID string

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusErrored    Status = "error"
)

// Terminal reports whether no further transitions can follow s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusErrored
}

// Job is a snapshot of a transcription as reported by the service. Text is
// set only once Status is completed, Error only once it is error.
type Job struct {
	ID     JobID  `json:"id"`
	Status Status `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// JobOptions are sent along with every submission.
type JobOptions struct {
	LanguageCode string
	AutoChapters bool
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code"`
	AutoChapters bool   `json:"auto_chapters"`
}

type errorResponse struct {
	Error string `json:"error"`
}
