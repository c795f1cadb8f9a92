package assemblyai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedStatus marks calls the service answered with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Response carries what the service answered when a call did not succeed.
// StatusCode is zero when the request never got a response.
type Response struct {
	StatusCode int
	Body       string
	// Message is the "error" field of a JSON error body, if any.
	Message string
}

func (r Response) describe() string {
	if r.StatusCode == 0 {
		return ""
	}
	detail := r.Message
	if detail == "" {
		detail = strings.TrimSpace(r.Body)
	}
	if detail == "" {
		return fmt.Sprintf("status %d", r.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", r.StatusCode, detail)
}

func formatCallError(op string, r Response, err error) string {
	switch {
	case errors.Is(err, ErrUnexpectedStatus):
		return fmt.Sprintf("%s failed: %s", op, r.describe())
	case err != nil && r.StatusCode != 0:
		return fmt.Sprintf("%s failed: %s: %v", op, r.describe(), err)
	case err != nil:
		return fmt.Sprintf("%s failed: %v", op, err)
	default:
		return fmt.Sprintf("%s failed: %s", op, r.describe())
	}
}

// UploadError is returned when media could not be uploaded.
type UploadError struct {
	Response
	Err error
}

func (e *UploadError) Error() string { return formatCallError("upload", e.Response, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// SubmissionError is returned when a transcription job could not be created.
type SubmissionError struct {
	Response
	Err error
}

func (e *SubmissionError) Error() string { return formatCallError("submit transcription", e.Response, e.Err) }
func (e *SubmissionError) Unwrap() error { return e.Err }

// StatusError is returned when the state of a job could not be read.
type StatusError struct {
	Response
	JobID JobID
	Err   error
}

func (e *StatusError) Error() string {
	return formatCallError(fmt.Sprintf("get status of %s", e.JobID), e.Response, e.Err)
}
func (e *StatusError) Unwrap() error { return e.Err }
