package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/media"
	"github.com/fmueller/podscribe/internal/output"
	"github.com/fmueller/podscribe/internal/transcribe"
	"go.uber.org/zap"
)

const formField = "file"

type transcriptResponse struct {
	ID        string `json:"id"`
	UploadURL string `json:"upload_url"`
	Text      string `json:"text"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(formField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": formField + " required"})
		return
	}
	defer file.Close()

	blob, cleanup, err := s.stage(header.Filename, file)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	defer cleanup()

	res, err := s.wf.Run(r.Context(), blob)
	if err != nil {
		s.logger.Warn("transcription failed", zap.String("file", header.Filename), zap.String("run_id", res.RunID), zap.Error(err))
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.DefaultFileName))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, res.Text)
		return
	}

	writeJSON(w, http.StatusOK, transcriptResponse{
		ID:        string(res.JobID),
		UploadURL: string(res.UploadURL),
		Text:      res.Text,
	})
}

// stage writes the upload to a temp file and loads it back, so the request
// body is fully consumed before any remote call starts.
func (s *Server) stage(name string, r io.Reader) (media.Blob, func(), error) {
	staged, err := media.Stage(s.tempDir, name, r)
	if err != nil {
		return media.Blob{}, func() {}, err
	}
	cleanup := func() {
		if err := staged.Remove(); err != nil {
			s.logger.Warn("failed to remove staged upload", zap.String("path", staged.Path), zap.Error(err))
		}
	}

	blob, err := staged.Load()
	if err != nil {
		cleanup()
		return media.Blob{}, func() {}, err
	}
	return blob, cleanup, nil
}

func statusFor(err error) int {
	var (
		uploadErr        *assemblyai.UploadError
		submissionErr    *assemblyai.SubmissionError
		statusErr        *assemblyai.StatusError
		transcriptionErr *transcribe.TranscriptionError
		tooLarge         *http.MaxBytesError
	)

	switch {
	case errors.Is(err, media.ErrEmptyBlob), errors.Is(err, media.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &transcriptionErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transcribe.ErrPollExhausted), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &uploadErr), errors.As(err, &submissionErr), errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
