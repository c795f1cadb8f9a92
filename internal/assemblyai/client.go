// Package assemblyai talks to the AssemblyAI v2 REST API: media upload,
// transcript submission and transcript status.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fmueller/podscribe/internal/config"
	"github.com/fmueller/podscribe/internal/media"
	"go.uber.org/zap"
)

const (
	uploadPath     = "/v2/upload"
	transcriptPath = "/v2/transcript"

	maxErrorBody = 4 << 10
)

// ProgressFunc is called once per upload with the request size. The returned
// writer receives every byte sent; done is called when the body is consumed.
type ProgressFunc func(total int64) (w io.Writer, done func())

type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
	progress   ProgressFunc
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

func WithUploadProgress(fn ProgressFunc) Option {
	return func(cl *Client) { cl.progress = fn }
}

// NewClient fails with config.ErrMissingAPIKey before any request is made
// when no credential is configured.
func NewClient(cfg config.Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, config.ErrMissingAPIKey
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = config.DefaultBaseURL
	}

	c := &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		userAgent:  "podscribe/1",
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c, nil
}

// Upload sends the blob as a multipart "file" field and returns the
// reference the service stored it under.
func (c *Client) Upload(ctx context.Context, blob media.Blob) (UploadReference, error) {
	if len(blob.Data) == 0 {
		return "", media.ErrEmptyBlob
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", blob.Name)
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := part.Write(blob.Data); err != nil {
		return "", &UploadError{Err: fmt.Errorf("write form file: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return "", &UploadError{Err: fmt.Errorf("close multipart body: %w", err)}
	}

	var reader io.Reader = body
	if c.progress != nil {
		w, done := c.progress(int64(body.Len()))
		if done != nil {
			defer done()
		}
		if w != nil {
			reader = io.TeeReader(body, w)
		}
	}

	req, err := c.newRequest(ctx, http.MethodPost, uploadPath, reader)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	req.ContentLength = int64(body.Len())
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("uploading media", zap.String("name", blob.Name), zap.Int64("bytes", blob.Size()))

	var out uploadResponse
	if resp, err := c.do(req, &out); err != nil {
		return "", &UploadError{Response: resp, Err: err}
	}
	if strings.TrimSpace(out.UploadURL) == "" {
		return "", &UploadError{Err: errors.New("response has no upload_url")}
	}

	return UploadReference(out.UploadURL), nil
}

// Submit creates a transcription job for previously uploaded media.
func (c *Client) Submit(ctx context.Context, ref UploadReference, opts JobOptions) (JobID, error) {
	if strings.TrimSpace(string(ref)) == "" {
		return "", &SubmissionError{Err: errors.New("upload reference is empty")}
	}

	payload, err := json.Marshal(transcriptRequest{
		AudioURL:     string(ref),
		LanguageCode: opts.LanguageCode,
		AutoChapters: opts.AutoChapters,
	})
	if err != nil {
		return "", &SubmissionError{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := c.newRequest(ctx, http.MethodPost, transcriptPath, bytes.NewReader(payload))
	if err != nil {
		return "", &SubmissionError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("submitting transcription", zap.String("audio_url", string(ref)), zap.String("language_code", opts.LanguageCode))

	var job Job
	if resp, err := c.do(req, &job); err != nil {
		return "", &SubmissionError{Response: resp, Err: err}
	}
	if strings.TrimSpace(string(job.ID)) == "" {
		return "", &SubmissionError{Err: errors.New("response has no id")}
	}

	return job.ID, nil
}

// Status reads the current state of a job.
func (c *Client) Status(ctx context.Context, id JobID) (Job, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Job{}, &StatusError{Err: errors.New("job id is empty")}
	}

	req, err := c.newRequest(ctx, http.MethodGet, transcriptPath+"/"+url.PathEscape(string(id)), nil)
	if err != nil {
		return Job{}, &StatusError{JobID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var job Job
	if resp, err := c.do(req, &job); err != nil {
		return Job{}, &StatusError{JobID: id, Response: resp, Err: err}
	}
	if job.ID == "" {
		job.ID = id
	}

	return job, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out. On a non-2xx answer it
// returns ErrUnexpectedStatus and a Response holding the (truncated) body.
func (c *Client) do(req *http.Request, out any) (Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		details := Response{StatusCode: resp.StatusCode, Body: string(raw)}
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil {
			details.Message = apiErr.Error
		}
		c.logger.Debug("unexpected response", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode))
		return details, ErrUnexpectedStatus
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("decode response: %w", err)
	}
	return Response{}, nil
}
