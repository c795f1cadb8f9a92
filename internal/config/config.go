package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	APIKeyEnv  = "ASSEMBLYAI_API_KEY"
	BaseURLEnv = "ASSEMBLYAI_BASE_URL"

	DefaultBaseURL      = "https://api.assemblyai.com"
	DefaultLanguageCode = "en_us"
	DefaultPollInterval = 3 * time.Second
)

var ErrMissingAPIKey = errors.New(APIKeyEnv + " is not set")

// Job holds the options sent with every transcription request.
type Job struct {
	LanguageCode string
	AutoChapters bool
}

// Poll controls how job status is re-read until it reaches a terminal state.
// A zero MaxAttempts and a zero Timeout poll until the context is cancelled.
type Poll struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
	Timeout     time.Duration
}

// Config is built once at startup and handed to every component explicitly.
type Config struct {
	APIKey  string
	BaseURL string
	Job     Job
	Poll    Poll
}

func Default() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Job: Job{
			LanguageCode: DefaultLanguageCode,
		},
		Poll: Poll{
			Interval:   DefaultPollInterval,
			Multiplier: 1,
		},
	}
}

// FromEnv returns Default overlaid with values from the process environment.
func FromEnv() Config {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) Config {
	cfg := Default()
	cfg.APIKey = strings.TrimSpace(getenv(APIKeyEnv))
	if base := strings.TrimSpace(getenv(BaseURLEnv)); base != "" {
		cfg.BaseURL = base
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}

	if strings.TrimSpace(c.Job.LanguageCode) == "" {
		return errors.New("language code must not be empty")
	}

	return c.Poll.validate()
}

func (p Poll) validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.Interval)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("poll multiplier must be >= 1, got %g", p.Multiplier)
	}
	if p.MaxInterval != 0 && p.MaxInterval < p.Interval {
		return fmt.Errorf("poll max interval %s is shorter than interval %s", p.MaxInterval, p.Interval)
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("poll max attempts cannot be negative, got %d", p.MaxAttempts)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("poll timeout cannot be negative, got %s", p.Timeout)
	}
	return nil
}

// Unbounded reports whether polling has neither an attempt cap nor a deadline.
func (p Poll) Unbounded() bool {
	return p.MaxAttempts == 0 && p.Timeout == 0
}
