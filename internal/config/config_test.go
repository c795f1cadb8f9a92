package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromLookupDefaults(t *testing.T) {
	t.Parallel()

	cfg := fromLookup(lookup(map[string]string{APIKeyEnv: "  secret  "}))
	require.Equal(t, "secret", cfg.APIKey)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, "en_us", cfg.Job.LanguageCode)
	require.False(t, cfg.Job.AutoChapters)
	require.Equal(t, 3*time.Second, cfg.Poll.Interval)
	require.True(t, cfg.Poll.Unbounded())
	require.NoError(t, cfg.Validate())
}

func TestFromLookupBaseURLOverride(t *testing.T) {
	t.Parallel()

	cfg := fromLookup(lookup(map[string]string{
		APIKeyEnv:  "secret",
		BaseURLEnv: "http://127.0.0.1:9000",
	}))
	require.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL)
	require.NoError(t, cfg.Validate())
}

func TestValidateMissingAPIKey(t *testing.T) {
	t.Parallel()

	err := fromLookup(lookup(nil)).Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name:        "relative base url",
			mutate:      func(c *Config) { c.BaseURL = "api.assemblyai.com" },
			errContains: "invalid base URL",
		},
		{
			name:        "ftp base url",
			mutate:      func(c *Config) { c.BaseURL = "ftp://api.assemblyai.com" },
			errContains: "scheme must be http or https",
		},
		{
			name:        "empty language",
			mutate:      func(c *Config) { c.Job.LanguageCode = " " },
			errContains: "language code",
		},
		{
			name:        "zero interval",
			mutate:      func(c *Config) { c.Poll.Interval = 0 },
			errContains: "poll interval must be positive",
		},
		{
			name:        "shrinking multiplier",
			mutate:      func(c *Config) { c.Poll.Multiplier = 0.5 },
			errContains: "poll multiplier",
		},
		{
			name:        "max interval below interval",
			mutate:      func(c *Config) { c.Poll.MaxInterval = time.Second },
			errContains: "shorter than interval",
		},
		{
			name:        "negative attempts",
			mutate:      func(c *Config) { c.Poll.MaxAttempts = -1 },
			errContains: "max attempts",
		},
		{
			name:        "negative timeout",
			mutate:      func(c *Config) { c.Poll.Timeout = -time.Second },
			errContains: "timeout",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			cfg.APIKey = "secret"
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestPollUnbounded(t *testing.T) {
	t.Parallel()

	require.True(t, Poll{}.Unbounded())
	require.False(t, Poll{MaxAttempts: 3}.Unbounded())
	require.False(t, Poll{Timeout: time.Minute}.Unbounded())
}
