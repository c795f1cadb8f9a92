package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJSONWritesStructuredFields(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	logger := New(Options{JSON: true, Output: buf})
	logger.Info("uploaded", zap.String("upload_url", "https://cdn/x"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "uploaded", entry["msg"])
	require.Equal(t, "https://cdn/x", entry["upload_url"])
}

func TestNewSuppressesDebugUnlessVerbose(t *testing.T) {
	t.Parallel()

	quiet := new(bytes.Buffer)
	New(Options{Output: quiet}).Debug("poll attempt")
	require.Empty(t, quiet.String())

	verbose := new(bytes.Buffer)
	New(Options{Verbose: true, Output: verbose}).Debug("poll attempt")
	require.Contains(t, verbose.String(), "poll attempt")
}
