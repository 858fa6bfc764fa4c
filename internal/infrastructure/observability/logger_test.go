package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestInitLogger_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger("courts-api", "info", &buf)

	logger.Debug().Msg("hidden")
	fieldLogger := WithFields(logger, map[string]any{"booking_id": 42})
	fieldLogger.Info().Msg("booking created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "courts-api", line["service"])
	assert.Equal(t, float64(42), line["booking_id"])
	assert.Equal(t, "booking created", line["message"])
}
