package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "WARN"}, &buf)

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "warn", line["level"])

	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(Config{Level: "bogus"}, &buf).GetLevel())
}

func TestWithRequest(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithRequest(context.Background(), NewWithWriter(Config{}, &buf), "req-1")

	zerolog.Ctx(ctx).Info().Msg("hello")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
}
