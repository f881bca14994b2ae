package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestInitWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", "json")

	Get().Info("should not be logged")
	Get().Warn("should be logged", "path", "a.csv")

	out := buf.String()
	assert.NotContains(t, out, "should not be logged")
	assert.Contains(t, out, `"msg":"should be logged"`)
	assert.Contains(t, out, `"path":"a.csv"`)
}
