package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heal-ops/heal/internal/forecast"
)

var forecasts = []forecast.Forecast{
	{Key: "ip=10.0.0.1|/dev/sda", Projection: &forecast.Projection{
		ETA:         time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
		RecentDelta: 1.35,
		Gradient:    1.26,
	}},
	{Key: "ip=10.0.0.2|/dev/sda", Err: forecast.ErrNoProjectedFill},
	{Key: "ip=10.0.0.1|/dev/sdb", Err: forecast.ErrInsufficientData},
}

func TestWriteForecasts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecasts(&buf, forecasts))

	out := buf.String()
	assert.Contains(t, out, "full by 2024-05-08")
	assert.Contains(t, out, "+1.35% since last sample")
	assert.Contains(t, out, "not projected to fill")
	assert.Contains(t, out, "insufficient history")
}

func TestWriteForecastsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecasts(&buf, nil))
	assert.Contains(t, buf.String(), "no storage history")
}

func TestWriteForecastsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastsJSON(&buf, forecasts))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)

	assert.Equal(t, "2024-05-08", got[0]["eta"])
	assert.Equal(t, 1.35, got[0]["recent_delta"])
	assert.NotContains(t, got[0], "reason")

	assert.Equal(t, "not projected to fill", got[1]["reason"])
	assert.NotContains(t, got[1], "eta")
}
