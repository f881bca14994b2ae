package forecast

import (
	"testing"
	"time"

	"github.com/heal-ops/heal/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) []time.Time {
	t0 := time.Date(2024, 2, 29, 13, 16, 23, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.AddDate(0, 0, i)
	}
	return out
}

func TestPredictFullCapacity(t *testing.T) {
	ts := days(5)
	pct := []float64{15, 16.05, 17.5, 18.65, 20}

	p, err := PredictFullCapacity(ts, pct)
	require.NoError(t, err)

	assert.True(t, p.ETA.After(ts[4]), "eta %s should follow last sample", p.ETA)
	assert.Equal(t, 1.35, p.RecentDelta)
	assert.InDelta(t, 1.26, p.Gradient, 0.001)

	// 1.26%/day from a fitted 14.92% start reaches 100% after ~67.5 days.
	assert.WithinDuration(t, ts[0].AddDate(0, 0, 68), p.ETA, 48*time.Hour)
}

func TestPredictFullCapacityExactLine(t *testing.T) {
	ts := days(3)
	p, err := PredictFullCapacity(ts, []float64{50, 60, 70})
	require.NoError(t, err)

	assert.WithinDuration(t, ts[0].AddDate(0, 0, 5), p.ETA, time.Second)
	assert.Equal(t, 10.0, p.RecentDelta)
}

func TestPredictFullCapacityNoFill(t *testing.T) {
	ts := days(4)

	_, err := PredictFullCapacity(ts, []float64{40, 40, 40, 40})
	assert.ErrorIs(t, err, ErrNoProjectedFill)

	_, err = PredictFullCapacity(ts, []float64{40, 35, 30, 20})
	assert.ErrorIs(t, err, ErrNoProjectedFill)
}

func TestPredictFullCapacitySlowGrowth(t *testing.T) {
	t0 := days(1)[0]
	ts := []time.Time{t0, t0.AddDate(0, 0, 30), t0.AddDate(0, 0, 60)}

	// Centuries away from full: no ETA rather than a wrapped duration.
	_, err := PredictFullCapacity(ts, []float64{50.00, 50.00, 50.01})
	assert.ErrorIs(t, err, ErrNoProjectedFill)
}

func TestPredictFullCapacityAlreadyFullSlowGrowth(t *testing.T) {
	t0 := days(1)[0]
	ts := []time.Time{t0, t0.AddDate(0, 0, 30), t0.AddDate(0, 0, 60)}

	p, err := PredictFullCapacity(ts, []float64{101.00, 101.00, 101.01})
	require.NoError(t, err)
	assert.Equal(t, ts[2], p.ETA)
}

func TestPredictFullCapacityAlreadyFull(t *testing.T) {
	ts := days(3)
	p, err := PredictFullCapacity(ts, []float64{101, 102, 103})
	require.NoError(t, err)
	assert.Equal(t, ts[2], p.ETA)
}

func TestPredictFullCapacityInsufficientData(t *testing.T) {
	_, err := PredictFullCapacity(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = PredictFullCapacity(days(1), []float64{10})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = PredictFullCapacity(days(2), []float64{10})
	assert.ErrorIs(t, err, ErrInsufficientData)

	same := []time.Time{days(1)[0], days(1)[0]}
	_, err = PredictFullCapacity(same, []float64{10, 20})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestForecastSet(t *testing.T) {
	set := series.StorageSet{
		{Key: "a|sda", Timestamps: days(2), PercentUsed: []float64{10, 20}},
		{Key: "a|sdb", Timestamps: days(2), PercentUsed: []float64{20, 10}},
		{Key: "b|sda", Timestamps: days(1), PercentUsed: []float64{10}},
	}

	got := ForecastSet(set)
	require.Len(t, got, 3)

	require.NotNil(t, got[0].Projection)
	assert.Empty(t, got[0].Reason())

	assert.Nil(t, got[1].Projection)
	assert.Equal(t, "not projected to fill", got[1].Reason())

	assert.Nil(t, got[2].Projection)
	assert.Equal(t, "insufficient history", got[2].Reason())
}
