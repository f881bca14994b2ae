package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/heal-ops/heal/internal/series"
)

// FullCapacity is the percent-used level treated as a full disk.
const FullCapacity = 100.0

var (
	// ErrInsufficientData means fewer than two usable points were given.
	ErrInsufficientData = errors.New("insufficient history")
	// ErrNoProjectedFill means usage is flat, shrinking, or growing too
	// slowly to fill within maxHorizon.
	ErrNoProjectedFill = errors.New("not projected to fill")
)

// maxHorizon is the furthest ETA a time.Duration can carry from the first
// sample, roughly 292 years.
const maxHorizon = time.Duration(math.MaxInt64)

// Projection is the estimated date a disk reaches FullCapacity.
type Projection struct {
	ETA         time.Time `json:"eta"`
	RecentDelta float64   `json:"recent_delta"`
	Gradient    float64   `json:"gradient_per_day"`
}

// PredictFullCapacity fits a least-squares line through every point and
// solves it for FullCapacity. RecentDelta is the change between the last
// two points, independent of the fit. A series already past full yields
// the last timestamp rather than a date in the past.
func PredictFullCapacity(timestamps []time.Time, percent []float64) (Projection, error) {
	if len(timestamps) != len(percent) {
		return Projection{}, fmt.Errorf("%w: %d timestamps for %d values", ErrInsufficientData, len(timestamps), len(percent))
	}
	n := len(timestamps)
	if n < 2 {
		return Projection{}, fmt.Errorf("%w: need 2 points, have %d", ErrInsufficientData, n)
	}

	// Seconds from the first sample keep the fit well conditioned.
	origin := timestamps[0]
	xs := make([]float64, n)
	for i, ts := range timestamps {
		xs[i] = ts.Sub(origin).Seconds()
	}

	if stat.Variance(xs, nil) == 0 {
		return Projection{}, fmt.Errorf("%w: points share one timestamp", ErrInsufficientData)
	}

	intercept, gradient := stat.LinearRegression(xs, percent, nil, false)
	if gradient <= 0 {
		return Projection{}, ErrNoProjectedFill
	}

	secs := (FullCapacity - intercept) / gradient
	if secs >= maxHorizon.Seconds() {
		return Projection{}, fmt.Errorf("%w: full in %.0f years", ErrNoProjectedFill, secs/(365*24*time.Hour).Seconds())
	}
	eta := timestamps[n-1]
	if secs > xs[n-1] {
		eta = origin.Add(time.Duration(secs * float64(time.Second)))
	}

	return Projection{
		ETA:         eta,
		RecentDelta: round2(percent[n-1] - percent[n-2]),
		Gradient:    gradient * (24 * time.Hour).Seconds(),
	}, nil
}

// Forecast pairs a disk with its projection or the reason there is none.
type Forecast struct {
	Key        string      `json:"key"`
	Projection *Projection `json:"projection,omitempty"`
	Err        error       `json:"-"`
}

// Reason describes why Projection is nil, for display.
func (f Forecast) Reason() string {
	switch {
	case f.Err == nil:
		return ""
	case errors.Is(f.Err, ErrNoProjectedFill):
		return "not projected to fill"
	case errors.Is(f.Err, ErrInsufficientData):
		return "insufficient history"
	default:
		return f.Err.Error()
	}
}

// ForecastSet projects every series in set, keeping set order.
func ForecastSet(set series.StorageSet) []Forecast {
	out := make([]Forecast, 0, len(set))
	for _, s := range set {
		f := Forecast{Key: s.Key}
		p, err := PredictFullCapacity(s.Timestamps, s.PercentUsed)
		if err != nil {
			f.Err = err
		} else {
			f.Projection = &p
		}
		out = append(out, f)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
