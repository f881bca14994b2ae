package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/heal-ops/heal/internal/forecast"
)

const dateLayout = "2006-01-02"

// ForecastView is the display form of a forecast: either an ETA with the
// most recent usage change, or the reason there is none.
type ForecastView struct {
	Key         string   `json:"key"`
	ETA         string   `json:"eta,omitempty"`
	RecentDelta *float64 `json:"recent_delta,omitempty"`
	Gradient    *float64 `json:"gradient_per_day,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// NewForecastView converts f for display.
func NewForecastView(f forecast.Forecast) ForecastView {
	v := ForecastView{Key: f.Key, Reason: f.Reason()}
	if p := f.Projection; p != nil {
		delta, grad := p.RecentDelta, p.Gradient
		v.ETA = p.ETA.Format(dateLayout)
		v.RecentDelta = &delta
		v.Gradient = &grad
	}
	return v
}

// ForecastViews converts a forecast set, keeping its order.
func ForecastViews(fs []forecast.Forecast) []ForecastView {
	out := make([]ForecastView, 0, len(fs))
	for _, f := range fs {
		out = append(out, NewForecastView(f))
	}
	return out
}

// WriteForecasts prints one line per disk. Disks projected to fill are
// highlighted; the others are dimmed with their reason.
func WriteForecasts(w io.Writer, fs []forecast.Forecast) error {
	var b strings.Builder
	b.WriteString(styleHead.Render("Disk full forecast") + "\n")
	if len(fs) == 0 {
		b.WriteString("  " + styleDim.Render("no storage history for the selection") + "\n")
	}
	for _, v := range ForecastViews(fs) {
		if v.ETA == "" {
			fmt.Fprintf(&b, "  %-28s %s\n", v.Key, styleDim.Render(v.Reason))
			continue
		}
		fmt.Fprintf(&b, "  %-28s %s  %+.2f%% since last sample, %.2f%%/day\n",
			v.Key, styleWarn.Render("full by "+v.ETA), *v.RecentDelta, *v.Gradient)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteForecastsJSON encodes the forecast views as one JSON array.
func WriteForecastsJSON(w io.Writer, fs []forecast.Forecast) error {
	return json.NewEncoder(w).Encode(ForecastViews(fs))
}
