package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/model"
)

// Renderer writes a health snapshot to an output stream.
type Renderer interface {
	Render(snap *aggregator.Snapshot) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))            // green
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))           // orange
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleHead = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleDim  = lipgloss.NewStyle().Faint(true)
)

// TextRenderer prints the health tree with severity-based colors.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(snap *aggregator.Snapshot) error {
	var b strings.Builder
	tree := snap.Tree

	b.WriteString(styleHead.Render("Servers") + "\n")
	for _, s := range aggregator.ServerStatuses(tree) {
		fmt.Fprintf(&b, "  %s %s\n", StatusTag(s.Status), s.Server)
	}

	b.WriteString(styleHead.Render("Storage") + "\n")
	figures, err := aggregator.HDDStorage(tree)
	for _, f := range latestFigures(figures) {
		pct := f.PercentUsed()
		fmt.Fprintf(&b, "  %s %-28s %6.2f%% used\n", usageTag(pct), f.Key, pct)
	}
	if err != nil {
		fmt.Fprintf(&b, "  %s\n", styleDim.Render("some disk rows could not be decoded"))
	}

	b.WriteString(styleHead.Render("Services") + "\n")
	for _, name := range aggregator.ServiceChecks() {
		for _, g := range aggregator.ServiceStatuses(tree, name) {
			for _, in := range aggregator.LatestInstances(g.Instances) {
				fmt.Fprintf(&b, "  %s %-16s %s\n", StatusTag(in.Status), name, in.Key)
			}
		}
	}

	b.WriteString(styleHead.Render("Modules") + "\n")
	for _, m := range aggregator.ModuleStatuses(tree) {
		fmt.Fprintf(&b, "  %s %s\n", StatusTag(m.Status), m.ModuleID)
	}

	fmt.Fprintf(&b, "%s\n", styleDim.Render(fmt.Sprintf("%d record(s) from %d file(s), %d skipped, built %s",
		snap.Records, len(snap.Sources), snap.Skipped, snap.BuiltAt.Format("15:04:05"))))

	_, err = io.WriteString(r.w, b.String())
	return err
}

// StatusTag renders a severity padded and colored by its display rank.
func StatusTag(s model.Severity) string {
	padded := fmt.Sprintf("%-8s", s)
	switch s.Rank() {
	case 2:
		return styleErr.Render(padded)
	case 1:
		return styleWarn.Render(padded)
	default:
		return styleOK.Render(padded)
	}
}

// usageTag colors disk usage: green up to 60%, orange below 80%, red above.
func usageTag(pct float64) string {
	switch {
	case pct <= 60:
		return styleOK.Render("●")
	case pct < 80:
		return styleWarn.Render("●")
	default:
		return styleErr.Render("●")
	}
}

// latestFigures keeps the last figure per disk, in first-seen order.
func latestFigures(figures []aggregator.StorageFigure) []aggregator.StorageFigure {
	idx := make(map[string]int)
	var out []aggregator.StorageFigure
	for _, f := range figures {
		if i, ok := idx[f.Key]; ok {
			out[i] = f
			continue
		}
		idx[f.Key] = len(out)
		out = append(out, f)
	}
	return out
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each snapshot as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(snap *aggregator.Snapshot) error {
	return r.enc.Encode(snap)
}
