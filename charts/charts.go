// Package charts derives the gauge and histogram shown on the dashboard and
// renders them as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"thanwia-dashboard/models"
)

// DefaultBins is the histogram resolution used by the dashboard
const DefaultBins = 50

// ErrNoData is returned when there is nothing to plot
var ErrNoData = errors.New("no data to plot")

// Bin is one histogram bucket. Lower is inclusive; Upper is exclusive except for the last bin.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram buckets the scores into bins equal-width intervals between min and max
func Histogram(records []models.StudentRecord, bins int) ([]Bin, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	if bins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", bins)
	}

	lo, hi := records[0].TotalDegree, records[0].TotalDegree
	for _, r := range records {
		lo = math.Min(lo, r.TotalDegree)
		hi = math.Max(hi, r.TotalDegree)
	}

	if lo == hi {
		return []Bin{{Lower: lo, Upper: hi, Count: len(records)}}, nil
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, r := range records {
		i := int((r.TotalDegree - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out, nil
}

// Band is a coloured range on the gauge dial
type Band struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
}

// GaugeSpec describes the mean-score dial
type GaugeSpec struct {
	Value     float64 `json:"value"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Threshold float64 `json:"threshold"`
	Bands     []Band  `json:"bands"`
}

// Gauge places the mean on a [0, max] dial with bands at half the mean and the mean
func Gauge(stats models.SummaryStats) GaugeSpec {
	mean := stats.Mean
	return GaugeSpec{
		Value:     mean,
		Min:       0,
		Max:       stats.Max,
		Threshold: mean,
		Bands: []Band{
			{From: 0, To: mean * 0.5, Color: "#e6f2ff"},
			{From: mean * 0.5, To: mean, Color: "#b3d9ff"},
			{From: mean, To: stats.Max, Color: "#f0f0f0"},
		},
	}
}

// RenderHistogram draws the bins as a bar chart
func RenderHistogram(w io.Writer, bins []Bin) error {
	if len(bins) == 0 {
		return ErrNoData
	}

	// Labelling every bucket at 50 bins is unreadable
	labelEvery := 1
	if len(bins) > 10 {
		labelEvery = len(bins) / 10
	}

	maxCount := 0
	bars := make([]chart.Value, 0, len(bins))
	for i, b := range bins {
		label := ""
		if i%labelEvery == 0 {
			label = fmt.Sprintf("%.0f", b.Lower)
		}
		bars = append(bars, chart.Value{
			Value: float64(b.Count),
			Label: label,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("87ceeb"),
				StrokeColor: drawing.ColorFromHex("5fa8c8"),
				StrokeWidth: 1,
			},
		})
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	barWidth, spacing := 14, 2
	graph := chart.BarChart{
		Title:      "Distribution of Total Degrees",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Width:      len(bins)*(barWidth+spacing) + 160,
		Height:     420,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		XAxis:      chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Name:  "Number of Students",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// RenderGauge draws the dial as a pie split at the mean
func RenderGauge(w io.Writer, g GaugeSpec) error {
	if g.Max <= g.Min || g.Value <= 0 {
		return ErrNoData
	}

	values := make([]chart.Value, 0, len(g.Bands))
	for _, b := range g.Bands {
		if b.To <= b.From {
			continue
		}
		values = append(values, chart.Value{
			Value: b.To - b.From,
			Label: fmt.Sprintf("%.0f-%.0f", b.From, b.To),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(b.Color[1:]),
				StrokeColor: drawing.ColorFromHex("4169e1"),
				StrokeWidth: 1,
				FontColor:   drawing.ColorFromHex("1f3a93"),
			},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("Mean %.1f of %.0f", g.Value, g.Max),
		Width:  420,
		Height: 420,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}
