package view

import (
	"fmt"
	"math"
	"strings"
)

type ChartSize struct {
	Width   float64
	Height  float64
	Padding float64
}

var DefaultChartSize = ChartSize{Width: 600, Height: 240, Padding: 32}

type Series struct {
	Labels []string
	Values []float64
	// Max pins the top of the y axis; zero scales to the largest value.
	Max float64
}

type ChartPoint struct {
	X     float64
	Y     float64
	Label string
	Value float64
}

type GridLine struct {
	Y     float64
	Label string
}

type LineChart struct {
	ChartSize
	Points []ChartPoint
	Path   string
	Area   string
	Grid   []GridLine
	Empty  bool
}

type Bar struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Label  string
	Value  float64
}

type BarChart struct {
	ChartSize
	Bars  []Bar
	Grid  []GridLine
	Empty bool
}

func (s Series) top() float64 {
	if s.Max > 0 {
		return s.Max
	}
	top := 0.0
	for _, v := range s.Values {
		top = math.Max(top, v)
	}
	if top == 0 {
		return 1
	}
	return top
}

func (c ChartSize) plot() (x0, y0, w, h float64) {
	return c.Padding, c.Padding, c.Width - 2*c.Padding, c.Height - 2*c.Padding
}

func (c ChartSize) grid(top float64, lines int) []GridLine {
	_, y0, _, h := c.plot()
	out := make([]GridLine, 0, lines+1)
	for i := 0; i <= lines; i++ {
		frac := float64(i) / float64(lines)
		out = append(out, GridLine{
			Y:     round2(y0 + h - frac*h),
			Label: FormatNumber(top * frac),
		})
	}
	return out
}

// NewLineChart lays the series out left to right inside the padded area.
func NewLineChart(s Series, size ChartSize) LineChart {
	chart := LineChart{ChartSize: size, Grid: size.grid(s.top(), 4)}
	if len(s.Values) == 0 {
		chart.Empty = true
		return chart
	}
	x0, y0, w, h := size.plot()
	top := s.top()
	step := 0.0
	if len(s.Values) > 1 {
		step = w / float64(len(s.Values)-1)
	}
	var path strings.Builder
	for i, v := range s.Values {
		p := ChartPoint{
			X:     round2(x0 + float64(i)*step),
			Y:     round2(y0 + h - math.Min(v, top)/top*h),
			Label: labelAt(s.Labels, i),
			Value: v,
		}
		chart.Points = append(chart.Points, p)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%s %s ", cmd, FormatNumber(p.X), FormatNumber(p.Y))
	}
	chart.Path = strings.TrimSpace(path.String())
	first, last := chart.Points[0], chart.Points[len(chart.Points)-1]
	base := FormatNumber(round2(y0 + h))
	chart.Area = fmt.Sprintf("%s L%s %s L%s %s Z", chart.Path, FormatNumber(last.X), base, FormatNumber(first.X), base)
	return chart
}

// NewBarChart divides the plot area into equal slots with a gap between bars.
func NewBarChart(s Series, size ChartSize) BarChart {
	chart := BarChart{ChartSize: size, Grid: size.grid(s.top(), 4)}
	if len(s.Values) == 0 {
		chart.Empty = true
		return chart
	}
	x0, y0, w, h := size.plot()
	top := s.top()
	slot := w / float64(len(s.Values))
	barWidth := slot * 0.7
	for i, v := range s.Values {
		height := math.Min(v, top) / top * h
		chart.Bars = append(chart.Bars, Bar{
			X:      round2(x0 + float64(i)*slot + (slot-barWidth)/2),
			Y:      round2(y0 + h - height),
			Width:  round2(barWidth),
			Height: round2(height),
			Label:  labelAt(s.Labels, i),
			Value:  v,
		})
	}
	return chart
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatNumber prints v with at most two decimals and no trailing zeros.
func FormatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
