package ui

import (
	"fmt"
	"math"
	"time"

	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ngmaloney/stratus-terminal/internal/models"
)

const (
	minChartWidth  = 30
	chartHeight    = 10
	legendMaxItems = 6
)

// blendOpacity approximates an RGBA line color on a terminal by blending the
// line color toward the chart background.
func blendOpacity(c models.RGB, opacity float64) lipgloss.Color {
	fg := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	bg, err := colorful.Hex(chartBackground)
	if err != nil {
		return lipgloss.Color(fg.Hex())
	}
	opacity = math.Max(0, math.Min(1, opacity))
	return lipgloss.Color(bg.BlendRgb(fg, opacity).Clamped().Hex())
}

// seriesBounds returns the time and value extent of all series.
func seriesBounds(series []models.Series) (minX, maxX time.Time, minY, maxY float64, ok bool) {
	minY, maxY = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			if !ok || p.X.Before(minX) {
				minX = p.X
			}
			if !ok || p.X.After(maxX) {
				maxX = p.X
			}
			ok = true
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if !ok {
		return
	}
	if maxX.Equal(minX) {
		maxX = minX.Add(time.Hour)
	}
	if maxY == minY {
		minY--
		maxY++
	}
	return
}

// renderChart draws every series of one metric onto a braille time series
// chart. Older runs are drawn first so the latest run sits on top.
func renderChart(metric models.Metric, unit string, series []models.Series, width int) string {
	title := sectionHeaderStyle.Render(fmt.Sprintf("%s (%s)", metric.Name, unit))

	minX, maxX, minY, maxY, ok := seriesBounds(series)
	if !ok {
		return title + "\n" + mutedStyle.Render("  No data")
	}
	if width < minChartWidth {
		width = minChartWidth
	}

	chart := timeserieslinechart.New(width, chartHeight)
	chart.SetTimeRange(minX, maxX)
	chart.SetViewTimeRange(minX, maxX)
	chart.SetYRange(minY, maxY)
	chart.SetViewYRange(minY, maxY)

	for _, s := range drawOrder(series) {
		name := seriesName(s)
		for _, p := range s.Points {
			chart.PushDataSet(name, timeserieslinechart.TimePoint{Time: p.X, Value: p.Y})
		}
		chart.SetDataSetStyle(name, lipgloss.NewStyle().Foreground(blendOpacity(s.Color, s.Opacity)))
	}
	chart.DrawBrailleAll()

	return lipgloss.JoinVertical(lipgloss.Left, title, chart.View(), renderLegend(series))
}

// drawOrder puts older runs before latest runs.
func drawOrder(series []models.Series) []models.Series {
	out := make([]models.Series, 0, len(series))
	for _, s := range series {
		if !s.Latest {
			out = append(out, s)
		}
	}
	for _, s := range series {
		if s.Latest {
			out = append(out, s)
		}
	}
	return out
}

func seriesName(s models.Series) string {
	return fmt.Sprintf("%d/%d", s.SourceID, s.RunTime)
}

// renderLegend lists the latest run of each source.
func renderLegend(series []models.Series) string {
	var parts []string
	for _, s := range series {
		if !s.Latest {
			continue
		}
		swatch := lipgloss.NewStyle().Foreground(blendOpacity(s.Color, 1)).Render("━━")
		parts = append(parts, swatch+" "+mutedStyle.Render(s.Label))
		if len(parts) == legendMaxItems {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
