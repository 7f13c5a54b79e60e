package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/ngmaloney/stratus-terminal/internal/logger"
	"github.com/ngmaloney/stratus-terminal/internal/models"
	"github.com/ngmaloney/stratus-terminal/internal/units"
)

// Opacities for the newest model run of a source and for every older run.
const (
	LatestRunOpacity = 0.8
	OlderRunOpacity  = 0.15
)

// DefaultDisplayMetrics are the metric ids charted when none are configured:
// temperature, rain, snow, wind and cloud cover.
var DefaultDisplayMetrics = []int{1, 3, 6, 12, 15}

var lineColors = map[string]models.RGB{
	"hrrr": {R: 255, G: 0, B: 0},
	"gfs":  {R: 0, G: 255, B: 0},
	"nam":  {R: 0, G: 0, B: 255},
}

var fallbackColor = models.RGB{R: 160, G: 160, B: 160}

// SourceColor returns the line color for a source short name.
func SourceColor(shortName string) models.RGB {
	if c, ok := lineColors[shortName]; ok {
		return c
	}
	return fallbackColor
}

// Aggregator groups observations by metric and model run and converts them
// into display units.
type Aggregator struct {
	catalog *Catalog
	conv    units.Converter
	display map[int]bool
}

// NewAggregator creates an aggregator. An empty displayMetrics uses
// DefaultDisplayMetrics.
func NewAggregator(catalog *Catalog, conv units.Converter, displayMetrics []int) *Aggregator {
	if len(displayMetrics) == 0 {
		displayMetrics = DefaultDisplayMetrics
	}
	display := make(map[int]bool, len(displayMetrics))
	for _, id := range displayMetrics {
		display[id] = true
	}
	return &Aggregator{catalog: catalog, conv: conv, display: display}
}

// Aggregate builds the chart series for wx. Every metric is converted, but
// only display metrics are emitted.
func (a *Aggregator) Aggregate(wx models.WxSeries) (models.ChartSeries, error) {
	g := newGrouping()
	for _, ts := range wx.OrderedTimes {
		x := time.Unix(ts, 0).UTC()
		for _, obs := range wx.Data[ts] {
			metric, source, err := a.catalog.Resolve(obs.SrcFieldID)
			if err != nil {
				return nil, fmt.Errorf("observation at %d: %w", ts, err)
			}
			y, _, err := a.conv.ConvertValue(obs.Value, metric.Units)
			if err != nil {
				return nil, fmt.Errorf("observation at %d for field %d: %w", ts, obs.SrcFieldID, err)
			}
			g = g.add(metric.ID, source, obs.RunTime, models.Point{X: x, Y: y})
		}
	}

	out := g.emit(a.display)
	logger.Debug("aggregated %d observations into %d series across %d metrics", wx.Len(), out.Len(), len(out))
	return out, nil
}

// grouping is the intermediate metric → source → run → points fold state.
// Insertion order of metrics, sources and points is kept.
type grouping struct {
	metrics []int
	bySrc   map[int]*sourceGroups
}

type sourceGroups struct {
	sources []models.Source
	runs    map[int]map[int64][]models.Point
}

func newGrouping() grouping {
	return grouping{bySrc: make(map[int]*sourceGroups)}
}

func (g grouping) add(metricID int, source models.Source, runTime int64, p models.Point) grouping {
	sg, ok := g.bySrc[metricID]
	if !ok {
		sg = &sourceGroups{runs: make(map[int]map[int64][]models.Point)}
		g.bySrc[metricID] = sg
		g.metrics = append(g.metrics, metricID)
	}
	runs, ok := sg.runs[source.ID]
	if !ok {
		runs = make(map[int64][]models.Point)
		sg.runs[source.ID] = runs
		sg.sources = append(sg.sources, source)
	}
	runs[runTime] = append(runs[runTime], p)
	return g
}

func (g grouping) emit(display map[int]bool) models.ChartSeries {
	out := make(models.ChartSeries)
	for _, metricID := range g.metrics {
		if !display[metricID] {
			continue
		}
		sg := g.bySrc[metricID]
		var series []models.Series
		for _, source := range sg.sources {
			runs := sg.runs[source.ID]
			runTimes := make([]int64, 0, len(runs))
			for rt := range runs {
				runTimes = append(runTimes, rt)
			}
			sort.Slice(runTimes, func(i, j int) bool { return runTimes[i] < runTimes[j] })
			latest := runTimes[len(runTimes)-1]

			for _, rt := range runTimes {
				opacity := OlderRunOpacity
				if rt == latest {
					opacity = LatestRunOpacity
				}
				series = append(series, models.Series{
					MetricID: metricID,
					SourceID: source.ID,
					RunTime:  rt,
					Label:    RunLabel(rt, source.Name),
					Color:    SourceColor(source.ShortName),
					Opacity:  opacity,
					Latest:   rt == latest,
					Points:   runs[rt],
				})
			}
		}
		out[metricID] = series
	}
	return out
}

// RunLabel names a model run, e.g. "18Z Tuesday 3rd Global Forecast System".
func RunLabel(runTime int64, sourceName string) string {
	t := time.Unix(runTime, 0).UTC()
	return fmt.Sprintf("%02dZ %s %s %s", t.Hour(), t.Weekday(), ordinal(t.Day()), sourceName)
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
