package models

import (
	"fmt"
	"sort"
	"time"
)

// Source is a forecast provider or model (e.g. HRRR, GFS, NAM)
type Source struct {
	ID              int           `json:"id"`
	ShortName       string        `json:"short_name"` // used for color coding
	Name            string        `json:"name"`
	SrcURL          string        `json:"src_url,omitempty"`
	CoverageArea    string        `json:"coverage_area,omitempty"`
	UpdateFrequency string        `json:"update_frequency,omitempty"`
	Resolution      string        `json:"resolution,omitempty"`
	Fields          []SourceField `json:"fields"`
}

// SourceField is one quantity measured by a source
type SourceField struct {
	ID       int `json:"id"`
	SourceID int `json:"source_id"`
	MetricID int `json:"metric_id"`
}

// Metric is a semantic quantity kind, stored in a canonical unit
type Metric struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Units string `json:"units"` // K, Pa, m, m/s
}

// Observation is a single forecast value for the timestamp it is keyed under.
// Value is the raw decoded JSON value in the metric's canonical unit.
type Observation struct {
	SrcFieldID int   `json:"src_field_id"`
	RunTime    int64 `json:"run_time"` // model run epoch (unix seconds)
	Value      any   `json:"value"`
}

// WxSeries is the /wx payload. OrderedTimes defines chart x-axis order and
// must not be re-sorted.
type WxSeries struct {
	OrderedTimes []int64                 `json:"ordered_times"`
	Data         map[int64][]Observation `json:"data"`
}

// Len returns the total number of observations in the series.
func (w WxSeries) Len() int {
	n := 0
	for _, ts := range w.OrderedTimes {
		n += len(w.Data[ts])
	}
	return n
}

// Point is one chart point in display units
type Point struct {
	X time.Time
	Y float64
}

// RGB is an opaque line color
type RGB struct {
	R, G, B uint8
}

// Series is one chart line: a single model run of one source for one metric
type Series struct {
	MetricID int
	SourceID int
	RunTime  int64
	Label    string
	Color    RGB
	Opacity  float64
	Latest   bool // most recent run of its source
	Points   []Point
}

// RGBA renders the series color with its opacity, e.g. "rgba(255,0,0,0.8)".
func (s Series) RGBA() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", s.Color.R, s.Color.G, s.Color.B, s.Opacity)
}

// ChartSeries maps metric id to the series drawn on that metric's chart.
type ChartSeries map[int][]Series

// MetricIDs returns the metric ids in ascending order.
func (c ChartSeries) MetricIDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of series across all metrics.
func (c ChartSeries) Len() int {
	n := 0
	for _, s := range c {
		n += len(s)
	}
	return n
}
