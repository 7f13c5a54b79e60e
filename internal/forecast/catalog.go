// Package forecast turns raw multi-model forecast payloads into chart-ready
// series and single-day summaries.
package forecast

import (
	"errors"
	"fmt"

	"github.com/ngmaloney/stratus-terminal/internal/models"
)

var (
	// ErrMalformedObservation indicates an observation references reference
	// data (source field, metric or source) that is not in the catalog.
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrNoSummary indicates the requested day has no summary.
	ErrNoSummary = errors.New("no summary for day")
)

// Catalog indexes the per-session reference data: sources, their fields and
// metrics. It is read-only once built.
type Catalog struct {
	sources     map[int]models.Source
	sourceOrder []int
	fields      map[int]models.SourceField
	metrics     map[int]models.Metric
	metricOrder []int
}

// NewCatalog indexes sources (with nested fields) and metrics by id.
func NewCatalog(sources []models.Source, metrics []models.Metric) *Catalog {
	c := &Catalog{
		sources: make(map[int]models.Source, len(sources)),
		fields:  make(map[int]models.SourceField),
		metrics: make(map[int]models.Metric, len(metrics)),
	}
	for _, src := range sources {
		if _, dup := c.sources[src.ID]; !dup {
			c.sourceOrder = append(c.sourceOrder, src.ID)
		}
		c.sources[src.ID] = src
		for _, f := range src.Fields {
			c.fields[f.ID] = f
		}
	}
	for _, m := range metrics {
		if _, dup := c.metrics[m.ID]; !dup {
			c.metricOrder = append(c.metricOrder, m.ID)
		}
		c.metrics[m.ID] = m
	}
	return c
}

// Source returns the source with the given id.
func (c *Catalog) Source(id int) (models.Source, bool) {
	s, ok := c.sources[id]
	return s, ok
}

// Metric returns the metric with the given id.
func (c *Catalog) Metric(id int) (models.Metric, bool) {
	m, ok := c.metrics[id]
	return m, ok
}

// Field returns the source field with the given id.
func (c *Catalog) Field(id int) (models.SourceField, bool) {
	f, ok := c.fields[id]
	return f, ok
}

// Sources returns all sources in the order they were fetched.
func (c *Catalog) Sources() []models.Source {
	out := make([]models.Source, 0, len(c.sourceOrder))
	for _, id := range c.sourceOrder {
		out = append(out, c.sources[id])
	}
	return out
}

// Metrics returns all metrics in the order they were fetched.
func (c *Catalog) Metrics() []models.Metric {
	out := make([]models.Metric, 0, len(c.metricOrder))
	for _, id := range c.metricOrder {
		out = append(out, c.metrics[id])
	}
	return out
}

// Resolve maps a source field id to its metric and source.
func (c *Catalog) Resolve(fieldID int) (models.Metric, models.Source, error) {
	field, ok := c.fields[fieldID]
	if !ok {
		return models.Metric{}, models.Source{}, fmt.Errorf("%w: unknown source field %d", ErrMalformedObservation, fieldID)
	}
	metric, ok := c.metrics[field.MetricID]
	if !ok {
		return models.Metric{}, models.Source{}, fmt.Errorf("%w: source field %d references unknown metric %d", ErrMalformedObservation, fieldID, field.MetricID)
	}
	source, ok := c.sources[field.SourceID]
	if !ok {
		return models.Metric{}, models.Source{}, fmt.Errorf("%w: source field %d references unknown source %d", ErrMalformedObservation, fieldID, field.SourceID)
	}
	return metric, source, nil
}
