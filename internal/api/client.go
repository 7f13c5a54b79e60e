// Package api is the HTTP client for the forecast server.
package api

import (
	"context"
	"time"

	"github.com/ngmaloney/stratus-terminal/internal/models"
)

// ReferenceClient fetches the per-session reference data
type ReferenceClient interface {
	// Sources retrieves all forecast sources with their fields
	Sources(ctx context.Context) ([]models.Source, error)

	// Metrics retrieves all metrics
	Metrics(ctx context.Context) ([]models.Metric, error)
}

// ForecastClient fetches forecast data for a point
type ForecastClient interface {
	// Wx retrieves raw multi-model observations between start and end
	Wx(ctx context.Context, lat, lon float64, start, end time.Time) (models.WxSeries, error)

	// Summarize retrieves daily summaries for the next days
	Summarize(ctx context.Context, lat, lon float64, days int) ([]models.DailySummary, error)
}

// LocationClient searches and resolves locations
type LocationClient interface {
	// SearchLocations returns candidate locations for a typeahead query
	SearchLocations(ctx context.Context, query string) ([]models.Location, error)

	// Location resolves a location by id
	Location(ctx context.Context, id int) (models.Location, error)

	// LocationByCoords resolves the named location nearest to a point
	LocationByCoords(ctx context.Context, lat, lon float64) (models.Location, error)
}

// Client is everything the terminal needs from the server
type Client interface {
	ReferenceClient
	ForecastClient
	LocationClient
}
