package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/stratus-terminal/internal/api"
	"github.com/ngmaloney/stratus-terminal/internal/models"
	"github.com/ngmaloney/stratus-terminal/internal/places"
)

// Message types for async operations

// referenceLoadedMsg is sent when sources and metrics have been fetched
type referenceLoadedMsg struct {
	sources []models.Source
	metrics []models.Metric
	err     error
}

// locationResolvedMsg is sent when a startup location has been resolved
type locationResolvedMsg struct {
	location models.Location
	err      error
}

// forecastLoadedMsg is sent when observations and summaries for a query
// have been fetched. seq identifies the query.
type forecastLoadedMsg struct {
	seq       uint64
	wx        models.WxSeries
	summaries []models.DailySummary
	err       error
}

// placesLoadedMsg is sent when saved places have been read
type placesLoadedMsg struct {
	places []models.Place
	err    error
}

// placeSavedMsg is sent when the current location was saved
type placeSavedMsg struct {
	place *models.Place
	err   error
}

// loadReference fetches sources and metrics in the background
func loadReference(client api.ReferenceClient, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		sources, metrics, err := api.FetchReference(ctx, client)
		return referenceLoadedMsg{sources: sources, metrics: metrics, err: err}
	}
}

// loadForecast fetches the forecast window and daily summaries for loc
func loadForecast(client api.ForecastClient, seq uint64, loc models.Location, hours, days int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		wx, summaries, err := api.FetchForecast(ctx, client, loc, hours, days, time.Now())
		return forecastLoadedMsg{seq: seq, wx: wx, summaries: summaries, err: err}
	}
}

// resolveLocation looks up a startup location by id
func resolveLocation(client api.LocationClient, id int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		loc, err := client.Location(ctx, id)
		return locationResolvedMsg{location: loc, err: err}
	}
}

// resolveCoords names a startup point after its nearest location
func resolveCoords(client api.LocationClient, lat, lon float64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		loc, err := client.LocationByCoords(ctx, lat, lon)
		return locationResolvedMsg{location: loc, err: err}
	}
}

// resolvePlace looks up a saved place by name
func resolvePlace(s *places.Service, name string) tea.Cmd {
	return func() tea.Msg {
		loc, err := s.Resolve(name)
		return locationResolvedMsg{location: loc, err: err}
	}
}

func fetchSavedPlaces(s *places.Service) tea.Cmd {
	return func() tea.Msg {
		list, err := s.ListPlaces()
		return placesLoadedMsg{places: list, err: err}
	}
}

func savePlace(s *places.Service, loc models.Location) tea.Cmd {
	return func() tea.Msg {
		place, err := s.SaveLocation(loc.Name, loc)
		return placeSavedMsg{place: place, err: err}
	}
}
