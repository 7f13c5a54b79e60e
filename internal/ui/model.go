package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/stratus-terminal/internal/api"
	"github.com/ngmaloney/stratus-terminal/internal/config"
	"github.com/ngmaloney/stratus-terminal/internal/forecast"
	"github.com/ngmaloney/stratus-terminal/internal/logger"
	"github.com/ngmaloney/stratus-terminal/internal/models"
	"github.com/ngmaloney/stratus-terminal/internal/places"
	"github.com/ngmaloney/stratus-terminal/internal/search"
	"github.com/ngmaloney/stratus-terminal/internal/units"
)

// AppState represents the current state of the application
type AppState int

const (
	StateSearch  AppState = iota // Typeahead location search
	StateLoading                 // Loading reference data or a forecast
	StateDisplay                 // Display summary and charts for a location
	StateError                   // Error state
)

// Start selects what the program shows first. At most one field is used,
// in the order Place, LocationID, Coords.
type Start struct {
	Place      string
	LocationID int
	Coords     *[2]float64 // lat, lon
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error
	status string // one-line feedback, e.g. after saving a place

	cfg    *config.Config
	client api.Client
	places *places.Service // nil when saved places are unavailable
	conv   units.Converter
	start  Start

	resolving bool // startup location lookup in flight

	// Search
	searchInput textinput.Model
	search      *search.Controller
	resultList  list.Model
	savedPlaces []models.Place

	// Reference data
	catalog *forecast.Catalog

	// Forecast. Each location change starts a new query; responses for any
	// other query are dropped.
	querySeq  uint64
	location  *models.Location
	pending   *forecastLoadedMsg // arrived before reference data
	wx        models.WxSeries
	summaries []models.DailySummary
	series    models.ChartSeries
	day       *forecast.DayView

	spinner spinner.Model
}

// NewModel creates a new application model
func NewModel(cfg *config.Config, client api.Client, placeSvc *places.Service, start Start) Model {
	ti := textinput.New()
	ti.Placeholder = "Search for a location (e.g. Boston, MA)..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	state := StateSearch
	if (start.Place != "" && placeSvc != nil) || start.LocationID != 0 || start.Coords != nil {
		state = StateLoading
	}

	return Model{
		state:       state,
		cfg:         cfg,
		client:      client,
		places:      placeSvc,
		conv:        units.NewConverter(cfg.System()),
		start:       start,
		resolving:   state == StateLoading,
		searchInput: ti,
		search: search.New(client, search.Options{
			Debounce:  cfg.SearchDebounce,
			MinLength: cfg.SearchMinLength,
		}),
		resultList: createLocationList(60, 12),
		spinner:    s,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		loadReference(m.client, m.cfg.Timeout),
	}
	if m.places != nil {
		cmds = append(cmds, fetchSavedPlaces(m.places))
	}

	if m.state == StateLoading {
		cmds = append(cmds, m.spinner.Tick)
	}

	switch {
	case m.start.Place != "" && m.places != nil:
		cmds = append(cmds, resolvePlace(m.places, m.start.Place))
	case m.start.LocationID != 0:
		cmds = append(cmds, resolveLocation(m.client, m.start.LocationID, m.cfg.Timeout))
	case m.start.Coords != nil:
		cmds = append(cmds, resolveCoords(m.client, m.start.Coords[0], m.start.Coords[1], m.cfg.Timeout))
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.resultList.SetSize(min(msg.Width-4, 80), max(msg.Height-12, 4))
		return m, nil
	}

	// Search controller messages
	var searchCmd tea.Cmd
	m.search, searchCmd = m.search.Update(msg)
	if _, ok := msg.(search.ResultMsg); ok {
		m.refreshResults()
		return m, searchCmd
	}
	if searchCmd != nil {
		return m, searchCmd
	}

	// Handle custom messages
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case referenceLoadedMsg:
		if msg.err != nil {
			if api.IsCancelled(msg.err) {
				return m, nil
			}
			m.err = fmt.Errorf("loading forecast sources: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.catalog = forecast.NewCatalog(msg.sources, msg.metrics)
		logger.Info("loaded %d sources and %d metrics", len(msg.sources), len(msg.metrics))
		if m.pending != nil {
			pending := *m.pending
			m.pending = nil
			m.applyForecast(pending)
			return m, nil
		}
		if m.state == StateLoading && m.location == nil && !m.resolving {
			return m.toSearch()
		}
		return m, nil

	case locationResolvedMsg:
		m.resolving = false
		if msg.err != nil {
			m.err = fmt.Errorf("resolving location: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		cmd = m.startForecast(msg.location)
		return m, cmd

	case forecastLoadedMsg:
		if msg.seq != m.querySeq {
			logger.Debug("dropping forecast for query %d, current is %d", msg.seq, m.querySeq)
			return m, nil
		}
		if msg.err != nil {
			if api.IsCancelled(msg.err) {
				return m, nil
			}
			m.err = msg.err
			m.state = StateError
			logger.Error("forecast query %d failed: %v", msg.seq, msg.err)
			return m, nil
		}
		if m.catalog == nil {
			m.pending = &msg
			return m, nil
		}
		m.applyForecast(msg)
		return m, nil

	case placesLoadedMsg:
		if msg.err != nil {
			logger.Warn("loading saved places: %v", msg.err)
			return m, nil
		}
		m.savedPlaces = msg.places
		m.refreshResults()
		return m, nil

	case placeSavedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("✗ " + msg.err.Error())
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("✓ Saved place %q", msg.place.Name))
		return m, fetchSavedPlaces(m.places)
	}

	// Handle keyboard input
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		// Global keys
		if keyMsg.String() == "ctrl+c" {
			m.search.Dispose()
			return m, tea.Quit
		}

		// State-specific handling
		switch m.state {
		case StateSearch:
			return m.handleSearchInput(keyMsg)

		case StateLoading:
			if keyMsg.Type == tea.KeyEsc {
				m.querySeq++ // abandon the query
				return m.toSearch()
			}
			return m, nil

		case StateDisplay:
			return m.handleDisplayKeys(keyMsg)

		case StateError:
			switch keyMsg.String() {
			case "q":
				m.search.Dispose()
				return m, tea.Quit
			case "r":
				return m.retry()
			}
			// Any other key returns to search
			return m.toSearch()
		}
	}

	// Update appropriate component based on state
	if m.state == StateSearch {
		m.searchInput, cmd = m.searchInput.Update(msg)
	}

	return m, cmd
}

// handleSearchInput handles keyboard input in search state
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		m.resultList.CursorUp()
		return m, nil
	case tea.KeyDown:
		m.resultList.CursorDown()
		return m, nil
	case tea.KeyEsc:
		if m.location != nil && m.series != nil {
			m.state = StateDisplay
			return m, nil
		}
		m.searchInput.SetValue("")
		m.search.Clear()
		m.refreshResults()
		return m, nil
	case tea.KeyEnter:
		switch item := m.resultList.SelectedItem().(type) {
		case locationItem:
			cmd := m.startForecast(item.loc)
			return m, cmd
		case placeItem:
			cmd := m.startForecast(item.place.Location())
			return m, cmd
		}
		return m, nil
	}

	// Clear stale feedback when typing
	m.status = ""

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		searchCmd := m.search.SetQuery(after)
		m.refreshResults()
		return m, tea.Batch(cmd, searchCmd)
	}
	return m, cmd
}

// handleDisplayKeys handles keyboard input in display state
func (m Model) handleDisplayKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.search.Dispose()
		return m, tea.Quit
	case "s", "/":
		return m.toSearch()
	case "r":
		if m.location != nil {
			cmd := m.startForecast(*m.location)
			return m, cmd
		}
	case "u":
		m.toggleUnits()
	case "ctrl+s":
		if m.places != nil && m.location != nil {
			return m, savePlace(m.places, *m.location)
		}
	}
	return m, nil
}

// toSearch returns to the search view keeping the current forecast.
func (m Model) toSearch() (tea.Model, tea.Cmd) {
	m.state = StateSearch
	m.err = nil
	m.status = ""
	m.searchInput.SetValue("")
	m.searchInput.Focus()
	m.search.Clear()
	m.refreshResults()
	return m, textinput.Blink
}

// retry repeats whatever failed last.
func (m Model) retry() (tea.Model, tea.Cmd) {
	m.err = nil
	if m.catalog == nil {
		m.state = StateLoading
		cmds := []tea.Cmd{loadReference(m.client, m.cfg.Timeout)}
		if m.location != nil {
			cmds = append(cmds, m.startForecast(*m.location))
		}
		return m, tea.Batch(cmds...)
	}
	if m.location != nil {
		cmd := m.startForecast(*m.location)
		return m, cmd
	}
	return m.toSearch()
}

// startForecast replaces the current location and issues a new forecast
// query for it.
func (m *Model) startForecast(loc models.Location) tea.Cmd {
	m.querySeq++
	m.location = &loc
	m.pending = nil
	m.wx = models.WxSeries{}
	m.summaries = nil
	m.series = nil
	m.day = nil
	m.err = nil
	m.status = ""
	m.state = StateLoading
	m.search.Clear()
	m.searchInput.Blur()

	logger.Info("forecast query %d for %s (%.4f, %.4f)", m.querySeq, loc.Name, loc.Lat, loc.Lon)
	return tea.Batch(
		m.spinner.Tick,
		loadForecast(m.client, m.querySeq, loc, m.cfg.ForecastHours, m.cfg.SummaryDays, m.cfg.Timeout),
	)
}

// applyForecast aggregates a loaded forecast into display state.
func (m *Model) applyForecast(msg forecastLoadedMsg) {
	m.wx = msg.wx
	m.summaries = msg.summaries
	if err := m.rebuild(); err != nil {
		m.err = err
		m.state = StateError
		logger.Error("forecast query %d: %v", msg.seq, err)
		return
	}
	m.state = StateDisplay
}

// rebuild recomputes chart series and the day summary from the raw forecast
// with the current converter.
func (m *Model) rebuild() error {
	agg := forecast.NewAggregator(m.catalog, m.conv, m.cfg.DisplayMetrics)
	series, err := agg.Aggregate(m.wx)
	if err != nil {
		return fmt.Errorf("building charts: %w", err)
	}
	m.series = series

	m.day = nil
	day, err := forecast.SelectDay(m.summaries, 0, m.conv)
	switch {
	case errors.Is(err, forecast.ErrNoSummary):
	case err != nil:
		return fmt.Errorf("building summary: %w", err)
	default:
		m.day = &day
	}
	return nil
}

// toggleUnits switches between imperial and metric for this session.
func (m *Model) toggleUnits() {
	next := units.Metric
	if m.conv.System() == units.Metric {
		next = units.Imperial
	}
	m.conv = units.NewConverter(next)
	if m.catalog == nil {
		return
	}
	if err := m.rebuild(); err != nil {
		m.err = err
		m.state = StateError
	}
}

// refreshResults shows search options when a query is active and saved
// places otherwise.
func (m *Model) refreshResults() {
	if m.search.Query() == "" {
		m.resultList.SetItems(placeItems(m.savedPlaces))
		return
	}
	m.resultList.SetItems(locationItems(m.search.Options()))
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateSearch:
		return m.viewSearch()
	case StateLoading:
		return m.viewLoading()
	case StateDisplay:
		return m.viewDisplay()
	case StateError:
		return m.viewError()
	}

	return ""
}
