package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/stratus-terminal/internal/forecast"
	"github.com/ngmaloney/stratus-terminal/internal/search"
)

var iconGlyphs = map[forecast.Icon]string{
	forecast.IconSunny:      "☀",
	forecast.IconCloudyHigh: "🌤",
	forecast.IconCloud:      "🌥",
	forecast.IconCloudy:     "☁",
	forecast.IconUnknown:    "👽",
}

// viewSearch renders the search view
func (m Model) viewSearch() string {
	title := titleStyle.Render("☁ Stratus")
	subtitle := mutedStyle.Render("Multi-model weather forecasts")

	searchBox := searchBoxStyle.Render(m.searchInput.View())

	var sections []string
	sections = append(sections, title, subtitle, "", searchBox)

	if status := m.searchStatus(); status != "" {
		sections = append(sections, status)
	}
	if m.status != "" {
		sections = append(sections, m.status)
	}

	if len(m.resultList.Items()) > 0 {
		sections = append(sections, "", m.resultList.View())
	}

	help := "↑/↓: Navigate • Enter: Select • Esc: Clear • Ctrl+C: Quit"
	if m.location != nil && m.series != nil {
		help = "↑/↓: Navigate • Enter: Select • Esc: Back to forecast • Ctrl+C: Quit"
	}
	sections = append(sections, helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// searchStatus describes the search controller's state under the input.
func (m Model) searchStatus() string {
	switch m.search.State() {
	case search.Debouncing, search.InFlight:
		return mutedStyle.Render("  Searching...")
	case search.Failed:
		return errorStyle.Padding(0, 2).Render("✗ " + m.search.Err().Error())
	case search.Applied:
		if len(m.search.Options()) == 0 {
			return mutedStyle.Render(fmt.Sprintf("  No locations found for %q", m.search.Query()))
		}
	case search.Idle:
		if q := strings.TrimSpace(m.search.Query()); q != "" {
			return mutedStyle.Render(fmt.Sprintf("  Type at least %d characters", m.cfg.SearchMinLength))
		}
		if len(m.savedPlaces) > 0 {
			return mutedStyle.Render("  Saved places")
		}
	}
	return ""
}

// viewLoading renders the loading view
func (m Model) viewLoading() string {
	s := "Loading forecast"
	if m.location != nil {
		s += fmt.Sprintf(" for %s", m.location.Name)
	}
	s += "..."

	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", m.spinner.View(), s), "")

	if m.catalog == nil {
		lines = append(lines, "⏳ Fetching forecast sources")
	} else {
		lines = append(lines, "✓ Forecast sources loaded")
	}
	if m.location == nil {
		lines = append(lines, "⏳ Resolving location")
	} else {
		lines = append(lines, "⏳ Fetching model runs and summary")
	}

	lines = append(lines, helpStyle.Render("Esc: Cancel • Ctrl+C: Quit"))
	return strings.Join(lines, "\n")
}

// viewDisplay renders the summary box above one chart per metric
func (m Model) viewDisplay() string {
	if m.location == nil {
		return "No location selected"
	}

	var sections []string

	header := headerStyle.Render(fmt.Sprintf("☁ %s", m.location.Name))
	sections = append(sections, header,
		mutedStyle.Render("  "+formatCoords(m.location.Lat, m.location.Lon)+" • "+m.conv.System().String()))

	sections = append(sections, m.renderSummary())

	chartWidth := m.width - 4
	for _, metricID := range m.series.MetricIDs() {
		metric, ok := m.catalog.Metric(metricID)
		if !ok {
			continue
		}
		_, unit, err := m.conv.Convert(0, metric.Units)
		if err != nil {
			unit = metric.Units
		}
		sections = append(sections, renderChart(metric, unit, m.series[metricID], chartWidth))
	}
	if len(m.series) == 0 {
		sections = append(sections, mutedStyle.Render("No forecast data available for this location"))
	}

	if m.status != "" {
		sections = append(sections, "", m.status)
	}

	help := "S: New search • R: Reload • U: Toggle units"
	if m.places != nil {
		help += " • Ctrl+S: Save place"
	}
	help += " • Q: Quit"
	sections = append(sections, helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSummary renders the single-day summary box
func (m Model) renderSummary() string {
	if m.day == nil {
		return summaryBoxStyle.Render(mutedStyle.Render("No summary available"))
	}
	d := m.day

	headline := iconGlyphs[d.Icon] + "  "
	if d.Cover != "" {
		headline += forecast.Capitalize(d.Cover)
	} else {
		headline += "Unknown"
	}
	if d.Current != nil {
		headline += "  " + valueStyle.Bold(true).Render(d.Current.String())
	}

	temps := fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("High"), highStyle.Render(d.High.String()),
		labelStyle.Render("Low"), lowStyle.Render(d.Low.String()))

	lines := []string{headline, temps}
	if narrative := strings.TrimSpace(d.Narrative); narrative != "" {
		width := min(max(m.width-10, 20), 76)
		lines = append(lines, "", lipgloss.NewStyle().Width(width).Render(narrative))
	}

	return summaryBoxStyle.Render(strings.Join(lines, "\n"))
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	var errorMsg string
	if m.err != nil {
		errorMsg = m.err.Error()
	} else {
		errorMsg = "An unknown error occurred"
	}

	help := helpStyle.Render("R: Retry • Any other key: Back to search • Q: Quit")

	var sections []string
	sections = append(sections, title)
	sections = append(sections, "")
	sections = append(sections, errorMsg)
	sections = append(sections, "")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
