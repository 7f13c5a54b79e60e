package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ngmaloney/stratus-terminal/internal/models"
)

// locationItem wraps a search candidate for use in a list
type locationItem struct {
	loc models.Location
}

// FilterValue implements list.Item
func (l locationItem) FilterValue() string {
	return l.loc.Name
}

// Title implements list.DefaultItem
func (l locationItem) Title() string {
	return l.loc.Name
}

// Description implements list.DefaultItem
func (l locationItem) Description() string {
	return formatCoords(l.loc.Lat, l.loc.Lon)
}

// placeItem wraps a saved place for use in a list
type placeItem struct {
	place models.Place
}

// FilterValue implements list.Item
func (p placeItem) FilterValue() string {
	return p.place.Name
}

// Title implements list.DefaultItem
func (p placeItem) Title() string {
	return "★ " + p.place.Name
}

// Description implements list.DefaultItem
func (p placeItem) Description() string {
	desc := formatCoords(p.place.Latitude, p.place.Longitude)
	if p.place.Label != "" && p.place.Label != p.place.Name {
		desc = p.place.Label + " • " + desc
	}
	return desc
}

func formatCoords(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", lat, ns, lon, ew)
}

// createLocationList creates the list shown under the search box. Key
// handling stays with the model so typing never reaches the list.
func createLocationList(width, height int) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return l
}

func locationItems(locs []models.Location) []list.Item {
	items := make([]list.Item, len(locs))
	for i, loc := range locs {
		items[i] = locationItem{loc: loc}
	}
	return items
}

func placeItems(places []models.Place) []list.Item {
	items := make([]list.Item, len(places))
	for i, p := range places {
		items[i] = placeItem{place: p}
	}
	return items
}
