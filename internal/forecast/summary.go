package forecast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ngmaloney/stratus-terminal/internal/models"
	"github.com/ngmaloney/stratus-terminal/internal/units"
)

// Icon is a weather-icons key for a cloud cover classification.
type Icon string

const (
	IconSunny      Icon = "wi-day-sunny"
	IconCloudyHigh Icon = "wi-day-cloudy-high"
	IconCloud      Icon = "wi-cloud"
	IconCloudy     Icon = "wi-cloudy"
	IconUnknown    Icon = "wi-alien"
)

var coverIcons = map[string]Icon{
	"clear":         IconSunny,
	"mostly clear":  IconSunny,
	"partly cloudy": IconCloudyHigh,
	"mostly cloudy": IconCloud,
	"cloudy":        IconCloudy,
}

// IconFor maps a cloud cover classification to its icon. Unknown
// classifications get IconUnknown.
func IconFor(cover string) Icon {
	if icon, ok := coverIcons[strings.ToLower(strings.TrimSpace(cover))]; ok {
		return icon
	}
	return IconUnknown
}

// Reading is a converted value with its display unit
type Reading struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// String formats the reading, e.g. "72°F" or "29.53 inHg".
func (r Reading) String() string {
	v := strconv.FormatFloat(r.Value, 'f', -1, 64)
	if r.Unit == "F" || r.Unit == "C" {
		return v + "°" + r.Unit
	}
	return v + " " + r.Unit
}

// DayView is the single-day summary shown above the charts
type DayView struct {
	Cover     string   `json:"cover"`
	Icon      Icon     `json:"icon"`
	Current   *Reading `json:"current,omitempty"` // nil when the summary carries no temperatures
	High      Reading  `json:"high"`
	Low       Reading  `json:"low"`
	Narrative string   `json:"narrative"`
}

// SelectDay projects summaries[day] into a DayView with temperatures in the
// converter's unit system.
func SelectDay(summaries []models.DailySummary, day int, conv units.Converter) (DayView, error) {
	if day < 0 || day >= len(summaries) {
		return DayView{}, fmt.Errorf("%w: %d of %d", ErrNoSummary, day, len(summaries))
	}
	s := summaries[day]

	view := DayView{Icon: IconUnknown}
	if len(s.CloudCover) > 0 {
		view.Cover = s.CloudCover[0].Cover
		view.Icon = IconFor(view.Cover)
	}

	if len(s.Temps) > 0 {
		cur, err := kelvin(conv, s.Temps[0].Temperature)
		if err != nil {
			return DayView{}, fmt.Errorf("current temperature: %w", err)
		}
		view.Current = &cur
	}

	var err error
	if view.High, err = kelvin(conv, s.High.Temperature); err != nil {
		return DayView{}, fmt.Errorf("high temperature: %w", err)
	}
	if view.Low, err = kelvin(conv, s.Low.Temperature); err != nil {
		return DayView{}, fmt.Errorf("low temperature: %w", err)
	}

	view.Narrative = ComposeNarrative(s.Summary.Components)
	return view, nil
}

func kelvin(conv units.Converter, v any) (Reading, error) {
	val, unit, err := conv.ConvertValue(v, "K")
	if err != nil {
		return Reading{}, err
	}
	return Reading{Value: val, Unit: unit}, nil
}

// ComposeNarrative joins component texts, each followed by a single space,
// capitalizing the first component only.
func ComposeNarrative(components []models.NarrativeComponent) string {
	var b strings.Builder
	for i, c := range components {
		text := c.Text
		if i == 0 {
			text = Capitalize(text)
		}
		b.WriteString(text)
		b.WriteByte(' ')
	}
	return b.String()
}

// Capitalize upper-cases the first letter of s and leaves the rest as is.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.English).String(string(r)) + s[size:]
}
