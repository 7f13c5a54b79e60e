package models

// TempPoint is a temperature in Kelvin. Temperature holds the raw decoded
// value and is nil when the payload omits it.
type TempPoint struct {
	Temperature any `json:"temperature"`
}

// CloudCoverPoint is a cloud cover classification, e.g. "partly cloudy"
type CloudCoverPoint struct {
	Cover string `json:"cover"`
}

// NarrativeComponent is one piece of composed summary text
type NarrativeComponent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Narrative holds the ordered components of a day's summary sentence
type Narrative struct {
	Components []NarrativeComponent `json:"components"`
}

// DailySummary is one entry of the /wx/summarize payload
type DailySummary struct {
	Temps      []TempPoint       `json:"temps"`
	High       TempPoint         `json:"high"`
	Low        TempPoint         `json:"low"`
	CloudCover []CloudCoverPoint `json:"cloud_cover"`
	Summary    Narrative         `json:"summary"`
}
