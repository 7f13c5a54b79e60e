package models

import "time"

// Location is a place forecasts can be requested for.
// It can be a search candidate, a resolved location or a saved place.
type Location struct {
	ID   int     `json:"id"` // 0 when resolved by coordinates
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Place is a user-saved named location
type Place struct {
	ID         int64     `json:"id"`          // Database primary key (0 if not saved)
	Name       string    `json:"name"`        // User-friendly name
	LocationID int       `json:"location_id"` // API location id (0 for coordinate-only places)
	Label      string    `json:"label"`       // Resolved location name
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CreatedAt  time.Time `json:"created_at"`
}

// Location converts the place back into a forecast location.
func (p Place) Location() Location {
	return Location{
		ID:   p.LocationID,
		Name: p.Label,
		Lat:  p.Latitude,
		Lon:  p.Longitude,
	}
}
