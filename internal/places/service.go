// Package places manages saved, named forecast locations.
package places

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngmaloney/stratus-terminal/internal/api"
	"github.com/ngmaloney/stratus-terminal/internal/models"
)

// Service orchestrates place operations
type Service struct {
	repo     *Repository
	resolver api.LocationClient
}

// NewService creates a place service. resolver may be nil when places are
// only saved from already resolved locations.
func NewService(repo *Repository, resolver api.LocationClient) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// SaveLocation saves an already resolved location under name
func (s *Service) SaveLocation(name string, loc models.Location) (*models.Place, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = loc.Name
	}
	if name == "" {
		return nil, fmt.Errorf("place name is required")
	}

	place := &models.Place{
		Name:       name,
		LocationID: loc.ID,
		Label:      loc.Name,
		Latitude:   loc.Lat,
		Longitude:  loc.Lon,
	}
	if err := s.repo.SavePlace(place); err != nil {
		return nil, err
	}
	return place, nil
}

// CreatePlace resolves a location id with the server and saves it
func (s *Service) CreatePlace(ctx context.Context, name string, locationID int) (*models.Place, error) {
	if s.resolver == nil {
		return nil, fmt.Errorf("no location resolver configured")
	}
	loc, err := s.resolver.Location(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("resolving location %d: %w", locationID, err)
	}
	return s.SaveLocation(name, loc)
}

// CreatePlaceAt names a point after its nearest location and saves it
func (s *Service) CreatePlaceAt(ctx context.Context, name string, lat, lon float64) (*models.Place, error) {
	if s.resolver == nil {
		return nil, fmt.Errorf("no location resolver configured")
	}
	loc, err := s.resolver.LocationByCoords(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("resolving %.4f,%.4f: %w", lat, lon, err)
	}
	return s.SaveLocation(name, loc)
}

// Resolve returns the forecast location of a saved place
func (s *Service) Resolve(name string) (models.Location, error) {
	p, err := s.repo.GetPlace(name)
	if err != nil {
		return models.Location{}, err
	}
	return p.Location(), nil
}

func (s *Service) ListPlaces() ([]models.Place, error) {
	return s.repo.ListPlaces()
}

func (s *Service) DeletePlace(name string) error {
	return s.repo.DeletePlace(name)
}
