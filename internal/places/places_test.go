package places

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/stratus-terminal/internal/models"
)

type fakeResolver struct {
	locations map[int]models.Location
}

func (f fakeResolver) SearchLocations(ctx context.Context, query string) ([]models.Location, error) {
	return nil, nil
}

func (f fakeResolver) Location(ctx context.Context, id int) (models.Location, error) {
	loc, ok := f.locations[id]
	if !ok {
		return models.Location{}, errors.New("Error: 404 Not Found")
	}
	return loc, nil
}

func (f fakeResolver) LocationByCoords(ctx context.Context, lat, lon float64) (models.Location, error) {
	return models.Location{Name: "Near Boston, MA", Lat: lat, Lon: lon}, nil
}

var boston = models.Location{ID: 7, Name: "Boston, MA", Lat: 42.36, Lon: -71.06}

func newService(t *testing.T) *Service {
	t.Helper()
	repo := NewRepository(filepath.Join(t.TempDir(), "data", "stratus.db"))
	return NewService(repo, fakeResolver{locations: map[int]models.Location{7: boston}})
}

func TestRepository_RoundTrip(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "stratus.db"))

	place := &models.Place{Name: "home", LocationID: 7, Label: "Boston, MA", Latitude: 42.36, Longitude: -71.06}
	require.NoError(t, repo.SavePlace(place))
	assert.NotZero(t, place.ID)
	assert.False(t, place.CreatedAt.IsZero())

	got, err := repo.GetPlace("home")
	require.NoError(t, err)
	assert.Equal(t, place.ID, got.ID)
	assert.Equal(t, boston, got.Location())

	require.NoError(t, repo.DeletePlace("home"))
	_, err = repo.GetPlace("home")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpsertByName(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "stratus.db"))

	first := &models.Place{Name: "cabin", Label: "Boulder, CO", Latitude: 40.01, Longitude: -105.27}
	require.NoError(t, repo.SavePlace(first))

	second := &models.Place{Name: "cabin", LocationID: 9, Label: "Aspen, CO", Latitude: 39.19, Longitude: -106.82}
	require.NoError(t, repo.SavePlace(second))
	assert.Equal(t, first.ID, second.ID)

	places, err := repo.ListPlaces()
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Aspen, CO", places[0].Label)
	assert.Equal(t, 9, places[0].LocationID)
}

func TestRepository_ListOrderedByName(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "stratus.db"))

	for _, name := range []string{"work", "cabin", "home"} {
		require.NoError(t, repo.SavePlace(&models.Place{Name: name, Label: name}))
	}

	places, err := repo.ListPlaces()
	require.NoError(t, err)
	var names []string
	for _, p := range places {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"cabin", "home", "work"}, names)
}

func TestRepository_DeleteMissing(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "stratus.db"))
	assert.ErrorIs(t, repo.DeletePlace("nowhere"), ErrNotFound)
}

func TestService_CreatePlace(t *testing.T) {
	svc := newService(t)

	place, err := svc.CreatePlace(context.Background(), "home", 7)
	require.NoError(t, err)
	assert.Equal(t, "Boston, MA", place.Label)

	loc, err := svc.Resolve("home")
	require.NoError(t, err)
	assert.Equal(t, boston, loc)

	_, err = svc.CreatePlace(context.Background(), "nowhere", 404)
	assert.ErrorContains(t, err, "404")
}

func TestService_CreatePlaceAt(t *testing.T) {
	svc := newService(t)

	place, err := svc.CreatePlaceAt(context.Background(), "", 42.4, -71.1)
	require.NoError(t, err)
	assert.Equal(t, "Near Boston, MA", place.Name, "name defaults to the location label")
	assert.Zero(t, place.LocationID)
	assert.Equal(t, 42.4, place.Latitude)
}

func TestService_SaveLocationRequiresName(t *testing.T) {
	svc := newService(t)
	_, err := svc.SaveLocation("  ", models.Location{})
	assert.Error(t, err)
}

func TestService_NoResolver(t *testing.T) {
	svc := NewService(NewRepository(filepath.Join(t.TempDir(), "stratus.db")), nil)

	_, err := svc.CreatePlace(context.Background(), "home", 7)
	assert.Error(t, err)

	place, err := svc.SaveLocation("home", boston)
	require.NoError(t, err)
	assert.NotZero(t, place.ID)

	list, err := svc.ListPlaces()
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, svc.DeletePlace("home"))
}
