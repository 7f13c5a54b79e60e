package places

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/stratus-terminal/internal/database"
	"github.com/ngmaloney/stratus-terminal/internal/models"
)

// ErrNotFound is returned when no place has the requested name
var ErrNotFound = errors.New("place not found")

// Repository handles persistence for saved places
type Repository struct {
	dbPath string
}

// NewRepository creates a repository backed by the database at dbPath
func NewRepository(dbPath string) *Repository {
	return &Repository{dbPath: dbPath}
}

// SavePlace inserts the place, or replaces the place with the same name
func (r *Repository) SavePlace(place *models.Place) error {
	db, err := database.Open(r.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	query := `
		INSERT INTO places (name, location_id, label, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			location_id = excluded.location_id,
			label = excluded.label,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			created_at = excluded.created_at
		RETURNING id
	`

	if place.CreatedAt.IsZero() {
		place.CreatedAt = time.Now().UTC()
	}

	err = db.QueryRow(query,
		place.Name,
		place.LocationID,
		place.Label,
		place.Latitude,
		place.Longitude,
		place.CreatedAt,
	).Scan(&place.ID)
	if err != nil {
		return fmt.Errorf("saving place: %w", err)
	}

	return nil
}

// ListPlaces retrieves all saved places ordered by name
func (r *Repository) ListPlaces() ([]models.Place, error) {
	db, err := database.Open(r.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT id, name, location_id, label, latitude, longitude, created_at FROM places ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}

	return places, rows.Err()
}

// GetPlace retrieves a place by name
func (r *Repository) GetPlace(name string) (*models.Place, error) {
	db, err := database.Open(r.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	row := db.QueryRow("SELECT id, name, location_id, label, latitude, longitude, created_at FROM places WHERE name = ?", name)
	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlace removes a place by name
func (r *Repository) DeletePlace(name string) error {
	db, err := database.Open(r.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.Exec("DELETE FROM places WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting place: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting place: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(s scanner) (models.Place, error) {
	var p models.Place
	if err := s.Scan(&p.ID, &p.Name, &p.LocationID, &p.Label, &p.Latitude, &p.Longitude, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning place: %w", err)
	}
	return p, nil
}
