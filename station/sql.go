package station

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("station not found")
	ErrFull     = errors.New("station is full")
	ErrInUse    = errors.New("station has docked bikes or trips")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetStations(ctx context.Context) ([]Station, error) {
	var stations []Station
	err := r.db.SelectContext(ctx, &stations, getStations)
	return stations, err
}

const getStations = `
SELECT s.*, count(b.id) AS num_bikes
FROM stations s
LEFT JOIN bikes b ON b.current_station_id = s.id
GROUP BY s.id
ORDER BY s.id ASC
`

func (r *Repository) GetStation(ctx context.Context, id int64) (Station, error) {
	var station Station
	err := r.db.GetContext(ctx, &station, getStation, id)
	if errors.Is(err, sql.ErrNoRows) {
		return station, ErrNotFound
	}
	return station, err
}

const getStation = `
SELECT s.*, count(b.id) AS num_bikes
FROM stations s
LEFT JOIN bikes b ON b.current_station_id = s.id
WHERE s.id = $1
GROUP BY s.id
`

func (r *Repository) CreateStation(ctx context.Context, s Station) (Station, error) {
	var created Station
	err := r.db.GetContext(ctx, &created, createStation, s.Name, s.Capacity, s.Latitude, s.Longitude)
	return created, err
}

const createStation = `
INSERT INTO stations (name, capacity, latitude, longitude)
VALUES ($1, $2, $3, $4)
RETURNING *, 0 AS num_bikes
`

func (r *Repository) UpdateStation(ctx context.Context, id int64, patch Patch) (Station, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Station{}, err
	}
	defer tx.Rollback()

	var station Station
	err = tx.GetContext(ctx, &station, getStationForUpdate, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	if err != nil {
		return Station{}, err
	}

	patch.Apply(&station)

	err = tx.GetContext(ctx, &station, updateStation,
		station.ID, station.Name, station.Capacity, station.Latitude, station.Longitude, station.Active)
	if err != nil {
		return Station{}, err
	}

	return station, tx.Commit()
}

const getStationForUpdate = `
SELECT s.*, (SELECT count(*) FROM bikes b WHERE b.current_station_id = s.id) AS num_bikes
FROM stations s WHERE s.id = $1
FOR UPDATE OF s
`

const updateStation = `
UPDATE stations SET name = $2, capacity = $3, latitude = $4, longitude = $5, active = $6
WHERE id = $1
RETURNING *, (SELECT count(*) FROM bikes b WHERE b.current_station_id = stations.id) AS num_bikes
`

// DeleteStation removes a station. Stations with docked bikes or referenced
// by trips are refused rather than cascading.
func (r *Repository) DeleteStation(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked int64
	err = tx.GetContext(ctx, &locked, lockStation, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var referenced bool
	err = tx.GetContext(ctx, &referenced, stationReferenced, id)
	if err != nil {
		return err
	}
	if referenced {
		return ErrInUse
	}

	_, err = tx.ExecContext(ctx, deleteStation, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const lockStation = `SELECT id FROM stations WHERE id = $1 FOR UPDATE`

const stationReferenced = `
SELECT EXISTS (SELECT 1 FROM bikes WHERE current_station_id = $1)
    OR EXISTS (SELECT 1 FROM trips WHERE origination_station_id = $1 OR destination_station_id = $1)
`

const deleteStation = `DELETE FROM stations WHERE id = $1`
