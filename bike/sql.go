package bike

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/civitech/bikesystem-backend/station"
)

var ErrNotFound = errors.New("bike not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetBikes(ctx context.Context) ([]Bike, error) {
	var bikes []Bike
	err := r.db.SelectContext(ctx, &bikes, getBikes)
	return bikes, err
}

const getBikes = `
SELECT b.*, count(t.id) AS num_trips
FROM bikes b
LEFT JOIN trips t ON t.bike_id = b.id
GROUP BY b.id
ORDER BY b.id ASC
`

func (r *Repository) GetBike(ctx context.Context, id int64) (Bike, error) {
	var bike Bike
	err := r.db.GetContext(ctx, &bike, getBike, id)
	if errors.Is(err, sql.ErrNoRows) {
		return bike, ErrNotFound
	}
	return bike, err
}

const getBike = `
SELECT b.*, count(t.id) AS num_trips
FROM bikes b
LEFT JOIN trips t ON t.bike_id = b.id
WHERE b.id = $1
GROUP BY b.id
`

// CreateBike inserts a bike docked at the given station. The station row is
// locked before the occupancy count so concurrent docks at the same station
// serialize; the insert only happens while occupancy < capacity.
func (r *Repository) CreateBike(ctx context.Context, b Bike) (Bike, error) {
	if b.CurrentStationID == nil {
		return Bike{}, station.ErrNotFound
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Bike{}, err
	}
	defer tx.Rollback()

	if err := checkDock(ctx, tx, *b.CurrentStationID, 0); err != nil {
		return Bike{}, err
	}

	var created Bike
	err = tx.GetContext(ctx, &created, createBike,
		b.Model, b.ManufacturedAt, b.Electric, b.CurrentStationID)
	if err != nil {
		return Bike{}, err
	}

	return created, tx.Commit()
}

const createBike = `
INSERT INTO bikes (model, manufactured_at, electric, current_station_id)
VALUES ($1, $2, $3, $4)
RETURNING *, 0 AS num_trips
`

// UpdateBike applies a partial update. Relocating the bike re-runs the
// capacity check against the target station, excluding the bike itself in
// case it is already counted there.
func (r *Repository) UpdateBike(ctx context.Context, id int64, patch Patch) (Bike, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Bike{}, err
	}
	defer tx.Rollback()

	var bike Bike
	err = tx.GetContext(ctx, &bike, getBikeForUpdate, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Bike{}, ErrNotFound
	}
	if err != nil {
		return Bike{}, err
	}

	if patch.CurrentStationID != nil {
		if err := checkDock(ctx, tx, *patch.CurrentStationID, bike.ID); err != nil {
			return Bike{}, err
		}
	}

	patch.Apply(&bike)

	err = tx.GetContext(ctx, &bike, updateBike,
		bike.ID, bike.Model, bike.ManufacturedAt, bike.Electric, bike.NeedsMaintenance, bike.CurrentStationID)
	if err != nil {
		return Bike{}, err
	}

	return bike, tx.Commit()
}

const getBikeForUpdate = `
SELECT b.*, (SELECT count(*) FROM trips t WHERE t.bike_id = b.id) AS num_trips
FROM bikes b WHERE b.id = $1
FOR UPDATE OF b
`

const updateBike = `
UPDATE bikes SET model = $2, manufactured_at = $3, electric = $4, needs_maintenance = $5, current_station_id = $6
WHERE id = $1
RETURNING *, (SELECT count(*) FROM trips t WHERE t.bike_id = bikes.id) AS num_trips
`

func (r *Repository) DeleteBike(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteBike, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const deleteBike = `DELETE FROM bikes WHERE id = $1`

// checkDock locks the station row, counts its occupancy excluding
// excludeBikeID, and applies the capacity policy.
func checkDock(ctx context.Context, tx *sqlx.Tx, stationID, excludeBikeID int64) error {
	var capacity int
	err := tx.GetContext(ctx, &capacity, lockStationCapacity, stationID)
	if errors.Is(err, sql.ErrNoRows) {
		return station.ErrNotFound
	}
	if err != nil {
		return err
	}

	var occupancy int
	err = tx.GetContext(ctx, &occupancy, countDocked, stationID, excludeBikeID)
	if err != nil {
		return err
	}

	if !station.CanDock(capacity, occupancy) {
		return station.ErrFull
	}
	return nil
}

const lockStationCapacity = `SELECT capacity FROM stations WHERE id = $1 FOR UPDATE`

const countDocked = `SELECT count(*) FROM bikes WHERE current_station_id = $1 AND id <> $2`
