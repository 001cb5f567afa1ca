package trip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/civitech/bikesystem-backend/bike"
	"github.com/civitech/bikesystem-backend/rider"
	"github.com/civitech/bikesystem-backend/station"
)

var (
	ErrNotFound  = errors.New("trip not found")
	ErrBikeInUse = errors.New("bike already on an active trip")
	ErrEnded     = errors.New("trip already ended")
)

type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithClock replaces the timestamp source. Tests use this for deterministic
// start/end times.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func (r *Repository) GetTrips(ctx context.Context) ([]Detail, error) {
	var trips []Detail
	err := r.db.SelectContext(ctx, &trips, getTrips)
	return trips, err
}

const getTrips = `
SELECT t.*, r.name AS rider_name, os.name AS origination_station, ds.name AS destination_station
FROM trips t
JOIN riders r ON r.id = t.rider_id
JOIN stations os ON os.id = t.origination_station_id
LEFT JOIN stations ds ON ds.id = t.destination_station_id
ORDER BY t.id ASC
`

func (r *Repository) GetTrip(ctx context.Context, id int64) (Detail, error) {
	var t Detail
	err := r.db.GetContext(ctx, &t, getTrip, id)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

const getTrip = `
SELECT t.*, r.name AS rider_name, os.name AS origination_station, ds.name AS destination_station
FROM trips t
JOIN riders r ON r.id = t.rider_id
JOIN stations os ON os.id = t.origination_station_id
LEFT JOIN stations ds ON ds.id = t.destination_station_id
WHERE t.id = $1
`

// StartTrip checks a bike out for a rider. The bike row is locked before the
// active-trip check so two concurrent starts for the same bike serialize:
// exactly one inserts, the other sees the fresh active trip and fails with
// ErrBikeInUse. The origination station is captured from the bike's current
// dock; the bike's current_station_id is left in place until the trip ends.
func (r *Repository) StartTrip(ctx context.Context, riderID, bikeID int64) (Trip, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Trip{}, err
	}
	defer tx.Rollback()

	var stationID sql.NullInt64
	err = tx.GetContext(ctx, &stationID, lockBikeStation, bikeID)
	if errors.Is(err, sql.ErrNoRows) {
		return Trip{}, bike.ErrNotFound
	}
	if err != nil {
		return Trip{}, err
	}

	var riderExists bool
	err = tx.GetContext(ctx, &riderExists, riderExistsQuery, riderID)
	if err != nil {
		return Trip{}, err
	}
	if !riderExists {
		return Trip{}, rider.ErrNotFound
	}

	var active bool
	err = tx.GetContext(ctx, &active, hasActiveTrip, bikeID)
	if err != nil {
		return Trip{}, err
	}
	if active {
		return Trip{}, ErrBikeInUse
	}

	var t Trip
	err = tx.GetContext(ctx, &t, startTrip, riderID, bikeID, stationID, r.now())
	if err != nil {
		return Trip{}, err
	}

	return t, tx.Commit()
}

const lockBikeStation = `SELECT current_station_id FROM bikes WHERE id = $1 FOR UPDATE`

const riderExistsQuery = `SELECT EXISTS (SELECT 1 FROM riders WHERE id = $1)`

const hasActiveTrip = `SELECT EXISTS (SELECT 1 FROM trips WHERE bike_id = $1 AND end_time IS NULL)`

const startTrip = `
INSERT INTO trips (rider_id, bike_id, origination_station_id, start_time)
VALUES ($1, $2, $3, $4)
RETURNING *
`

// EndTrip docks the bike at the destination station and closes the trip.
// The trip row, the bike row, and the destination station row are locked
// before the occupancy count, so concurrent dock attempts at a station near
// capacity serialize and the station never overflows. Trip and bike updates
// commit together or not at all.
func (r *Repository) EndTrip(ctx context.Context, tripID, destinationStationID int64) (Detail, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Detail{}, err
	}
	defer tx.Rollback()

	var t Trip
	err = tx.GetContext(ctx, &t, lockTrip, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}
	if !t.Active() {
		return Detail{}, ErrEnded
	}

	// Lock order is bike then station wherever a transaction touches both.
	var lockedBike int64
	err = tx.GetContext(ctx, &lockedBike, lockBike, t.BikeID)
	if err != nil {
		return Detail{}, err
	}

	var capacity int
	err = tx.GetContext(ctx, &capacity, lockStationCapacity, destinationStationID)
	if errors.Is(err, sql.ErrNoRows) {
		return Detail{}, station.ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}

	var occupancy int
	err = tx.GetContext(ctx, &occupancy, countDockedExcluding, destinationStationID, t.BikeID)
	if err != nil {
		return Detail{}, err
	}
	if !station.CanDock(capacity, occupancy) {
		return Detail{}, station.ErrFull
	}

	_, err = tx.ExecContext(ctx, endTrip, t.ID, destinationStationID, r.now())
	if err != nil {
		return Detail{}, err
	}
	_, err = tx.ExecContext(ctx, dockBike, t.BikeID, destinationStationID)
	if err != nil {
		return Detail{}, err
	}

	var ended Detail
	err = tx.GetContext(ctx, &ended, getTrip, t.ID)
	if err != nil {
		return Detail{}, err
	}

	return ended, tx.Commit()
}

const lockTrip = `SELECT * FROM trips WHERE id = $1 FOR UPDATE`

const lockBike = `SELECT id FROM bikes WHERE id = $1 FOR UPDATE`

const lockStationCapacity = `SELECT capacity FROM stations WHERE id = $1 FOR UPDATE`

const countDockedExcluding = `SELECT count(*) FROM bikes WHERE current_station_id = $1 AND id <> $2`

const endTrip = `UPDATE trips SET end_time = $3, destination_station_id = $2 WHERE id = $1`

const dockBike = `UPDATE bikes SET current_station_id = $2 WHERE id = $1`
