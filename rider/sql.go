package rider

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("rider not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetRiders(ctx context.Context) ([]Rider, error) {
	var riders []Rider
	err := r.db.SelectContext(ctx, &riders, getRiders)
	return riders, err
}

const getRiders = `
SELECT r.*, count(t.id) AS num_trips
FROM riders r
LEFT JOIN trips t ON t.rider_id = r.id
GROUP BY r.id
ORDER BY r.id ASC
`

func (r *Repository) GetRider(ctx context.Context, id int64) (Rider, error) {
	var rider Rider
	err := r.db.GetContext(ctx, &rider, getRider, id)
	if errors.Is(err, sql.ErrNoRows) {
		return rider, ErrNotFound
	}
	return rider, err
}

const getRider = `
SELECT r.*, count(t.id) AS num_trips
FROM riders r
LEFT JOIN trips t ON t.rider_id = r.id
WHERE r.id = $1
GROUP BY r.id
`

func (r *Repository) CreateRider(ctx context.Context, rd Rider) (Rider, error) {
	var created Rider
	err := r.db.GetContext(ctx, &created, createRider, rd.Name, rd.Email, rd.Address, rd.Membership)
	return created, err
}

const createRider = `
INSERT INTO riders (name, email, address, membership)
VALUES ($1, $2, $3, $4)
RETURNING *, 0 AS num_trips
`

func (r *Repository) UpdateRider(ctx context.Context, id int64, patch Patch) (Rider, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rider{}, err
	}
	defer tx.Rollback()

	var rider Rider
	err = tx.GetContext(ctx, &rider, getRiderForUpdate, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Rider{}, ErrNotFound
	}
	if err != nil {
		return Rider{}, err
	}

	patch.Apply(&rider)

	err = tx.GetContext(ctx, &rider, updateRider,
		rider.ID, rider.Name, rider.Email, rider.Address, rider.Membership)
	if err != nil {
		return Rider{}, err
	}

	return rider, tx.Commit()
}

const getRiderForUpdate = `
SELECT r.*, (SELECT count(*) FROM trips t WHERE t.rider_id = r.id) AS num_trips
FROM riders r WHERE r.id = $1
FOR UPDATE OF r
`

const updateRider = `
UPDATE riders SET name = $2, email = $3, address = $4, membership = $5
WHERE id = $1
RETURNING *, (SELECT count(*) FROM trips t WHERE t.rider_id = riders.id) AS num_trips
`

// DeleteRider removes a rider together with that rider's trips. The cascade
// is explicit so both deletes commit or roll back as one.
func (r *Repository) DeleteRider(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked int64
	err = tx.GetContext(ctx, &locked, lockRider, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, deleteRiderTrips, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteRider, id); err != nil {
		return err
	}

	return tx.Commit()
}

const lockRider = `SELECT id FROM riders WHERE id = $1 FOR UPDATE`
const deleteRiderTrips = `DELETE FROM trips WHERE rider_id = $1`
const deleteRider = `DELETE FROM riders WHERE id = $1`
