// Package trip owns the trip lifecycle: a trip is created Active when a
// rider checks out a bike and becomes immutable once ended at a destination
// station.
package trip

import (
	"database/sql"
	"time"
)

// Trip records one rider taking one bike between stations. A trip is active
// while EndTime is null; at most one trip per bike is active at any time.
type Trip struct {
	ID                   int64         `db:"id"`
	RiderID              int64         `db:"rider_id"`
	BikeID               int64         `db:"bike_id"`
	OriginationStationID int64         `db:"origination_station_id"`
	DestinationStationID sql.NullInt64 `db:"destination_station_id"`
	StartTime            time.Time     `db:"start_time"`
	EndTime              sql.NullTime  `db:"end_time"`
}

// Active reports whether the trip is still underway.
func (t Trip) Active() bool {
	return !t.EndTime.Valid
}

// Detail is a trip with the denormalized names the API responses carry.
type Detail struct {
	Trip
	RiderName              string         `db:"rider_name"`
	OriginationStationName string         `db:"origination_station"`
	DestinationStationName sql.NullString `db:"destination_station"`
}
