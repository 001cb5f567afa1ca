// Package bike holds the fleet inventory and where each bike is docked.
package bike

import (
	"time"
)

// Bike is a fleet bike. CurrentStationID points at the station it was last
// docked at; it stays set while the bike is out on a trip and moves to the
// destination station when the trip ends.
type Bike struct {
	ID               int64     `db:"id"`
	Model            string    `db:"model"`
	ManufacturedAt   time.Time `db:"manufactured_at"`
	Electric         bool      `db:"electric"`
	NeedsMaintenance bool      `db:"needs_maintenance"`
	CurrentStationID *int64    `db:"current_station_id"`

	// NumTrips is populated by list/get queries.
	NumTrips int `db:"num_trips"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Model            *string    `json:"model"`
	ManufacturedAt   *time.Time `json:"manufactured_at"`
	Electric         *bool      `json:"electric"`
	CurrentStationID *int64     `json:"current_station_id"`
	NeedsMaintenance *bool      `json:"needs_maintenance"`
}

func (p Patch) Apply(b *Bike) {
	if p.Model != nil {
		b.Model = *p.Model
	}
	if p.ManufacturedAt != nil {
		b.ManufacturedAt = *p.ManufacturedAt
	}
	if p.Electric != nil {
		b.Electric = *p.Electric
	}
	if p.CurrentStationID != nil {
		id := *p.CurrentStationID
		b.CurrentStationID = &id
	}
	if p.NeedsMaintenance != nil {
		b.NeedsMaintenance = *p.NeedsMaintenance
	}
}
