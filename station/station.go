// Package station holds docking stations and the capacity policy deciding
// whether a station can accept one more bike.
package station

// Station is a dock where bikes are parked between trips.
type Station struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	Capacity  int     `db:"capacity"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	Active    bool    `db:"active"`

	// NumBikes is the current occupancy, populated by list/get queries.
	NumBikes int `db:"num_bikes"`
}

// CanDock reports whether a station with the given capacity can accept one
// more bike. Docking is allowed only while occupancy < capacity.
func CanDock(capacity, occupancy int) bool {
	return occupancy < capacity
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name      *string  `json:"name"`
	Capacity  *int     `json:"capacity"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Active    *bool    `json:"active"`
}

func (p Patch) Apply(s *Station) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Capacity != nil {
		s.Capacity = *p.Capacity
	}
	if p.Latitude != nil {
		s.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = *p.Longitude
	}
	if p.Active != nil {
		s.Active = *p.Active
	}
}
