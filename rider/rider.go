// Package rider holds the people who take trips on fleet bikes.
package rider

// Rider is a person who takes trips on fleet bikes.
type Rider struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Address    string `db:"address"`
	Membership bool   `db:"membership"`

	// NumTrips is populated by list/get queries.
	NumTrips int `db:"num_trips"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Address    *string `json:"address"`
	Membership *bool   `json:"membership"`
}

func (p Patch) Apply(r *Rider) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Membership != nil {
		r.Membership = *p.Membership
	}
}
