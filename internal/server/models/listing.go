package models

import "time"

// Listing is an apartment offered by its creator.
type Listing struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Location    string
	Rooms       int
	Rent        int
	CreatedAt   time.Time
}
