package models

import "time"

type ContactStatus string

const (
	ContactPending  ContactStatus = "pending"
	ContactAccepted ContactStatus = "accepted"
	ContactDeclined ContactStatus = "declined"
)

type ContactRequest struct {
	ID          string
	RequesterID string
	TargetID    string
	ListingID   string
	Status      ContactStatus
	CreatedAt   time.Time
}

// IsParty reports whether userID is the requester or the target.
func (r *ContactRequest) IsParty(userID string) bool {
	return r.RequesterID == userID || r.TargetID == userID
}

// ContactInfo is what both parties see after an accepted exchange.
type ContactInfo struct {
	RequesterPhone string
	TargetPhone    string
}
