package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
)

type Application struct {
	ID          string
	ListingID   string
	ApplicantID string
	Message     string
	Status      ApplicationStatus
	CreatedAt   time.Time
}

// OwnerApplication is an application as seen by the listing owner.
// Services blank ApplicantPhone unless the owner may see it.
type OwnerApplication struct {
	Application
	ListingTitle           string
	ApplicantEmail         string
	ApplicantName          string
	ApplicantPhone         string
	ApplicantPhoneVerified bool
}
