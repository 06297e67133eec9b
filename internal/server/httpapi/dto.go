package httpapi

import (
	"time"

	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/services"
)

type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	PhoneNumber   string    `json:"phone_number"`
	PhoneVerified bool      `json:"phone_verified"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUser(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		PhoneNumber:   u.PhoneNumber,
		PhoneVerified: u.PhoneVerified,
		IsAdmin:       u.IsAdmin,
		CreatedAt:     u.CreatedAt,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func toTokens(p *services.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: "bearer"}
}

type phoneResponse struct {
	PhoneNumber   string `json:"phone_number"`
	PhoneVerified bool   `json:"phone_verified"`
}

func toPhone(p *services.PhoneStatus) phoneResponse {
	return phoneResponse{PhoneNumber: p.PhoneNumber, PhoneVerified: p.PhoneVerified}
}

type listingResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Rooms       int       `json:"rooms"`
	Rent        int       `json:"rent"`
	CreatedAt   time.Time `json:"created_at"`
}

func toListing(l *models.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Description: l.Description,
		Location:    l.Location,
		Rooms:       l.Rooms,
		Rent:        l.Rent,
		CreatedAt:   l.CreatedAt,
	}
}

type applicationResponse struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"apartment_id"`
	ApplicantID string    `json:"applicant_id"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toApplication(a *models.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		ListingID:   a.ListingID,
		ApplicantID: a.ApplicantID,
		Message:     a.Message,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
	}
}

type ownerApplicationResponse struct {
	applicationResponse
	ListingTitle   string `json:"apartment_title"`
	ApplicantEmail string `json:"applicant_email"`
	ApplicantName  string `json:"applicant_name"`
	// empty unless the owner may see it
	ApplicantPhone string `json:"applicant_phone,omitempty"`
}

func toOwnerApplication(a *models.OwnerApplication) ownerApplicationResponse {
	return ownerApplicationResponse{
		applicationResponse: toApplication(&a.Application),
		ListingTitle:        a.ListingTitle,
		ApplicantEmail:      a.ApplicantEmail,
		ApplicantName:       a.ApplicantName,
		ApplicantPhone:      a.ApplicantPhone,
	}
}

type contactRequestResponse struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	TargetID    string    `json:"target_id"`
	ListingID   string    `json:"apartment_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toContactRequest(c *models.ContactRequest) contactRequestResponse {
	return contactRequestResponse{
		ID:          c.ID,
		RequesterID: c.RequesterID,
		TargetID:    c.TargetID,
		ListingID:   c.ListingID,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
	}
}

type contactInfoResponse struct {
	RequesterPhone string `json:"requester_phone"`
	TargetPhone    string `json:"target_phone"`
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotification(n *models.Notification) notificationResponse {
	return notificationResponse{ID: n.ID, Message: n.Message, Read: n.Read, CreatedAt: n.CreatedAt}
}

func mapAll[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
