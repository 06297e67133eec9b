package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/services"
	"github.com/gorilla/mux"
)

type createListingRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Location    string `json:"location" validate:"max=200"`
	Rooms       int    `json:"rooms" validate:"gte=1"`
	Rent        int    `json:"rent" validate:"gte=0"`
}

type applyRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type contactRequestRequest struct {
	// TargetID defaults to the listing owner.
	TargetID string `json:"target_id"`
}

func (a *API) CreateListing(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[createListingRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	l, err := a.svc.Listings.Create(r.Context(), UserID(r.Context()), services.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Rooms:       req.Rooms,
		Rent:        req.Rent,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListing(l))
}

func (a *API) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	offset, err := intParam(q.Get("skip"), "skip")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	list, err := a.svc.Listings.List(r.Context(), q.Get("location"), limit, offset)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toListing))
}

func (a *API) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := a.svc.Listings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListing(l))
}

func (a *API) Apply(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[applyRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	app, err := a.svc.Applications.Apply(r.Context(), UserID(r.Context()), mux.Vars(r)["id"], req.Message)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplication(app))
}

func (a *API) RequestContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequestRequest
	if r.ContentLength != 0 {
		var err error
		if req, err = DecodeValidBody[contactRequestRequest](w, r); err != nil {
			a.writeError(w, r, err)
			return
		}
	}

	listingID := mux.Vars(r)["id"]
	if req.TargetID == "" {
		l, err := a.svc.Listings.Get(r.Context(), listingID)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		req.TargetID = l.OwnerID
	}

	cr, err := a.svc.Contacts.Request(r.Context(), UserID(r.Context()), req.TargetID, listingID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactRequest(cr))
}

func (a *API) MyApplications(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Applications.ListMine(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toApplication))
}

func (a *API) OwnerApplications(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Applications.ListForOwner(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toOwnerApplication))
}

func (a *API) AcceptApplication(w http.ResponseWriter, r *http.Request) {
	app, err := a.svc.Applications.Accept(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplication(app))
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.InvalidArgument(name + " must be an integer")
	}
	return n, nil
}
