package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

type updateMeRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type setPhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"max=32"`
}

type phoneVerificationRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	user, err := a.svc.Users.Me(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (a *API) UpdateMe(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[updateMeRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := a.svc.Users.UpdateProfile(r.Context(), UserID(r.Context()), req.FullName)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[changePasswordRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.svc.Users.ChangePassword(r.Context(), UserID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) GetPhone(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Users.GetPhone(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhone(st))
}

func (a *API) SetPhone(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[setPhoneRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	st, err := a.svc.Users.SetPhone(r.Context(), UserID(r.Context()), req.PhoneNumber)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhone(st))
}

func (a *API) SetPhoneVerification(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[phoneVerificationRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	st, err := a.svc.Users.SetPhoneVerified(r.Context(), UserID(r.Context()), mux.Vars(r)["id"], *req.Verified)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhone(st))
}
