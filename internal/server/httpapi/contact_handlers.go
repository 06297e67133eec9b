package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) IncomingContacts(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Contacts.ListIncoming(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toContactRequest))
}

func (a *API) OutgoingContacts(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Contacts.ListOutgoing(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toContactRequest))
}

func (a *API) AcceptContact(w http.ResponseWriter, r *http.Request) {
	cr, err := a.svc.Contacts.Accept(r.Context(), mux.Vars(r)["id"], UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactRequest(cr))
}

func (a *API) DeclineContact(w http.ResponseWriter, r *http.Request) {
	cr, err := a.svc.Contacts.Decline(r.Context(), mux.Vars(r)["id"], UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactRequest(cr))
}

func (a *API) ContactInfo(w http.ResponseWriter, r *http.Request) {
	info, err := a.svc.Contacts.GetContactInfo(r.Context(), mux.Vars(r)["id"], UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactInfoResponse{RequesterPhone: info.RequesterPhone, TargetPhone: info.TargetPhone})
}

func (a *API) Notifications(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Notifications.List(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toNotification))
}

func (a *API) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Notifications.MarkRead(r.Context(), UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
