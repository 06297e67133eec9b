package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/services"
	"github.com/gorilla/mux"
)

// Services are the business components the API delegates to.
type Services struct {
	Auth          *services.AuthGateway
	Tokens        *services.TokenService
	Users         *services.UserService
	Listings      *services.ListingService
	Applications  *services.ApplicationService
	Contacts      *services.ContactService
	Notifications *services.NotificationService
}

type API struct {
	svc        Services
	log        logging.Logger
	trustProxy bool
}

// New builds the API. With trustProxy set, the client IP used for rate
// limiting is taken from the first X-Forwarded-For hop.
func New(svc Services, log logging.Logger, trustProxy bool) *API {
	return &API{svc: svc, log: log.With("module", "httpapi"), trustProxy: trustProxy}
}

// Router wires every route.
func (a *API) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(a.recoverer, a.accessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", a.Health).Methods(http.MethodGet)

	ar := r.PathPrefix("/auth").Subrouter()
	ar.HandleFunc("/register", a.Register).Methods(http.MethodPost)
	ar.HandleFunc("/token", a.Login).Methods(http.MethodPost)
	ar.HandleFunc("/refresh", a.Refresh).Methods(http.MethodPost)
	ar.HandleFunc("/forgot-password", a.ForgotPassword).Methods(http.MethodPost)
	ar.HandleFunc("/verify-reset-code", a.VerifyResetCode).Methods(http.MethodPost)
	ar.HandleFunc("/reset-password", a.ResetPassword).Methods(http.MethodPost)

	// everything below needs a session
	pr := r.NewRoute().Subrouter()
	pr.Use(a.requireSession)

	pr.HandleFunc("/users/me", a.Me).Methods(http.MethodGet)
	pr.HandleFunc("/users/me", a.UpdateMe).Methods(http.MethodPatch)
	pr.HandleFunc("/users/me/password", a.ChangePassword).Methods(http.MethodPost)
	pr.HandleFunc("/users/me/phone", a.GetPhone).Methods(http.MethodGet)
	pr.HandleFunc("/users/me/phone", a.SetPhone).Methods(http.MethodPut)

	pr.HandleFunc("/apartments", a.CreateListing).Methods(http.MethodPost)
	pr.HandleFunc("/apartments", a.ListListings).Methods(http.MethodGet)
	pr.HandleFunc("/apartments/{id}", a.GetListing).Methods(http.MethodGet)
	pr.HandleFunc("/apartments/{id}/apply", a.Apply).Methods(http.MethodPost)
	pr.HandleFunc("/apartments/{id}/contact-requests", a.RequestContact).Methods(http.MethodPost)

	pr.HandleFunc("/applications/mine", a.MyApplications).Methods(http.MethodGet)
	pr.HandleFunc("/applications/owner", a.OwnerApplications).Methods(http.MethodGet)
	pr.HandleFunc("/applications/{id}/accept", a.AcceptApplication).Methods(http.MethodPost)

	pr.HandleFunc("/contact-requests/incoming", a.IncomingContacts).Methods(http.MethodGet)
	pr.HandleFunc("/contact-requests/outgoing", a.OutgoingContacts).Methods(http.MethodGet)
	pr.HandleFunc("/contact-requests/{id}/accept", a.AcceptContact).Methods(http.MethodPost)
	pr.HandleFunc("/contact-requests/{id}/decline", a.DeclineContact).Methods(http.MethodPost)
	pr.HandleFunc("/contact-requests/{id}/contact", a.ContactInfo).Methods(http.MethodGet)

	pr.HandleFunc("/notifications", a.Notifications).Methods(http.MethodGet)
	pr.HandleFunc("/notifications/{id}/read", a.MarkNotificationRead).Methods(http.MethodPost)

	pr.HandleFunc("/admin/users/{id}/phone-verification", a.SetPhoneVerification).Methods(http.MethodPut)

	return r
}

func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
