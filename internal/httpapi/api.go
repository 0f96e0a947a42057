package httpapi

import (
	"net/http"

	"caredesk.io/internal/auth"
	"caredesk.io/internal/obs"
	"caredesk.io/internal/patient"
)

const defaultMaxBodyBytes = 1 << 20

// Config wires the API's collaborators. The signing secret lives inside
// Tokens; the API itself holds no mutable state shared between requests.
type Config struct {
	ReadyProbe ReadyProbe
	Version    string
	Accounts   *auth.Service
	Tokens     *auth.Tokens
	Patients   patient.Store

	// PatientReadPolicy applies to GET /patient and GET /patient/{id}.
	// Fixed per deployment; either Public or Authenticated.
	PatientReadPolicy Policy
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	accounts   *auth.Service
	tokens     *auth.Tokens
	patients   patient.Store
	readPolicy Policy

	maxBodyBytes int64
}

func New(cfg Config) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   cfg.ReadyProbe,
		version:      cfg.Version,
		accounts:     cfg.Accounts,
		tokens:       cfg.Tokens,
		patients:     cfg.Patients,
		readPolicy:   cfg.PatientReadPolicy,
		maxBodyBytes: defaultMaxBodyBytes,
	}

	// Credential flows
	a.mux.HandleFunc("/user", a.handleRegister)
	a.mux.HandleFunc("/login", a.handleLogin)

	// Patient resource
	a.mux.HandleFunc("/patient", a.handlePatientCollection)
	a.mux.HandleFunc("/patient/", a.handlePatientResource)

	// health/ready/metrics
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the server handler with the full middleware chain applied.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RequestLogger(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}
