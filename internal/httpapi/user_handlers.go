package httpapi

import (
	"errors"
	"net/http"
	"time"

	"caredesk.io/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Subject   string    `json:"subject"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	creds, err := a.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleCredentialError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     creds.Token,
		ExpiresAt: creds.ExpiresAt,
		Subject:   creds.Subject,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	creds, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleCredentialError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     creds.Token,
		ExpiresAt: creds.ExpiresAt,
		Subject:   creds.Subject,
	})
}

// handleCredentialError maps register/login failures onto the HTTP surface.
// Everything caller-induced is a 400; the invalid-credentials message never
// reveals whether the email exists.
func handleCredentialError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, r, verr.Fields)
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, r, http.StatusBadRequest, "email is already registered")
	case errors.Is(err, auth.ErrLockedOut):
		writeError(w, r, http.StatusBadRequest, "account is temporarily locked")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, "email or password is invalid")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
