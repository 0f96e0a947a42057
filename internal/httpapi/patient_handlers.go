package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"caredesk.io/internal/auth"
	"caredesk.io/internal/obs"
	"caredesk.io/internal/patient"
)

type patientRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Active   bool   `json:"active"`
}

func (a *API) handlePatientCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.authorize(w, r, a.readPolicy); !ok {
			return
		}
		a.listPatients(w, r)
	case http.MethodPost:
		principal, ok := a.authorize(w, r, Authenticated)
		if !ok {
			return
		}
		a.createPatient(w, r, principal)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePatientResource(w http.ResponseWriter, r *http.Request) {
	// The gate runs before the identifier is even parsed: a caller without
	// the required claim gets 403, never a 404 probe response.
	var (
		principal auth.Principal
		ok        bool
	)
	switch r.Method {
	case http.MethodGet:
		principal, ok = a.authorize(w, r, a.readPolicy)
	case http.MethodPut:
		principal, ok = a.authorize(w, r, Authenticated)
	case http.MethodDelete:
		principal, ok = a.authorize(w, r, HasClaim(auth.ClaimDeletePatient))
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		return
	}
	if !ok {
		return
	}

	id, ok := patientID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getPatient(w, r, id)
	case http.MethodPut:
		a.updatePatient(w, r, id, principal)
	case http.MethodDelete:
		a.deletePatient(w, r, id, principal)
	}
}

func (a *API) listPatients(w http.ResponseWriter, r *http.Request) {
	list, err := a.patients.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getPatient(w http.ResponseWriter, r *http.Request, id string) {
	p, err := a.patients.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "patient not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) createPatient(w http.ResponseWriter, r *http.Request, principal auth.Principal) {
	var req patientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p := patient.Patient{Name: req.Name, Document: req.Document, Active: req.Active}
	if verr := p.Validate(); verr != nil {
		writeValidationError(w, r, verr.Fields)
		return
	}

	if err := a.patients.Create(r.Context(), &p); err != nil {
		handlePatientWriteError(w, r, err)
		return
	}
	obs.L().Info("patient created",
		zap.String("patient_id", p.ID),
		zap.String("subject", principal.Subject),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	w.Header().Set("Location", fmt.Sprintf("/patient/%s", p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) updatePatient(w http.ResponseWriter, r *http.Request, id string, principal auth.Principal) {
	// Existence first, then validation (stale read accepted: the subsequent
	// write is not bound to this check, so concurrent updates are
	// last-writer-wins).
	exists, err := a.patients.Exists(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !exists {
		writeError(w, r, http.StatusNotFound, "patient not found")
		return
	}

	var req patientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// The path id governs the stored identifier; any id in the payload is
	// ignored.
	p := patient.Patient{ID: id, Name: req.Name, Document: req.Document, Active: req.Active}
	if verr := p.Validate(); verr != nil {
		writeValidationError(w, r, verr.Fields)
		return
	}

	if err := a.patients.Update(r.Context(), &p); err != nil {
		handlePatientWriteError(w, r, err)
		return
	}
	obs.L().Info("patient updated",
		zap.String("patient_id", id),
		zap.String("subject", principal.Subject),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deletePatient(w http.ResponseWriter, r *http.Request, id string, principal auth.Principal) {
	exists, err := a.patients.Exists(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !exists {
		writeError(w, r, http.StatusNotFound, "patient not found")
		return
	}

	if err := a.patients.Delete(r.Context(), id); err != nil {
		handlePatientWriteError(w, r, err)
		return
	}
	obs.L().Info("patient deleted",
		zap.String("patient_id", id),
		zap.String("subject", principal.Subject),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

// patientID extracts and validates the record identifier from the path.
// Malformed ids cannot name a record, so they surface as not-found.
func patientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimPrefix(r.URL.Path, "/patient/")
	raw = strings.Trim(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "patient not found")
		return "", false
	}
	return id.String(), true
}

func handlePatientWriteError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, patient.ErrNoRowsAffected) {
		writeError(w, r, http.StatusBadRequest, "there was a problem saving the record")
		return
	}
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
