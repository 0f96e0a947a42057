package patient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field bounds mirror the storage schema (varchar(256) / varchar(15)).
const (
	MaxNameLen     = 256
	MaxDocumentLen = 15
)

// Patient is a registry record. ID is assigned by the store at creation and
// immutable afterwards. Document is a national ID or similar; no checksum
// validation is performed.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound = errors.New("patient: not found")

	// ErrNoRowsAffected signals a write that changed nothing. Reported to
	// callers as a generic bad request, never with storage internals.
	ErrNoRowsAffected = errors.New("patient: write affected no rows")
)

// ValidationError reports structural input failures per field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("patient: validation failed: %s", strings.Join(names, ", "))
}

// Validate checks the caller-supplied fields. Identical rules apply on create
// and update.
func (p *Patient) Validate() *ValidationError {
	verr := NewValidationError()
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		verr.Add("name", "name is required")
	case len(p.Name) > MaxNameLen:
		verr.Add("name", fmt.Sprintf("name must not exceed %d characters", MaxNameLen))
	}
	document := strings.TrimSpace(p.Document)
	switch {
	case document == "":
		verr.Add("document", "document is required")
	case len(p.Document) > MaxDocumentLen:
		verr.Add("document", fmt.Sprintf("document must not exceed %d characters", MaxDocumentLen))
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
