package neosocial

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/session"
)

// Sentinel errors. Every typed error below matches exactly one of these
// through errors.Is, so callers can branch without type assertions.
var (
	// ErrNotFound is returned when zero records match where exactly one was expected.
	ErrNotFound = errors.New("record not found")
	// ErrValidation marks input rejected before any query was issued.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks a failure of the graph store itself.
	ErrStore = errors.New("store execution failed")
	// ErrInconsistentState marks a half-present edge pair.
	ErrInconsistentState = errors.New("inconsistent graph state")
	// ErrForbidden is returned when the actor may not perform the transition.
	ErrForbidden = errors.New("forbidden")
)

// NotFoundError describes which entity was missing.
type NotFoundError struct {
	Label string
	ID    string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Label)
	}
	return fmt.Sprintf("%s %q not found", e.Label, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError carries the offending field and a readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StoreError wraps a driver or query failure together with the operation
// that issued it. The query text is kept for logs only.
type StoreError struct {
	Op    string
	Query string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// InconsistentStateError reports that only one edge of a forward/mirror pair
// was present when an exit transition ran.
type InconsistentStateError struct {
	Interaction string
	ActorID     string
	TargetID    string
	Forward     int64
	Mirror      int64
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("%s between %s and %s: %d forward edge(s), %d mirror edge(s)",
		e.Interaction, e.ActorID, e.TargetID, e.Forward, e.Mirror)
}

func (e *InconsistentStateError) Is(target error) bool { return target == ErrInconsistentState }

func storeErr(op, query string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Query: query, Err: err}
}

// StatusCode maps an error returned by this package to the HTTP status an
// API layer should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to a client. Store and
// consistency failures collapse to a generic text; the detail belongs in logs.
func PublicMessage(err error) string {
	switch StatusCode(err) {
	case http.StatusOK:
		return ""
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}
