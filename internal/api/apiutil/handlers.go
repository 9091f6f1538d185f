package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/api/authz"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// HandlerError carries an HTTP status and caller-facing message across
// transaction boundaries; Err keeps the internal cause for logging only.
type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError emits the uniform {"error": ...} body used by every endpoint.
func WriteError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, map[string]string{"error": message})
}

// RequireAuthenticated writes a 401 and returns nil when no principal is on
// the request; otherwise it returns the principal.
func RequireAuthenticated(w http.ResponseWriter, r *http.Request) *authz.Principal {
	p := authz.PrincipalFromContext(r.Context())
	if p == nil {
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil
	}
	return p
}

// RequireStaff enforces the staff/admin gate and writes the response on
// failure. It reports whether the request may proceed.
func RequireStaff(w http.ResponseWriter, r *http.Request) bool {
	logger := log.Ctx(r.Context())
	p := authz.PrincipalFromContext(r.Context())
	if err := authz.RequireRole(r.Context(), "staff", "admin"); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logger.Warn().Msg("Staff access denied: unauthenticated")
			WriteError(w, http.StatusUnauthorized, "Unauthorized. Staff access required.")
		case errors.Is(err, authz.ErrForbidden):
			logEvent := logger.Warn()
			if p != nil {
				logEvent = logEvent.Int64("user_id", p.UserID).Str("role", p.Role)
			}
			logEvent.Msg("Staff access denied: forbidden")
			WriteError(w, http.StatusForbidden, "Unauthorized. Staff access required.")
		default:
			logger.Error().Err(err).Msg("Staff access denied: error")
			WriteError(w, http.StatusInternalServerError, "Failed to authorize request")
		}
		return false
	}
	return true
}
