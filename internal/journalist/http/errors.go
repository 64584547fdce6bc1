package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// writeServiceError translates service-layer errors into API responses. The
// default branch deliberately returns a generic message: internal detail goes
// to the log, classification only.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var throttled *service.ThrottledError

	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "No such resource.")
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists", "That name is taken.")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
			"Login failed. Check username, passphrase and two-factor code.")
	case errors.As(err, &throttled):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(throttled.RetryAfter.Seconds())+1))
		httpx.WriteError(w, http.StatusTooManyRequests, "login_throttled",
			"Too many failed login attempts. Please wait before trying again.")
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_"+verr.Field, verr.Reason)
	case errors.Is(err, service.ErrEmptySelection):
		httpx.WriteError(w, http.StatusBadRequest, "empty_selection",
			"No items were selected.")
	case errors.Is(err, service.ErrPasswordMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "password_mismatch",
			"The passphrases do not match.")
	case errors.Is(err, service.ErrInvalidPasswordLength):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_password_length",
			"Passphrase length is out of bounds.")
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			"path", r.URL.Path, "error_type", fmt.Sprintf("%T", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Something went wrong.")
	}
}

func writeInvalidBody(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
}
