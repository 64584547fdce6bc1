package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
)

// UsersHandler covers administrative account management plus the self-service
// password change.
type UsersHandler struct {
	AccountService *service.AccountService
}

type userResponse struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	IsAdmin      bool       `json:"is_admin"`
	OTPKind      string     `json:"otp_kind"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// enrolledUserResponse additionally carries the shared secret, returned only
// from create and second-factor reset responses so the operator can enroll
// the user's device.
type enrolledUserResponse struct {
	userResponse
	OTPSecret string `json:"otp_secret"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Username:     u.Username,
		IsAdmin:      u.IsAdmin,
		OTPKind:      string(u.OTPKind),
		LastAccessAt: u.LastAccessAt,
		CreatedAt:    u.CreatedAt,
	}
}

// HandleList returns all accounts.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.AccountService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate provisions a new journalist account.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username      string `json:"username"`
		Password      string `json:"password"`
		PasswordAgain string `json:"password_again"`
		IsAdmin       bool   `json:"is_admin"`
		HOTPSecret    string `json:"hotp_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.AccountService.CreateUser(r.Context(),
		req.Username, req.Password, req.PasswordAgain, req.IsAdmin, req.HOTPSecret)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, enrolledUserResponse{
		userResponse: toUserResponse(user),
		OTPSecret:    user.OTPSecret,
	})
}

// HandleGet returns one account.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.AccountService.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete removes an account.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.AccountService.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetUsername renames an account.
func (h *UsersHandler) HandleSetUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.AccountService.SetUsername(r.Context(), r.PathValue("id"), req.Username); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"username": req.Username})
}

// HandleSetAdmin grants or revokes administrator access.
func (h *UsersHandler) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.AccountService.SetAdmin(r.Context(), r.PathValue("id"), req.IsAdmin); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"is_admin": req.IsAdmin})
}

// HandleSetPassword sets another user's passphrase (admin operation).
func (h *UsersHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	h.setPassword(w, r, r.PathValue("id"))
}

// HandleSetOwnPassword changes the calling user's passphrase.
func (h *UsersHandler) HandleSetOwnPassword(w http.ResponseWriter, r *http.Request) {
	h.setPassword(w, r, httpx.UserIDFromCtx(r.Context()))
}

func (h *UsersHandler) setPassword(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Password      string `json:"password"`
		PasswordAgain string `json:"password_again"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.AccountService.UpdatePassword(r.Context(), userID, req.Password, req.PasswordAgain); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetTOTP regenerates a time-based second factor.
func (h *UsersHandler) HandleResetTOTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.AccountService.ResetTOTP(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, enrolledUserResponse{
		userResponse: toUserResponse(user),
		OTPSecret:    user.OTPSecret,
	})
}

// HandleResetHOTP installs an operator-supplied event-based secret.
func (h *UsersHandler) HandleResetHOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.AccountService.ResetHOTP(r.Context(), r.PathValue("id"), req.Secret)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, enrolledUserResponse{
		userResponse: toUserResponse(user),
		OTPSecret:    user.OTPSecret,
	})
}

// HandleVerifyToken confirms a user's enrolled device with one code.
func (h *UsersHandler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	ok, err := h.AccountService.VerifyToken(r.Context(), r.PathValue("id"), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
