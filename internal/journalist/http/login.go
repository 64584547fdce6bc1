package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
)

// LoginHandler exchanges a username/passphrase/token triple for a session.
type LoginHandler struct {
	AuthService *service.AuthService
	Sessions    *Sessions
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type loginResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	IsAdmin      bool      `json:"is_admin"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.AuthService.Authenticate(r.Context(), req.Username, req.Password, req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, expiresAt, err := h.Sessions.Issue(user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		SessionToken: token,
		ExpiresAt:    expiresAt,
		UserID:       user.ID,
		IsAdmin:      user.IsAdmin,
	})
}
