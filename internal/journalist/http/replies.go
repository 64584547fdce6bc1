package http

import (
	"encoding/json"
	"net/http"

	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
)

// RepliesHandler dispatches encrypted replies and lists reply history.
type RepliesHandler struct {
	ReplyService *service.ReplyService
}

// HandleSend encrypts the message to the collection's key and records it.
func (h *RepliesHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	journalistID := httpx.UserIDFromCtx(r.Context())
	reply, err := h.ReplyService.Send(r.Context(), journalistID, r.PathValue("fsid"), req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, replyResponse{
		Filename:     reply.Filename,
		JournalistID: reply.JournalistID,
		CreatedAt:    reply.CreatedAt,
	})
}

// HandleList returns the replies previously sent to a collection.
func (h *RepliesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	replies, err := h.ReplyService.History(r.Context(), r.PathValue("fsid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]replyResponse, 0, len(replies))
	for _, reply := range replies {
		out = append(out, replyResponse{
			Filename:     reply.Filename,
			JournalistID: reply.JournalistID,
			CreatedAt:    reply.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
