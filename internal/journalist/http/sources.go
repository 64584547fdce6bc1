package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
)

// SourcesHandler serves the collection index and per-collection actions.
type SourcesHandler struct {
	Collections *service.CollectionService
}

type sourceResponse struct {
	FilesystemID  string    `json:"filesystem_id"`
	Designation   string    `json:"designation"`
	Flagged       bool      `json:"flagged"`
	Starred       bool      `json:"starred"`
	UnreadCount   int       `json:"unread_count"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type submissionResponse struct {
	Filename   string    `json:"filename"`
	Downloaded bool      `json:"downloaded"`
	CreatedAt  time.Time `json:"created_at"`
}

type replyResponse struct {
	Filename     string    `json:"filename"`
	JournalistID string    `json:"journalist_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type collectionResponse struct {
	Source      sourceResponse       `json:"source"`
	Submissions []submissionResponse `json:"submissions"`
	Replies     []replyResponse      `json:"replies"`
}

// HandleList returns every non-pending collection, most recent activity first.
func (h *SourcesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Collections.ListSources(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]sourceResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, sourceResponse{
			FilesystemID:  s.FilesystemID,
			Designation:   s.Designation,
			Flagged:       s.Flagged,
			Starred:       s.Starred,
			UnreadCount:   s.UnreadCount,
			LastUpdatedAt: s.LastUpdatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one collection with its submissions and reply history.
func (h *SourcesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	col, err := h.Collections.GetCollection(r.Context(), r.PathValue("fsid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := collectionResponse{
		Source: sourceResponse{
			FilesystemID:  col.Source.FilesystemID,
			Designation:   col.Source.Designation,
			Flagged:       col.Source.Flagged,
			Starred:       col.Starred,
			LastUpdatedAt: col.Source.LastUpdatedAt,
		},
		Submissions: make([]submissionResponse, 0, len(col.Submissions)),
		Replies:     make([]replyResponse, 0, len(col.Replies)),
	}
	for _, sub := range col.Submissions {
		if !sub.Downloaded {
			resp.Source.UnreadCount++
		}
		resp.Submissions = append(resp.Submissions, submissionResponse{
			Filename:   sub.Filename,
			Downloaded: sub.Downloaded,
			CreatedAt:  sub.CreatedAt,
		})
	}
	for _, reply := range col.Replies {
		resp.Replies = append(resp.Replies, replyResponse{
			Filename:     reply.Filename,
			JournalistID: reply.JournalistID,
			CreatedAt:    reply.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleStar stars or unstars a collection.
func (h *SourcesHandler) HandleStar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Starred bool `json:"starred"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.Collections.SetStar(r.Context(), r.PathValue("fsid"), req.Starred); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"starred": req.Starred})
}

// HandleFlag flags or unflags a collection for reply.
func (h *SourcesHandler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flagged bool `json:"flagged"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.Collections.SetFlagged(r.Context(), r.PathValue("fsid"), req.Flagged); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"flagged": req.Flagged})
}

// HandleRename rotates the collection's designation and renames its stored
// material to match. A designation in the body pins the new name; otherwise
// one is generated.
func (h *SourcesHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Designation string `json:"designation"`
	}
	// An empty body means "generate one for me".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidBody(w)
		return
	}

	src, err := h.Collections.Rename(r.Context(), r.PathValue("fsid"), req.Designation)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"filesystem_id": src.FilesystemID,
		"designation":   src.Designation,
	})
}

// HandleDelete removes the collection. The response returns as soon as the
// records and keypair are gone; physical erasure continues in the background.
func (h *SourcesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	handle, err := h.Collections.Delete(r.Context(), r.PathValue("fsid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"task_id": handle.ID})
}

// HandleDeleteSubmissions removes selected submissions from a collection.
func (h *SourcesHandler) HandleDeleteSubmissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filenames []string `json:"filenames"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	handles, err := h.Collections.DeleteSubmissions(r.Context(), r.PathValue("fsid"), req.Filenames)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]int{"deleted": len(handles)})
}
