package http

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// ExportHandler builds bulk download archives and serves submission files.
type ExportHandler struct {
	ExportService *service.ExportService
}

// HandleExport archives submissions across the selected collections. Scope
// "unread" takes only not-yet-downloaded material, "all" takes everything.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope   string   `json:"scope"`
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	var archive string
	var err error
	switch req.Scope {
	case "unread":
		archive, err = h.ExportService.ExportUnread(r.Context(), req.Sources)
	case "all":
		archive, err = h.ExportService.ExportAll(r.Context(), req.Sources)
	default:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_scope",
			`Scope must be "unread" or "all".`)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	serveAttachment(w, r, archive, "application/zip")
}

// HandleExportSelected archives named submissions from one collection.
func (h *ExportHandler) HandleExportSelected(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filenames []string `json:"filenames"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	archive, err := h.ExportService.ExportSelected(r.Context(), r.PathValue("fsid"), req.Filenames)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	serveAttachment(w, r, archive, "application/zip")
}

// HandleDownload serves a single submission and marks it downloaded.
func (h *ExportHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	path, err := h.ExportService.DownloadSubmission(r.Context(), r.PathValue("fsid"), r.PathValue("filename"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	serveAttachment(w, r, path, "application/pgp-encrypted")
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer f.Close()

	httpx.NoCache(w)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)

	if _, err := io.Copy(w, f); err != nil {
		// Headers are already out; all we can do is log the broken transfer.
		slogx.FromContext(r.Context()).Warn("download interrupted", "file", filepath.Base(path))
	}
}
