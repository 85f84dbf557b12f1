package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ferdagulay/apps-challenge/pkg/zip"
)

// DownloadSession serves all artifacts of one session directory as a zip
// archive. The id is the session directory name as reported by the create
// call.
func (a *App) DownloadSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validSessionID(id) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid session id")
		return
	}
	dir := filepath.Join(a.OutputDir, id)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	archive, err := zip.ArchiveDir(dir)
	if err != nil {
		a.Logger.Error().Err(err).Str("session", id).Msg("archive build failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// validSessionID accepts only directory names the store produces, keeping
// path traversal out of the archive route.
func validSessionID(id string) bool {
	if !strings.HasPrefix(id, "session_") {
		return false
	}
	return !strings.ContainsAny(id, "/\\") && !strings.Contains(id, "..")
}
