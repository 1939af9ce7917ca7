package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mwantia/gotagger/internal/dataset"
)

type pickFolderResponse struct {
	Canceled bool   `json:"canceled"`
	Path     string `json:"path,omitempty"`
}

func (s *Server) handlePickFolder(w http.ResponseWriter, r *http.Request) {
	if s.picker == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "no folder picker available"})
		return
	}

	path, err := s.picker.PickFolder(r.Context())
	if err != nil {
		if errors.Is(err, ErrPickCanceled) {
			writeJSON(w, http.StatusOK, pickFolderResponse{Canceled: true})
			return
		}
		s.log.Error("Failed to open folder picker: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to open system dialog"})
		return
	}

	writeJSON(w, http.StatusOK, pickFolderResponse{Path: path})
}

type openDatasetRequest struct {
	FolderPath string `json:"folderPath"`
}

type openDatasetResponse struct {
	Message string              `json:"message"`
	Path    string              `json:"path"`
	Report  *dataset.SyncReport `json:"report"`
}

func (s *Server) handleOpenDataset(w http.ResponseWriter, r *http.Request) {
	var req openDatasetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := s.manager.Open(r.Context(), req.FolderPath)
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, ok := s.session(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, openDatasetResponse{
		Message: fmt.Sprintf("Synchronized: %d added, %d removed.", report.Added, report.Removed),
		Path:    session.Root(),
		Report:  report,
	})
}
