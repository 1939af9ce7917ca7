package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/mwantia/gotagger/internal/dataset"
)

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	// Unparsable values fall back to the defaults
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := session.ListImages(r.Context(), page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImageTags(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	filename, err := pathParam(r, "filename")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tags, err := session.ImageTags(r.Context(), filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type imageListResponse struct {
	Data []dataset.ImageSummary `json:"data"`
}

func (s *Server) handleImagesByTag(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	name, err := pathParam(r, "tagName")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	images, err := session.ImagesByTag(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imageListResponse{Data: images})
}

type renameRequest struct {
	NewName string `json:"newName"`
}

type renameResponse struct {
	Message     string `json:"message"`
	NewFilename string `json:"newFilename"`
}

func (s *Server) handleRenameImage(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	filename, err := pathParam(r, "filename")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	newFilename, err := session.Rename(r.Context(), filename, req.NewName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renameResponse{
		Message:     "File renamed successfully.",
		NewFilename: newFilename,
	})
}

type deleteImagesRequest struct {
	Filenames []string `json:"filenames"`
}

type deleteImagesResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	*dataset.DeleteReport
}

func (s *Server) handleDeleteImages(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	var req deleteImagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := session.DeleteImages(r.Context(), req.Filenames)
	if err != nil {
		if report == nil {
			s.writeError(w, err)
			return
		}
		// Rows are gone already; report which files are left behind
		s.log.Error("Failed to remove some files: %v", err)
		writeJSON(w, http.StatusInternalServerError, deleteImagesResponse{
			Error:        err.Error(),
			DeleteReport: report,
		})
		return
	}

	writeJSON(w, http.StatusOK, deleteImagesResponse{
		Message:      fmt.Sprintf("%d image(s) and associated files have been deleted.", len(report.Deleted)),
		DeleteReport: report,
	})
}

type uploadResponse struct {
	Message string `json:"message"`
	*dataset.UploadReport
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	limit := s.cfg.MaxUploadMB << 20
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid upload: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	files := make([]dataset.UploadFile, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			s.writeError(w, fmt.Errorf("failed to read upload '%s': %w", header.Filename, err))
			return
		}
		defer file.Close()

		files = append(files, dataset.UploadFile{Name: header.Filename, Reader: file})
	}

	report, err := session.Upload(r.Context(), files)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:      fmt.Sprintf("%d images uploaded and added to database.", len(report.Uploaded)),
		UploadReport: report,
	})
}

// handleServeImage serves image files of the active dataset. Sidecars and
// the index file are never exposed.
func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		http.Error(w, "No dataset selected", http.StatusNotFound)
		return
	}

	name, err := pathParam(r, "*")
	if err != nil || name == "" || name != filepath.Base(name) || !dataset.IsImage(name) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(session.Root(), name))
}
