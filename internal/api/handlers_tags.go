package api

import (
	"fmt"
	"net/http"

	"github.com/mwantia/gotagger/internal/dataset"
)

type tagColorRequest struct {
	Background string `json:"bg"`
	Foreground string `json:"text"`
}

type tagRequest struct {
	Name  string          `json:"name"`
	Color tagColorRequest `json:"color"`
}

type saveTagsRequest struct {
	Filenames []string     `json:"filenames"`
	Tags      []tagRequest `json:"tags"`
}

type saveTagsResponse struct {
	Message string `json:"message"`
	*dataset.SaveReport
}

func (s *Server) handleSaveTags(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	var req saveTagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Tags == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "filenames and tags are required"})
		return
	}

	tags := make([]dataset.TagInput, 0, len(req.Tags))
	for _, tag := range req.Tags {
		tags = append(tags, dataset.TagInput{
			Name:       tag.Name,
			Background: tag.Color.Background,
			Foreground: tag.Color.Foreground,
		})
	}

	report, err := session.SaveTags(r.Context(), req.Filenames, tags)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveTagsResponse{
		Message:    fmt.Sprintf("Tags for %d images saved successfully.", len(report.Saved)),
		SaveReport: report,
	})
}

func (s *Server) handleTagSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	summary, err := session.TagSummary(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type updateColorRequest struct {
	TagName    string `json:"tagName"`
	Background string `json:"bcolor"`
	Foreground string `json:"fcolor"`
}

func (s *Server) handleUpdateTagColor(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	var req updateColorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := session.UpdateTagColor(r.Context(), req.TagName, req.Background, req.Foreground); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Tag color updated."})
}

type deleteTagResponse struct {
	Message  string `json:"message"`
	Affected int    `json:"affected"`
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	name, err := pathParam(r, "tagName")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	affected, err := session.DeleteTag(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteTagResponse{
		Message:  fmt.Sprintf("Tag \"%s\" was removed from %d images.", name, affected),
		Affected: affected,
	})
}

type batchRequest struct {
	Action string   `json:"action"`
	Tags   []string `json:"tags"`
}

type batchResponse struct {
	Message string `json:"message"`
	*dataset.BatchReport
}

func (s *Server) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}

	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	action, err := dataset.ParseAction(req.Action)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := session.BatchProcess(r.Context(), action, req.Tags)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Message:     fmt.Sprintf("%d images were affected and updated.", report.Affected),
		BatchReport: report,
	})
}
