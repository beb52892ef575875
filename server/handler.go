package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"stockbuddy/core"
	"stockbuddy/lib/sl"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing; larger
// files spill to disk before the pipeline's own size check runs.
const maxMultipartMemory = 32 << 20

type promtResponse struct {
	Reply    string  `json:"reply"`
	ImageURL *string `json:"imageUrl"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Detail   string `json:"detail,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func (s *Server) handlePromt(w http.ResponseWriter, r *http.Request) {
	ownerId := r.Header.Get("X-User-Id")
	if ownerId == "" {
		ownerId = "anonymous"
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "File upload error",
			Detail: err.Error(),
		})
		return
	}
	content := r.FormValue("content")

	upload, err := s.saveUpload(r)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  "File upload error",
			Detail: err.Error(),
		})
		return
	}

	reply, err := s.service.Send(r.Context(), ownerId, content, upload)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var imageURL *string
	if reply.ImageURL != "" {
		imageURL = &reply.ImageURL
	}
	s.writeJSON(w, http.StatusOK, promtResponse{Reply: reply.Text, ImageURL: imageURL})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ownerId := r.Header.Get("X-User-Id")
	if ownerId == "" {
		ownerId = "anonymous"
	}

	turns, err := s.service.History(r.Context(), ownerId)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  "Failed to load history",
			Detail: err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, turns)
}

// saveUpload writes the multipart file field to a request-scoped temp file.
// The pipeline owns removal of the file from here on.
func (s *Server) saveUpload(r *http.Request) (*core.Upload, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.log.Error("closing form file", sl.Err(err))
		}
	}()

	path := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := dst.Close(); err != nil {
			s.log.Error("closing upload file", sl.Err(err))
		}
	}()

	if _, err := io.Copy(dst, file); err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			s.log.Error("removing partial upload", sl.Err(removeErr))
		}
		return nil, err
	}

	return &core.Upload{
		Path:     path,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var fault *core.Fault
	if errors.As(err, &fault) {
		s.log.With(
			sl.Stage(fault.Stage()),
			slog.Int("status", fault.Status()),
		).Warn("request failed", sl.Err(fault))
		s.writeJSON(w, fault.Status(), errorResponse{
			Error:    fault.Message,
			Detail:   fault.Detail,
			ImageURL: fault.ImageURL,
		})
		return
	}
	s.log.Error("request failed", sl.Err(err))
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:  "Internal Server Error",
		Detail: err.Error(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encoding response", sl.Err(err))
	}
}
