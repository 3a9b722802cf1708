package web

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
)

// handleSubmitJob streams the "file" part of multipart request to the service and starts polling
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	mr, err := r.MultipartReader()
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "multipart form expected")
		return
	}

	part, err := filePart(mr)
	if err != nil {
		if tooLarge(err) {
			rest.SendErrorJSON(w, r, log.Default(), http.StatusRequestEntityTooLarge, err, "audio file is too large")
			return
		}
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "no audio file in request")
		return
	}
	defer part.Close()

	filename := filepath.Base(part.FileName())
	id, err := s.jobs.Submit(r.Context(), part, filename)
	if err != nil {
		if tooLarge(err) {
			rest.SendErrorJSON(w, r, log.Default(), http.StatusRequestEntityTooLarge, err, "audio file is too large")
			return
		}
		s.sendError(w, r, err, "can't submit audio")
		return
	}
	s.writeJSON(w, http.StatusCreated, APISubmitResponse{ID: id})
}

// handleCancelJob stops polling, the job stays in the state
func (s *Server) handleCancelJob(w http.ResponseWriter, _ *http.Request) {
	s.jobs.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleDiscardJob forgets the active job
func (s *Server) handleDiscardJob(w http.ResponseWriter, _ *http.Request) {
	s.jobs.Discard()
	w.WriteHeader(http.StatusNoContent)
}

// handleJobResult returns the transcript of the completed job as plain text
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	data, err := s.jobs.Result(r.Context())
	if err != nil {
		s.sendError(w, r, err, "can't get result")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.resultName()}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("[WARN] failed to write result: %v", err)
	}
}

// resultName makes transcript file name from the audio file name
func (s *Server) resultName() string {
	j, ok := s.st.ActiveJob()
	if !ok {
		return "transcript.txt"
	}
	if j.Filename == "" {
		return j.ID + ".txt"
	}
	return strings.TrimSuffix(j.Filename, filepath.Ext(j.Filename)) + ".txt"
}

// filePart skips parts until the "file" field
func filePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("file field is missing")
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
