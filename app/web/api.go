package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/leontine/leontine/app/gateway"
	"github.com/leontine/leontine/app/job"
	"github.com/leontine/leontine/app/settings"
	"github.com/leontine/leontine/app/state"
)

// APIStateResponse is the JSON response for /api/v1/state
type APIStateResponse struct {
	state.Snapshot
	Timestamp time.Time `json:"timestamp"`
}

// APIEndpointRequest is the JSON request for PUT /api/v1/endpoint
type APIEndpointRequest struct {
	URL string `json:"url"`
}

// APIRefreshResponse is the JSON response for /api/v1/status/refresh
type APIRefreshResponse struct {
	Accepted bool `json:"accepted"` // false if a check is already pending
}

// APISubmitResponse is the JSON response for POST /api/v1/jobs
type APISubmitResponse struct {
	ID string `json:"id"`
}

// handleState returns the consistent snapshot of all state zones
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, APIStateResponse{Snapshot: s.st.Snapshot(), Timestamp: time.Now()})
}

// handleSetEndpoint validates and applies the new endpoint url
func (s *Server) handleSetEndpoint(w http.ResponseWriter, r *http.Request) {
	req := APIEndpointRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "can't decode request")
		return
	}
	if err := s.settings.SetEndpointURL(req.URL); err != nil {
		s.sendError(w, r, err, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.st.Endpoint())
}

// handleRefresh requests an immediate status check
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusAccepted, APIRefreshResponse{Accepted: s.status.Refresh()})
}

// handleEvents streams state changes as server-sent events. Each event carries the changed zone
// name and the full snapshot taken after the change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ch := s.st.Subscribe(16)
	defer s.st.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	write := func(event string) bool {
		data, err := json.Marshal(s.st.Snapshot())
		if err != nil {
			log.Printf("[WARN] failed to encode state event: %v", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		if err := rc.Flush(); err != nil {
			log.Printf("[WARN] can't flush state event: %v", err)
			return false
		}
		return true
	}

	if !write("snapshot") {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case z, ok := <-ch:
			if !ok || !write(z.String()) {
				return
			}
		}
	}
}

// sendError maps component errors to http status codes
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	code := http.StatusInternalServerError
	var httpErr *gateway.HTTPError
	var netErr *gateway.NetworkError
	var parseErr *gateway.ParseError
	switch {
	case errors.Is(err, settings.ErrMalformed):
		code = http.StatusBadRequest
	case errors.Is(err, job.ErrJobActive):
		code = http.StatusConflict
	case errors.Is(err, job.ErrNotConfigured):
		code = http.StatusPreconditionFailed
	case errors.Is(err, job.ErrNoResult), errors.Is(err, gateway.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &netErr) && netErr.Timeout():
		code = http.StatusGatewayTimeout
	case errors.As(err, &netErr), errors.As(err, &httpErr), errors.As(err, &parseErr):
		code = http.StatusBadGateway
	}
	rest.SendErrorJSON(w, r, log.Default(), code, err, msg)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}
