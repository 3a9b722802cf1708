// Package state holds the shared application state. The state is split into zones, each with exactly
// one writer. Readers get copies through State methods; writers are handed out once by New and passed
// to the owning component only. Mutations publish zone change events and never perform I/O.
package state

import (
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/leontine/leontine/app/enums"
)

// State is the single shared application state
type State struct {
	mu       sync.RWMutex
	endpoint Endpoint
	health   Health
	job      *Job

	subsMu sync.Mutex
	subs   []chan enums.Zone
}

// Endpoint is the zone owned by the settings manager
type Endpoint struct {
	URL       string `json:"url"`
	Validated bool   `json:"validated"`
	Warning   string `json:"warning,omitempty"`
}

// QueueDepth is the queue state reported by the service
type QueueDepth struct {
	Queued     uint `json:"queued"`
	Processing uint `json:"processing"`
}

// Health is the zone owned by the status poller
type Health struct {
	Status        enums.ServiceStatus `json:"status"`
	Queue         *QueueDepth         `json:"queue,omitempty"`
	LastCheckedAt time.Time           `json:"last_checked_at,omitzero"`
	Error         string              `json:"error,omitempty"`
}

// Job is the zone owned by the job poller
type Job struct {
	ID               string         `json:"id"`
	State            enums.JobState `json:"state"`
	Filename         string         `json:"filename,omitempty"`
	SubmittedAt      time.Time      `json:"submitted_at,omitzero"`
	UpdatedAt        time.Time      `json:"updated_at,omitzero"`
	Transcript       string         `json:"transcript,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Resumed          bool           `json:"resumed"`
	ResubmitRequired bool           `json:"resubmit_required"`
	Active           bool           `json:"active"` // poller cycle is running for this job
	Warning          string         `json:"warning,omitempty"`
}

// Snapshot is a consistent copy of all zones
type Snapshot struct {
	Endpoint Endpoint `json:"endpoint"`
	Health   Health   `json:"health"`
	Job      *Job     `json:"job,omitempty"`
}

// Writers contains the mutate accessors for every zone. Each one should be passed to its owner only.
type Writers struct {
	Endpoint *EndpointWriter
	Health   *HealthWriter
	Job      *JobWriter
}

// New makes empty state with unconfigured service and returns it along with zone writers
func New() (*State, Writers) {
	s := &State{health: Health{Status: enums.ServiceStatusUnconfigured}}
	return s, Writers{
		Endpoint: &EndpointWriter{s: s},
		Health:   &HealthWriter{s: s},
		Job:      &JobWriter{s: s},
	}
}

// Endpoint returns a copy of the endpoint zone
func (s *State) Endpoint() Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint
}

// Health returns a copy of the health zone
func (s *State) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHealth(s.health)
}

// ActiveJob returns a copy of the active job, false if there is no job
func (s *State) ActiveJob() (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.job == nil {
		return Job{}, false
	}
	return *s.job, true
}

// Snapshot returns a consistent copy of all zones
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := Snapshot{Endpoint: s.endpoint, Health: copyHealth(s.health)}
	if s.job != nil {
		j := *s.job
		res.Job = &j
	}
	return res
}

// Subscribe returns a channel receiving the zone of every mutation.
// Events are dropped if the subscriber doesn't keep up with the buffer.
func (s *State) Subscribe(buffer int) <-chan enums.Zone {
	ch := make(chan enums.Zone, buffer)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes the channel returned by Subscribe
func (s *State) Unsubscribe(ch <-chan enums.Zone) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// publish should be called without s.mu held
func (s *State) publish(z enums.Zone) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- z:
		default:
			log.Printf("[DEBUG] state subscriber is full, dropping %s event", z)
		}
	}
}

func copyHealth(h Health) Health {
	if h.Queue != nil {
		q := *h.Queue
		h.Queue = &q
	}
	return h
}

// EndpointWriter mutates the endpoint zone
type EndpointWriter struct {
	s *State
}

// Set stores the endpoint url. Validated derived by the caller, it is false for an empty url always.
func (w *EndpointWriter) Set(url string, validated bool) {
	w.s.mu.Lock()
	w.s.endpoint.URL = url
	w.s.endpoint.Validated = validated && url != ""
	w.s.endpoint.Warning = ""
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneEndpoint)
}

// Warn sets a non-blocking warning for the endpoint, empty string clears it
func (w *EndpointWriter) Warn(msg string) {
	w.s.mu.Lock()
	w.s.endpoint.Warning = msg
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneEndpoint)
}

// HealthWriter mutates the health zone
type HealthWriter struct {
	s *State
}

// Unconfigured resets health to unconfigured and clears queue depth
func (w *HealthWriter) Unconfigured() {
	w.s.mu.Lock()
	w.s.health.Status = enums.ServiceStatusUnconfigured
	w.s.health.Queue = nil
	w.s.health.Error = ""
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneHealth)
}

// Checking marks a check in progress. Queue depth of the previous check kept as stale data.
func (w *HealthWriter) Checking() {
	w.s.mu.Lock()
	w.s.health.Status = enums.ServiceStatusChecking
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneHealth)
}

// CheckResult is the outcome of a single health check
type CheckResult struct {
	Online bool
	Queue  QueueDepth
	Err    string
	At     time.Time
}

// Resolve applies the check result if the endpoint url still matches the url the check was issued
// for. Returns false if the result is stale and was discarded.
func (w *HealthWriter) Resolve(taggedURL string, res CheckResult) bool {
	w.s.mu.Lock()
	if w.s.endpoint.URL != taggedURL || !w.s.endpoint.Validated {
		w.s.mu.Unlock()
		return false
	}

	at := res.At
	if at.Before(w.s.health.LastCheckedAt) {
		at = w.s.health.LastCheckedAt
	}
	w.s.health.LastCheckedAt = at

	if res.Online {
		q := res.Queue
		w.s.health.Status = enums.ServiceStatusOnline
		w.s.health.Queue = &q
		w.s.health.Error = ""
	} else {
		w.s.health.Status = enums.ServiceStatusError
		w.s.health.Queue = nil
		w.s.health.Error = res.Err
	}
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneHealth)
	return true
}

// JobWriter mutates the job zone
type JobWriter struct {
	s *State
}

// Put replaces the active job
func (w *JobWriter) Put(j Job) {
	w.s.mu.Lock()
	w.s.job = &j
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneJob)
}

// Update applies fn to the active job, returns false if there is no active job or its id differs
func (w *JobWriter) Update(id string, fn func(j *Job)) bool {
	w.s.mu.Lock()
	if w.s.job == nil || w.s.job.ID != id {
		w.s.mu.Unlock()
		return false
	}
	fn(w.s.job)
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneJob)
	return true
}

// Clear removes the active job
func (w *JobWriter) Clear() {
	w.s.mu.Lock()
	w.s.job = nil
	w.s.mu.Unlock()
	w.s.publish(enums.ZoneJob)
}
