// Package resumer handles auto-resume of the pending transcription job after restart
package resumer

import (
	"fmt"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/leontine/leontine/app/persistence"
)

// Resumer keeps track of the submitted, not yet finished job id in the key-value store.
// Only the id is persisted, the job state is reconstructed by polling the service.
type Resumer struct {
	store   persistence.KV
	enabled bool
}

// New makes resumer for given store. Disabled resumer never reports pending jobs and writes nothing.
func New(store persistence.KV, enabled bool) *Resumer {
	return &Resumer{store: store, enabled: enabled}
}

// OnStart persists the id of a started job
func (r *Resumer) OnStart(jobID string) error {
	if !r.enabled {
		return nil
	}
	log.Printf("[DEBUG] register resumable job %s", jobID)
	if err := r.store.Set(persistence.KeyActiveJobID, jobID); err != nil {
		return fmt.Errorf("can't persist job id %s: %w", jobID, err)
	}
	return nil
}

// OnFinish removes the persisted job id
func (r *Resumer) OnFinish() error {
	if !r.enabled {
		return nil
	}
	log.Printf("[DEBUG] unregister resumable job")
	if err := r.store.Delete(persistence.KeyActiveJobID); err != nil {
		return fmt.Errorf("can't clear job id: %w", err)
	}
	return nil
}

// Pending returns the persisted job id. Read failures are logged and reported as no pending job.
func (r *Resumer) Pending() (jobID string, ok bool) {
	if !r.enabled {
		return "", false
	}
	id, found, err := r.store.Get(persistence.KeyActiveJobID)
	if err != nil {
		log.Printf("[WARN] can't get pending job, %v", err)
		return "", false
	}
	id = strings.TrimSpace(id)
	if !found || id == "" {
		return "", false
	}
	log.Printf("[DEBUG] pending job %s", id)
	return id, true
}

func (r *Resumer) String() string {
	return fmt.Sprintf("enabled:%v, key:%s", r.enabled, persistence.KeyActiveJobID)
}
