package persistence

import (
	"sync"

	log "github.com/go-pkgz/lgr"
)

// Degrading wraps KV and keeps values in memory for keys the backing store failed to write.
// Such keys are served from memory until the next successful write or delete.
type Degrading struct {
	KV
	mu      sync.Mutex
	overlay map[string]*string // nil value means deleted in memory
}

// NewDegrading wraps the store
func NewDegrading(store KV) *Degrading {
	return &Degrading{KV: store, overlay: make(map[string]*string)}
}

// Get returns the in-memory value if the key is degraded, otherwise the stored one.
// A failed read is reported as not found along with the error.
func (d *Degrading) Get(key string) (value string, found bool, err error) {
	d.mu.Lock()
	v, degraded := d.overlay[key]
	d.mu.Unlock()
	if degraded {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}

	value, found, err = d.KV.Get(key)
	if err != nil {
		log.Printf("[WARN] can't read %s, %v", key, err)
		return "", false, err
	}
	return value, found, nil
}

// Set writes to the backing store, on failure keeps the value in memory and returns the error
func (d *Degrading) Set(key, value string) error {
	err := d.KV.Set(key, value)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		log.Printf("[WARN] can't persist %s, keeping it in memory only, %v", key, err)
		d.overlay[key] = &value
		return err
	}
	delete(d.overlay, key)
	return nil
}

// Delete removes from the backing store, on failure marks the key deleted in memory
func (d *Degrading) Delete(key string) error {
	err := d.KV.Delete(key)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		log.Printf("[WARN] can't delete %s, dropping it in memory only, %v", key, err)
		d.overlay[key] = nil
		return err
	}
	delete(d.overlay, key)
	return nil
}

// Degraded reports whether the key is served from memory
func (d *Degrading) Degraded(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.overlay[key]
	return ok
}
