// Package settings manages the endpoint url of the transcription service. It is the only writer of
// the endpoint zone, persists the url and signals endpoint changes to the status poller.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"

	"github.com/leontine/leontine/app/persistence"
	"github.com/leontine/leontine/app/state"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// DefaultEndpointURL used when nothing is persisted
const DefaultEndpointURL = "https://llm.iut-rodez.fr/leontine/api"

// ErrMalformed returned (wrapped in ValidationError) for a candidate which is not an absolute http(s) url
var ErrMalformed = errors.New("malformed endpoint url")

// ValidationError describes rejected endpoint url
type ValidationError struct {
	Candidate string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrMalformed, e.Candidate, e.Reason)
}

// Is makes errors.Is(err, ErrMalformed) work
func (e *ValidationError) Is(target error) bool { return target == ErrMalformed }

// Notifier receives the endpoint change signal
type Notifier interface {
	EndpointChanged()
}

// Manager owns the endpoint url
type Manager struct {
	store      persistence.KV
	st         *state.State
	writer     *state.EndpointWriter
	notifier   Notifier
	defaultURL string

	mu sync.Mutex // serializes writers, state and store stay in the same order
}

// Params for the manager
type Params struct {
	Store      persistence.KV
	State      *state.State
	Writer     *state.EndpointWriter
	Notifier   Notifier // optional, can be set later with SetNotifier
	DefaultURL string   // used if nothing persisted, empty means unconfigured
}

// New makes settings manager. Load should be called before use.
func New(p Params) *Manager {
	return &Manager{store: p.Store, st: p.State, writer: p.Writer, notifier: p.Notifier, defaultURL: p.DefaultURL}
}

// SetNotifier sets the receiver of endpoint change signals
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Load reads the persisted endpoint url into the state. Invalid or unreadable value replaced by default.
func (m *Manager) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate, warning := m.defaultURL, ""
	val, found, err := m.store.Get(persistence.KeyEndpointURL)
	switch {
	case err != nil:
		log.Printf("[WARN] can't load endpoint url, using default %q: %v", m.defaultURL, err)
		warning = fmt.Sprintf("saved endpoint url can't be read: %v", err)
	case found:
		candidate = val
	}

	endpoint, verr := Normalize(candidate)
	if verr != nil && candidate != m.defaultURL {
		log.Printf("[WARN] ignore persisted endpoint url, %v", verr)
		warning = fmt.Sprintf("saved endpoint url ignored: %v", verr)
		endpoint, verr = Normalize(m.defaultURL)
	}
	if verr != nil {
		if m.defaultURL != "" {
			log.Printf("[WARN] default endpoint url rejected, %v", verr)
		}
		endpoint = ""
	}

	m.writer.Set(endpoint, endpoint != "")
	if warning != "" {
		m.writer.Warn(warning)
	}
	log.Printf("[INFO] endpoint url %q", endpoint)
	m.notify()
}

// SetEndpointURL validates, applies and persists the endpoint url. Only validation errors returned,
// persistence failure reported as endpoint warning and the new url takes effect anyway.
func (m *Manager) SetEndpointURL(candidate string) error {
	endpoint, err := Normalize(candidate)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writer.Set(endpoint, true)
	if err := m.store.Set(persistence.KeyEndpointURL, endpoint); err != nil {
		log.Printf("[WARN] can't persist endpoint url %s, keep in memory only: %v", endpoint, err)
		m.writer.Warn(fmt.Sprintf("endpoint url not saved: %v", err))
	}
	log.Printf("[INFO] endpoint url changed to %s", endpoint)
	m.notify()
	return nil
}

// EndpointURL returns the current endpoint url
func (m *Manager) EndpointURL() string {
	return m.st.Endpoint().URL
}

func (m *Manager) notify() {
	if m.notifier != nil {
		m.notifier.EndpointChanged()
	}
}

// Normalize trims the candidate, checks it is an absolute http(s) url with a host
// and removes trailing slashes.
func Normalize(candidate string) (string, error) {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return "", &ValidationError{Candidate: candidate, Reason: "empty"}
	}
	u, err := url.Parse(c)
	if err != nil {
		return "", &ValidationError{Candidate: candidate, Reason: "can't parse"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Candidate: candidate, Reason: "scheme should be http or https"}
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", &ValidationError{Candidate: candidate, Reason: "no host"}
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return "", &ValidationError{Candidate: candidate, Reason: "query and fragment not allowed"}
	}
	return strings.TrimRight(c, "/"), nil
}
