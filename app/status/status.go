// Package status implements the perpetual service health poller. Poller is the only writer of the
// health zone. All checks run sequentially in the Run loop, so at most one check is in flight.
package status

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/leontine/leontine/app/gateway"
	"github.com/leontine/leontine/app/state"
)

//go:generate moq -out mocks/checker.go -pkg mocks -skip-ensure -fmt goimports . Checker

// Checker performs a single service health check
type Checker interface {
	CheckStatus(ctx context.Context, endpoint string) (gateway.ServiceReport, error)
}

// Poller checks service status every Interval, on manual refresh and on endpoint change
type Poller struct {
	checker  Checker
	st       *state.State
	writer   *state.HealthWriter
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	inFlight bool
	refresh  bool // manual refresh requested
	changed  bool // endpoint changed, never coalesced away
	trigger  chan struct{}
}

// Params for the poller
type Params struct {
	Checker  Checker
	State    *state.State
	Writer   *state.HealthWriter
	Interval time.Duration
	Timeout  time.Duration // per check
}

// New makes status poller, Run should be called to start polling
func New(p Params) *Poller {
	if p.Interval <= 0 {
		p.Interval = 30 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	return &Poller{
		checker:  p.Checker,
		st:       p.State,
		writer:   p.Writer,
		interval: p.Interval,
		timeout:  p.Timeout,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
	}
}

// Run checks status until ctx is canceled. Blocking.
func (p *Poller) Run(ctx context.Context) error {
	log.Printf("[INFO] status poller started, interval %v, timeout %v", p.interval, p.timeout)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] status poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.check(ctx)
		case <-p.trigger:
			ticker.Reset(p.interval)
			p.check(ctx)
		}
	}
}

// Refresh requests an immediate check. Returns false if coalesced with a check
// which is in flight or already pending.
func (p *Poller) Refresh() bool {
	p.mu.Lock()
	if p.inFlight || p.refresh || p.changed {
		p.mu.Unlock()
		log.Printf("[DEBUG] status refresh coalesced")
		return false
	}
	p.refresh = true
	p.mu.Unlock()
	p.signal()
	return true
}

// EndpointChanged resets health status right away and schedules a fresh check
func (p *Poller) EndpointChanged() {
	if p.st.Endpoint().Validated {
		p.writer.Checking()
	} else {
		p.writer.Unconfigured()
	}
	p.mu.Lock()
	p.changed = true
	p.mu.Unlock()
	p.signal()
}

func (p *Poller) signal() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// check runs a single health check for the current endpoint and applies the result
func (p *Poller) check(ctx context.Context) {
	p.mu.Lock()
	p.inFlight, p.refresh, p.changed = true, false, false
	select {
	case <-p.trigger: // pending requests satisfied by this check
	default:
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	endpoint := p.st.Endpoint()
	if !endpoint.Validated {
		p.writer.Unconfigured()
		return
	}

	prev := p.st.Health().Status
	p.writer.Checking()

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	rep, err := p.checker.CheckStatus(cctx, endpoint.URL)
	cancel()

	res := state.CheckResult{At: p.now()}
	switch {
	case err != nil:
		res.Err = errMessage(err)
	case !rep.Online:
		res.Err = rep.Error
		if res.Err == "" {
			res.Err = "service reported an error"
		}
	default:
		res.Online = true
		res.Queue = state.QueueDepth{Queued: rep.Queued, Processing: rep.Processing}
	}

	if !p.writer.Resolve(endpoint.URL, res) {
		log.Printf("[DEBUG] discard stale status of %s", endpoint.URL)
		return
	}

	curr := p.st.Health().Status
	switch {
	case res.Online && curr != prev:
		log.Printf("[INFO] service %s online, queued:%d, processing:%d", endpoint.URL, rep.Queued, rep.Processing)
	case !res.Online:
		log.Printf("[WARN] service %s status check failed, %s", endpoint.URL, res.Err)
	}
}

func errMessage(err error) string {
	var nerr *gateway.NetworkError
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return "service did not respond in time"
	}
	return err.Error()
}
