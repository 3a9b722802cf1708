// Package job implements submission and tracking of a transcription job. Poller is the only writer
// of the job zone. A single polling cycle is active at a time, every cycle has a generation and
// results of a superseded generation are discarded.
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"

	"github.com/leontine/leontine/app/enums"
	"github.com/leontine/leontine/app/gateway"
	"github.com/leontine/leontine/app/state"
)

//go:generate moq -out mocks/gateway.go -pkg mocks -skip-ensure -fmt goimports . Gateway
//go:generate moq -out mocks/tracker.go -pkg mocks -skip-ensure -fmt goimports . Tracker
//go:generate moq -out mocks/repeater.go -pkg mocks -skip-ensure -fmt goimports . Repeater

var (
	// ErrJobActive returned on submission while a non-terminal job exists
	ErrJobActive = errors.New("transcription job is active")
	// ErrNotConfigured returned on submission without a validated endpoint
	ErrNotConfigured = errors.New("endpoint is not configured")
	// ErrNoResult returned if there is no completed job to get the transcript of
	ErrNoResult = errors.New("no completed job")
)

// Gateway is the subset of the remote service used for jobs
type Gateway interface {
	SubmitJob(ctx context.Context, endpoint string, audio io.Reader, filename string) (string, error)
	PollJob(ctx context.Context, endpoint, jobID string) (gateway.JobReport, error)
	DownloadResult(ctx context.Context, endpoint, jobID string) ([]byte, error)
}

// Tracker persists the id of the job in progress, implemented by resumer
type Tracker interface {
	OnStart(jobID string) error
	OnFinish() error
	Pending() (jobID string, ok bool)
}

// Repeater repeats a function call until success or limit
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// FinishHandler is called once the job reaches a terminal state
type FinishHandler func(ctx context.Context, job state.Job)

// Poller submits jobs and polls the active one until it reaches a terminal state
type Poller struct {
	gw         Gateway
	st         *state.State
	writer     *state.JobWriter
	tracker    Tracker
	repeater   Repeater
	onFinish   FinishHandler
	interval   time.Duration
	timeout    time.Duration
	maxRetries int
	now        func() time.Time

	mu         sync.Mutex
	gen        uint64
	cancel     context.CancelFunc
	done       chan struct{}
	submitting bool
}

// Params for the poller
type Params struct {
	Gateway    Gateway
	State      *state.State
	Writer     *state.JobWriter
	Tracker    Tracker
	Repeater   Repeater // result download retries, default is 3 attempts with backoff
	OnFinish   FinishHandler
	Interval   time.Duration
	Timeout    time.Duration // per gateway call
	MaxRetries int           // consecutive transient failures tolerated before the job failed
}

// New makes job poller
func New(p Params) *Poller {
	if p.Interval <= 0 {
		p.Interval = 5 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Repeater == nil {
		p.Repeater = repeater.New(&strategy.Backoff{Repeats: 3, Duration: 500 * time.Millisecond, Factor: 2, Jitter: true})
	}
	return &Poller{
		gw:         p.Gateway,
		st:         p.State,
		writer:     p.Writer,
		tracker:    p.Tracker,
		repeater:   p.Repeater,
		onFinish:   p.OnFinish,
		interval:   p.Interval,
		timeout:    p.Timeout,
		maxRetries: p.MaxRetries,
		now:        time.Now,
	}
}

// Submit uploads audio and starts polling the new job. Rejected with ErrJobActive if a non-terminal
// job exists and with ErrNotConfigured if there is no validated endpoint.
func (p *Poller) Submit(ctx context.Context, audio io.Reader, filename string) (string, error) {
	p.mu.Lock()
	if j, ok := p.st.ActiveJob(); (ok && !j.State.IsTerminal()) || p.submitting {
		p.mu.Unlock()
		return "", ErrJobActive
	}
	endpoint := p.st.Endpoint()
	if !endpoint.Validated {
		p.mu.Unlock()
		return "", ErrNotConfigured
	}
	p.submitting = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.submitting = false
		p.mu.Unlock()
	}()

	jobID, err := p.gw.SubmitJob(ctx, endpoint.URL, audio, filename)
	if err != nil {
		return "", fmt.Errorf("can't submit %s: %w", filename, err)
	}
	jobID = strings.TrimSpace(jobID)
	log.Printf("[INFO] job %s submitted, file %s", jobID, filename)

	ts := p.now()
	p.start(ctx, state.Job{ID: jobID, State: enums.JobStateSubmitted, Filename: filename, SubmittedAt: ts, UpdatedAt: ts})
	return jobID, nil
}

// Resume starts polling the job persisted by the tracker, without re-submission.
// Returns false if there is no pending job.
func (p *Poller) Resume(ctx context.Context) bool {
	jobID, ok := p.tracker.Pending()
	if !ok {
		return false
	}
	log.Printf("[INFO] resume job %s", jobID)
	// state unknown until the first poll, queued is the closest non-terminal state after submission
	p.start(ctx, state.Job{ID: jobID, State: enums.JobStateQueued, Resumed: true, UpdatedAt: p.now()})
	return true
}

// start cancels the previous cycle, waits for it to exit and runs a new cycle for the job.
// The cycle is detached from ctx cancellation and lives until a terminal state, Cancel or Discard.
func (p *Poller) start(ctx context.Context, j state.Job) {
	j.Active = true

	p.mu.Lock()
	p.gen++
	gen := p.gen
	prevCancel, prevDone := p.cancel, p.done
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	if prevCancel != nil {
		prevCancel()
	}
	p.writer.Put(j)
	if !j.Resumed {
		// under the lock, so a concurrent finish or Discard can't remove the id after it was saved
		if err := p.tracker.OnStart(j.ID); err != nil {
			log.Printf("[WARN] %v, job %s won't be resumed after restart", err, j.ID)
			p.writer.Update(j.ID, func(job *state.Job) { job.Warning = "job id not saved, it won't be resumed after restart" })
		}
	}
	p.mu.Unlock()

	if prevDone != nil {
		<-prevDone // previous cycle has no call in flight after this point
	}

	go p.cycle(cctx, gen, j.ID, done)
}

// Cancel stops the active cycle without further gateway calls. The last known state and the
// persisted id are kept, the job is marked inactive.
func (p *Poller) Cancel() {
	p.mu.Lock()
	cancel, done := p.detach()
	if j, ok := p.st.ActiveJob(); ok && j.Active {
		p.writer.Update(j.ID, func(job *state.Job) { job.Active = false })
	}
	p.mu.Unlock()

	if wait(cancel, done) {
		log.Printf("[DEBUG] job poller canceled")
	}
}

// Discard cancels the cycle and forgets the active job, allowing a new submission
func (p *Poller) Discard() {
	p.mu.Lock()
	cancel, done := p.detach()
	j, ok := p.st.ActiveJob()
	p.writer.Clear()
	if err := p.tracker.OnFinish(); err != nil {
		log.Printf("[WARN] %v", err)
	}
	p.mu.Unlock()

	wait(cancel, done)
	if ok {
		log.Printf("[INFO] job %s discarded", j.ID)
	}
}

// detach makes results of the running cycle stale and returns its cancel and done. Caller holds mu.
func (p *Poller) detach() (context.CancelFunc, chan struct{}) {
	p.gen++
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	return cancel, done
}

// wait cancels the detached cycle and waits for its exit, false if there was no cycle
func wait(cancel context.CancelFunc, done chan struct{}) bool {
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

// Result returns the transcript of the completed job
func (p *Poller) Result(ctx context.Context) ([]byte, error) {
	j, ok := p.st.ActiveJob()
	if !ok || j.State != enums.JobStateCompleted {
		return nil, ErrNoResult
	}
	if j.Transcript != "" {
		return []byte(j.Transcript), nil
	}
	endpoint := p.st.Endpoint()
	if !endpoint.Validated {
		return nil, ErrNotConfigured
	}
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	data, err := p.gw.DownloadResult(cctx, endpoint.URL, j.ID)
	if err != nil {
		return nil, fmt.Errorf("can't download result of %s: %w", j.ID, err)
	}
	return data, nil
}

// cycle polls the job right away and then every interval until a terminal state or cancellation
func (p *Poller) cycle(ctx context.Context, gen uint64, jobID string, done chan struct{}) {
	defer close(done)
	log.Printf("[DEBUG] start polling job %s, generation %d", jobID, gen)

	failures := 0
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] stop polling job %s, generation %d", jobID, gen)
			return
		case <-timer.C:
		}
		if p.tick(ctx, gen, jobID, &failures) {
			return
		}
		timer.Reset(p.interval)
	}
}

// tick polls the job once and applies the outcome. Returns true if the cycle should stop.
func (p *Poller) tick(ctx context.Context, gen uint64, jobID string, failures *int) (stop bool) {
	endpoint := p.st.Endpoint()
	if !endpoint.Validated {
		log.Printf("[DEBUG] endpoint not configured, skip polling job %s", jobID)
		return false
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	rep, err := p.gw.PollJob(cctx, endpoint.URL, jobID)
	cancel()
	if ctx.Err() != nil {
		return true // canceled, response discarded
	}

	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return p.notFound(gen, jobID)
	case err != nil:
		return p.transient(gen, jobID, failures, err)
	}

	switch rep.State {
	case enums.JobStateSubmitted, enums.JobStateQueued, enums.JobStateProcessing:
		*failures = 0
		if !p.apply(gen, jobID, func(j *state.Job) {
			if j.State != rep.State {
				log.Printf("[INFO] job %s is %s", jobID, rep.State)
			}
			j.State, j.UpdatedAt, j.Warning = rep.State, p.now(), ""
		}) {
			return true
		}
		return false

	case enums.JobStateCompleted:
		transcript := rep.Transcript
		if transcript == "" {
			data, derr := p.download(ctx, endpoint.URL, jobID)
			if ctx.Err() != nil {
				return true
			}
			if errors.Is(derr, gateway.ErrNotFound) {
				return p.notFound(gen, jobID)
			}
			if derr != nil {
				return p.transient(gen, jobID, failures, derr)
			}
			transcript = string(data)
		}
		*failures = 0
		return p.finish(gen, jobID, func(j *state.Job) {
			j.State, j.Transcript, j.ErrorMessage = enums.JobStateCompleted, transcript, ""
		})

	case enums.JobStateFailed:
		msg := rep.Error
		if msg == "" {
			msg = "transcription failed"
		}
		return p.finish(gen, jobID, func(j *state.Job) {
			j.State, j.ErrorMessage = enums.JobStateFailed, msg
		})

	case enums.JobStateNotfound:
		return p.notFound(gen, jobID)
	}

	return p.transient(gen, jobID, failures, fmt.Errorf("unexpected job state %s", rep.State))
}

// download gets the result with retries, a missing job is not retried
func (p *Poller) download(ctx context.Context, endpoint, jobID string) (data []byte, err error) {
	err = p.repeater.Do(ctx, func() error {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		var derr error
		data, derr = p.gw.DownloadResult(cctx, endpoint, jobID)
		if derr != nil && !errors.Is(derr, gateway.ErrNotFound) {
			log.Printf("[DEBUG] download result of job %s failed, %v", jobID, derr)
		}
		return derr
	}, gateway.ErrNotFound)
	return data, err
}

func (p *Poller) notFound(gen uint64, jobID string) bool {
	return p.finish(gen, jobID, func(j *state.Job) {
		j.State, j.ResubmitRequired = enums.JobStateNotfound, true
		j.ErrorMessage = "job is unknown to the service, resubmit the file"
	})
}

// transient counts consecutive failures and fails the job once the limit exceeded
func (p *Poller) transient(gen uint64, jobID string, failures *int, err error) bool {
	*failures++
	if *failures > p.maxRetries {
		log.Printf("[WARN] job %s failed after %d attempts, %v", jobID, *failures, err)
		return p.finish(gen, jobID, func(j *state.Job) {
			j.State, j.ErrorMessage = enums.JobStateFailed, fmt.Sprintf("network error: %v", err)
		})
	}
	log.Printf("[WARN] can't get status of job %s (%d/%d), %v", jobID, *failures, p.maxRetries, err)
	return !p.apply(gen, jobID, func(j *state.Job) {
		j.Warning = fmt.Sprintf("status check failed, retrying (%d/%d): %v", *failures, p.maxRetries, err)
	})
}

// apply updates the job if the generation is current, false if the result is stale
func (p *Poller) apply(gen uint64, jobID string, fn func(j *state.Job)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		log.Printf("[DEBUG] discard stale update of job %s, generation %d", jobID, gen)
		return false
	}
	return p.writer.Update(jobID, fn)
}

// finish sets a terminal state, clears the persisted id and calls the finish handler. Always stops the cycle.
func (p *Poller) finish(gen uint64, jobID string, fn func(j *state.Job)) bool {
	ts := p.now()
	var finished state.Job

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		log.Printf("[DEBUG] discard stale result of job %s, generation %d", jobID, gen)
		return true
	}
	ok := p.writer.Update(jobID, func(j *state.Job) {
		fn(j)
		j.UpdatedAt, j.Active, j.Warning = ts, false, ""
		finished = *j
	})
	if ok {
		if err := p.tracker.OnFinish(); err != nil {
			log.Printf("[WARN] %v", err)
			const warn = "finished job id not cleared from storage"
			p.writer.Update(jobID, func(job *state.Job) { job.Warning = warn })
			finished.Warning = warn
		}
	}
	p.mu.Unlock()
	if !ok {
		return true
	}

	log.Printf("[INFO] job %s finished, %s", jobID, finished.State)
	if p.onFinish != nil {
		go p.onFinish(context.Background(), finished)
	}
	return true
}
