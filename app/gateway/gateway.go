// Package gateway implements the client side of the WhisperX transcription API: service status,
// job submission, job polling and result download. Every call is bounded by a timeout.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/oliveagle/jsonpath"

	"github.com/leontine/leontine/app/enums"
)

// default JSONPath expressions for queue counts in the status response
const (
	DefaultQueuedPath     = "$.queue_state.queued_jobs"
	DefaultProcessingPath = "$.queue_state.processing_jobs"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultUploadTimeout = 5 * time.Minute
	maxResponseSize      = 16 * 1024 * 1024
	maxErrorBody         = 256
)

// Client talks to the transcription service over HTTP
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	uploadTimeout  time.Duration
	queuedPath     queuePath
	processingPath queuePath
}

type queuePath struct {
	expr     string
	compiled *jsonpath.Compiled
}

// Params for the client. Zero values replaced by defaults.
type Params struct {
	Timeout        time.Duration // status, poll and download calls
	UploadTimeout  time.Duration // job submission
	QueuedPath     string        // JSONPath of queued jobs count in status response
	ProcessingPath string        // JSONPath of processing jobs count in status response
	Transport      http.RoundTripper
}

// ServiceReport is the result of a status check
type ServiceReport struct {
	Online     bool
	Queued     uint
	Processing uint
	Error      string // error reported by the service itself
}

// JobReport is the result of a job poll
type JobReport struct {
	State      enums.JobState
	Transcript string
	Error      string
}

// New makes client with compiled queue paths
func New(p Params) (*Client, error) {
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	if p.UploadTimeout <= 0 {
		p.UploadTimeout = defaultUploadTimeout
	}
	if p.QueuedPath == "" {
		p.QueuedPath = DefaultQueuedPath
	}
	if p.ProcessingPath == "" {
		p.ProcessingPath = DefaultProcessingPath
	}
	if p.Transport == nil {
		p.Transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	queued, err := jsonpath.Compile(p.QueuedPath)
	if err != nil {
		return nil, fmt.Errorf("invalid queued path %q: %w", p.QueuedPath, err)
	}
	processing, err := jsonpath.Compile(p.ProcessingPath)
	if err != nil {
		return nil, fmt.Errorf("invalid processing path %q: %w", p.ProcessingPath, err)
	}

	return &Client{
		httpClient:     &http.Client{Transport: p.Transport},
		timeout:        p.Timeout,
		uploadTimeout:  p.UploadTimeout,
		queuedPath:     queuePath{expr: p.QueuedPath, compiled: queued},
		processingPath: queuePath{expr: p.ProcessingPath, compiled: processing},
	}, nil
}

// CheckStatus gets service status and queue counts from {endpoint}/status.
// The service reporting an error is not a failure, it is returned as ServiceReport with Online false.
func (c *Client) CheckStatus(ctx context.Context, endpoint string) (ServiceReport, error) {
	const op = "status"
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/status", http.NoBody)
	if err != nil {
		return ServiceReport{}, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(op, req)
	if err != nil {
		return ServiceReport{}, err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return ServiceReport{}, &ParseError{Op: op, Err: err}
	}

	if m, ok := doc.(map[string]any); ok {
		if e, ok := m["error"].(string); ok && e != "" {
			return ServiceReport{Online: false, Error: e}, nil
		}
	}

	queued, err := c.count(c.queuedPath, doc)
	if err != nil {
		return ServiceReport{}, &ParseError{Op: op, Err: err}
	}
	processing, err := c.count(c.processingPath, doc)
	if err != nil {
		return ServiceReport{}, &ParseError{Op: op, Err: err}
	}
	return ServiceReport{Online: true, Queued: queued, Processing: processing}, nil
}

// SubmitJob uploads audio as multipart form to {endpoint}/transcription and returns the job id
func (c *Client) SubmitJob(ctx context.Context, endpoint string, audio io.Reader, filename string) (string, error) {
	const op = "submit"
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	copied := make(chan copyResult, 1)
	go func() {
		n, err := writeAudioForm(writer, audio, filename)
		_ = pw.CloseWithError(err)
		copied <- copyResult{n: n, err: err}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/transcription", pr)
	if err != nil {
		_ = pr.Close()
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(op, req)
	_ = pr.Close()
	var res copyResult
	select {
	case res = <-copied:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err != nil && !errors.Is(res.err, io.ErrClosedPipe) && !errors.Is(res.err, ctx.Err()) {
		return "", fmt.Errorf("failed to read audio %s: %w", filename, res.err)
	}
	if err != nil {
		return "", err
	}
	if res.err != nil {
		return "", &NetworkError{Op: op, Err: res.err}
	}

	var resp struct {
		JobID string `json:"job_id"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ParseError{Op: op, Err: err}
	}
	jobID := resp.JobID
	if jobID == "" {
		jobID = resp.ID
	}
	if jobID == "" {
		return "", &ParseError{Op: op, Err: errors.New("no job id in response")}
	}
	log.Printf("[INFO] submitted %s (%d bytes), job %s", filename, res.n, jobID)
	return jobID, nil
}

type copyResult struct {
	n   int64
	err error
}

// writeAudioForm writes the "file" part with audio and closes the form
func writeAudioForm(writer *multipart.Writer, audio io.Reader, filename string) (int64, error) {
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("failed to create form file: %w", err)
	}
	n, err := io.Copy(part, audio)
	if err != nil {
		return n, err
	}
	if err = writer.Close(); err != nil {
		return n, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return n, nil
}

// PollJob gets job state from {endpoint}/transcription/{id}. Unknown job reported as ErrNotFound.
func (c *Client) PollJob(ctx context.Context, endpoint, jobID string) (JobReport, error) {
	const op = "poll"
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(endpoint, jobID), http.NoBody)
	if err != nil {
		return JobReport{}, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(op, req)
	if err != nil {
		return JobReport{}, err
	}

	var resp struct {
		Status string `json:"status"`
		Text   string `json:"text"`
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return JobReport{}, &ParseError{Op: op, Err: err}
	}

	state, err := parseJobState(resp.Status)
	if err != nil {
		return JobReport{}, &ParseError{Op: op, Err: err}
	}
	rep := JobReport{State: state, Transcript: resp.Text, Error: resp.Error}
	if rep.Transcript == "" {
		rep.Transcript = resp.Result
	}
	return rep, nil
}

// DownloadResult gets transcript content from {endpoint}/transcription/{id}/result
func (c *Client) DownloadResult(ctx context.Context, endpoint, jobID string) ([]byte, error) {
	const op = "download"
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(endpoint, jobID)+"/result", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(op, req)
}

func (c *Client) jobURL(endpoint, jobID string) string {
	return endpoint + "/transcription/" + url.PathEscape(jobID)
}

// do sends request tagged with request id and returns the body of a successful response
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	st := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	log.Printf("[DEBUG] %s %s -> %d in %v, request %s", req.Method, req.URL, resp.StatusCode, time.Since(st), reqID)

	if resp.StatusCode == http.StatusNotFound && (op == "poll" || op == "download") {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Op: op, Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), maxErrorBody)}
	}
	return body, nil
}

// count extracts a non-negative integer with the compiled path
func (c *Client) count(path queuePath, doc any) (uint, error) {
	v, err := path.compiled.Lookup(doc)
	if err != nil {
		return 0, fmt.Errorf("lookup %s: %w", path.expr, err)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("lookup %s: expected number, got %T", path.expr, v)
	}
	if f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("lookup %s: invalid count %v", path.expr, f)
	}
	return uint(f), nil
}

func parseJobState(status string) (enums.JobState, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "queued", "pending":
		return enums.JobStateQueued, nil
	case "processing", "running":
		return enums.JobStateProcessing, nil
	case "completed", "done":
		return enums.JobStateCompleted, nil
	case "failed", "error":
		return enums.JobStateFailed, nil
	case "notfound", "not_found":
		return enums.JobStateNotfound, nil
	default:
		return enums.JobState{}, fmt.Errorf("unknown job status %q", status)
	}
}

// truncate cuts s to at most n bytes on a rune boundary
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
