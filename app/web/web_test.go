package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/leontine/leontine/app/enums"
	"github.com/leontine/leontine/app/gateway"
	"github.com/leontine/leontine/app/job"
	"github.com/leontine/leontine/app/settings"
	"github.com/leontine/leontine/app/state"
	"github.com/leontine/leontine/app/web/mocks"
)

type fixture struct {
	st       *state.State
	wr       state.Writers
	jobs     *mocks.JobRunnerMock
	settings *mocks.EndpointSetterMock
	status   *mocks.StatusRefresherMock
	ts       *httptest.Server
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	st, wr := state.New()
	f := &fixture{
		st: st, wr: wr,
		jobs: &mocks.JobRunnerMock{
			CancelFunc:  func() {},
			DiscardFunc: func() {},
		},
		settings: &mocks.EndpointSetterMock{SetEndpointURLFunc: func(candidate string) error {
			wr.Endpoint.Set(candidate, true)
			return nil
		}},
		status: &mocks.StatusRefresherMock{RefreshFunc: func() bool { return true }},
	}
	cfg.State, cfg.Settings, cfg.Status, cfg.Jobs = st, f.settings, f.status, f.jobs
	if cfg.UploadRate == 0 {
		cfg.UploadRate = 1000
	}
	srv, err := New(cfg)
	require.NoError(t, err)
	f.ts = httptest.NewServer(srv.routes())
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) upload(t *testing.T, field, filename, content string) *http.Response {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("lang", "fr"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return f.do(t, http.MethodPost, "/api/v1/jobs", buf, mw.FormDataContentType())
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	res := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res["error"]
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	st, _ := state.New()
	srv, err := New(Config{State: st, Settings: &mocks.EndpointSetterMock{}, Status: &mocks.StatusRefresherMock{},
		Jobs: &mocks.JobRunnerMock{}})
	require.NoError(t, err)
	assert.Equal(t, int64(512*1024*1024), srv.maxUploadSize)
	assert.NotNil(t, srv.uploadLimiter)
}

func TestServer_State(t *testing.T) {
	f := newFixture(t, Config{})
	f.wr.Endpoint.Set("https://api.example.test", true)
	f.wr.Health.Resolve("https://api.example.test", state.CheckResult{Online: true, Queue: state.QueueDepth{Queued: 2}, At: time.Now()})
	f.wr.Job.Put(state.Job{ID: "abc123", State: enums.JobStateProcessing, Active: true})

	resp := f.do(t, http.MethodGet, "/api/v1/state", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	res := struct {
		Endpoint  state.Endpoint `json:"endpoint"`
		Health    state.Health   `json:"health"`
		Job       *state.Job     `json:"job"`
		Timestamp time.Time      `json:"timestamp"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "https://api.example.test", res.Endpoint.URL)
	assert.True(t, res.Endpoint.Validated)
	assert.Equal(t, enums.ServiceStatusOnline, res.Health.Status)
	require.NotNil(t, res.Health.Queue)
	assert.Equal(t, uint(2), res.Health.Queue.Queued)
	require.NotNil(t, res.Job)
	assert.Equal(t, "abc123", res.Job.ID)
	assert.Equal(t, enums.JobStateProcessing, res.Job.State)
	assert.False(t, res.Timestamp.IsZero())
}

func TestServer_SetEndpoint(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.do(t, http.MethodPut, "/api/v1/endpoint", strings.NewReader(`{"url":"http://localhost:8000"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ep := state.Endpoint{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ep))
	assert.Equal(t, "http://localhost:8000", ep.URL)
	require.Len(t, f.settings.SetEndpointURLCalls(), 1)
	assert.Equal(t, "http://localhost:8000", f.settings.SetEndpointURLCalls()[0].Candidate)

	f.settings.SetEndpointURLFunc = func(candidate string) error {
		return &settings.ValidationError{Candidate: candidate, Reason: "scheme should be http or https"}
	}
	resp = f.do(t, http.MethodPut, "/api/v1/endpoint", strings.NewReader(`{"url":"ftp://x"}`), "application/json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `malformed endpoint url "ftp://x": scheme should be http or https`, errorMessage(t, resp))

	resp = f.do(t, http.MethodPut, "/api/v1/endpoint", strings.NewReader(`{"url":`), "application/json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "can't decode request", errorMessage(t, resp))
	assert.Len(t, f.settings.SetEndpointURLCalls(), 2)
}

func TestServer_Refresh(t *testing.T) {
	f := newFixture(t, Config{})
	resp := f.do(t, http.MethodPost, "/api/v1/status/refresh", nil, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	res := APIRefreshResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Accepted)

	f.status.RefreshFunc = func() bool { return false }
	resp = f.do(t, http.MethodPost, "/api/v1/status/refresh", nil, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Accepted)
	assert.Len(t, f.status.RefreshCalls(), 2)
}

func TestServer_SubmitJob(t *testing.T) {
	f := newFixture(t, Config{})
	f.jobs.SubmitFunc = func(_ context.Context, audio io.Reader, filename string) (string, error) {
		data, err := io.ReadAll(audio)
		require.NoError(t, err)
		assert.Equal(t, "RIFF audio", string(data))
		assert.Equal(t, "voice.wav", filename)
		return "abc123", nil
	}

	resp := f.upload(t, "file", "../../voice.wav", "RIFF audio")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := APISubmitResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "abc123", res.ID)
	assert.Len(t, f.jobs.SubmitCalls(), 1)
}

func TestServer_SubmitJobErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"job active", job.ErrJobActive, http.StatusConflict},
		{"not configured", job.ErrNotConfigured, http.StatusPreconditionFailed},
		{"service error", fmt.Errorf("can't submit: %w", &gateway.HTTPError{Op: "submit", Code: 500}), http.StatusBadGateway},
		{"bad response", fmt.Errorf("can't submit: %w", &gateway.ParseError{Op: "submit", Err: errors.New("eof")}),
			http.StatusBadGateway},
		{"timeout", fmt.Errorf("can't submit: %w", &gateway.NetworkError{Op: "submit", Err: context.DeadlineExceeded}),
			http.StatusGatewayTimeout},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			f.jobs.SubmitFunc = func(context.Context, io.Reader, string) (string, error) { return "", tt.err }
			resp := f.upload(t, "file", "voice.wav", "RIFF audio")
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, "can't submit audio", errorMessage(t, resp))
		})
	}
}

func TestServer_SubmitJobBadRequest(t *testing.T) {
	f := newFixture(t, Config{MaxUploadSize: 1024})
	f.jobs.SubmitFunc = func(_ context.Context, audio io.Reader, _ string) (string, error) {
		if _, err := io.ReadAll(audio); err != nil {
			return "", fmt.Errorf("can't submit: %w", err)
		}
		return "abc123", nil
	}

	resp := f.do(t, http.MethodPost, "/api/v1/jobs", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "multipart form expected", errorMessage(t, resp))

	resp = f.upload(t, "audio", "voice.wav", "RIFF audio")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no audio file in request", errorMessage(t, resp))

	resp = f.upload(t, "file", "voice.wav", strings.Repeat("x", 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "audio file is too large", errorMessage(t, resp))
}

func TestServer_SubmitJobRateLimit(t *testing.T) {
	f := newFixture(t, Config{UploadRate: 0.001})
	f.jobs.SubmitFunc = func(context.Context, io.Reader, string) (string, error) { return "abc123", nil }

	resp := f.upload(t, "file", "voice.wav", "RIFF audio")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.upload(t, "file", "voice.wav", "RIFF audio")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Len(t, f.jobs.SubmitCalls(), 1)
}

func TestServer_CancelDiscard(t *testing.T) {
	f := newFixture(t, Config{})
	resp := f.do(t, http.MethodPost, "/api/v1/jobs/active/cancel", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, f.jobs.CancelCalls(), 1)
	assert.Empty(t, f.jobs.DiscardCalls())

	resp = f.do(t, http.MethodDelete, "/api/v1/jobs/active", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, f.jobs.DiscardCalls(), 1)
}

func TestServer_JobResult(t *testing.T) {
	f := newFixture(t, Config{})
	f.jobs.ResultFunc = func(context.Context) ([]byte, error) { return []byte("hello world"), nil }
	resp := f.do(t, http.MethodGet, "/api/v1/jobs/active/result", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=transcript.txt", resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))

	f.wr.Job.Put(state.Job{ID: "abc123", Filename: "interview 1.mp3", State: enums.JobStateCompleted})
	resp = f.do(t, http.MethodGet, "/api/v1/jobs/active/result", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="interview 1.txt"`, resp.Header.Get("Content-Disposition"))

	f.jobs.ResultFunc = func(context.Context) ([]byte, error) { return nil, job.ErrNoResult }
	resp = f.do(t, http.MethodGet, "/api/v1/jobs/active/result", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	f.jobs.ResultFunc = func(context.Context) ([]byte, error) {
		return nil, fmt.Errorf("can't download result of abc123: %w", gateway.ErrNotFound)
	}
	resp = f.do(t, http.MethodGet, "/api/v1/jobs/active/result", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "can't get result", errorMessage(t, resp))
}

func TestServer_Events(t *testing.T) {
	f := newFixture(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ts.URL+"/api/v1/events", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	readEvent := func() (name string, snap state.Snapshot) {
		for {
			line, err := rd.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
			case line == "" && name != "":
				return name, snap
			}
		}
	}

	name, snap := readEvent()
	assert.Equal(t, "snapshot", name)
	assert.Equal(t, enums.ServiceStatusUnconfigured, snap.Health.Status)

	f.wr.Endpoint.Set("https://api.example.test", true)
	name, snap = readEvent()
	assert.Equal(t, "endpoint", name)
	assert.Equal(t, "https://api.example.test", snap.Endpoint.URL)

	f.wr.Health.Checking()
	name, snap = readEvent()
	assert.Equal(t, "health", name)
	assert.Equal(t, enums.ServiceStatusChecking, snap.Health.Status)
}

func TestServer_Auth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	f := newFixture(t, Config{PasswordHash: string(hash)})

	tests := []struct {
		name     string
		path     string
		user     string
		password string
		wantCode int
	}{
		{name: "no credentials", path: "/api/v1/state", wantCode: http.StatusUnauthorized},
		{name: "valid credentials", path: "/api/v1/state", user: "leontine", password: "secret", wantCode: http.StatusOK},
		{name: "wrong password", path: "/api/v1/state", user: "leontine", password: "bad", wantCode: http.StatusUnauthorized},
		{name: "wrong user", path: "/api/v1/state", user: "admin", password: "secret", wantCode: http.StatusUnauthorized},
		{name: "ping without credentials", path: "/ping", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, f.ts.URL+tt.path, http.NoBody)
			require.NoError(t, err)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.password)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="leontine"`, resp.Header.Get("WWW-Authenticate"))
			}
		})
	}
}
