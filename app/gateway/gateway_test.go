package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leontine/leontine/app/enums"
)

func TestClient_CheckStatus(t *testing.T) {
	var reqID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		reqID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"status":"ok","queue_state":{"queued_jobs":2,"processing_jobs":1}}`))
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)
	rep, err := c.CheckStatus(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, ServiceReport{Online: true, Queued: 2, Processing: 1}, rep)
	assert.Len(t, reqID, 36, "uuid request id")
}

func TestClient_CheckStatusCustomPaths(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"queue":{"waiting":5,"active":0}}`))
	}))
	defer ts.Close()

	c, err := New(Params{QueuedPath: "$.queue.waiting", ProcessingPath: "$.queue.active"})
	require.NoError(t, err)
	rep, err := c.CheckStatus(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, ServiceReport{Online: true, Queued: 5}, rep)
}

func TestClient_CheckStatusServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"gpu unavailable"}`))
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)
	rep, err := c.CheckStatus(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.False(t, rep.Online)
	assert.Equal(t, "gpu unavailable", rep.Error)
}

func TestClient_CheckStatusFailures(t *testing.T) {
	tbl := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var herr *HTTPError
				require.ErrorAs(t, err, &herr)
				assert.Equal(t, 500, herr.Code)
				assert.EqualError(t, err, "status returned status 500: boom")
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name: "missing counts",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			},
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name: "negative count",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"queue_state":{"queued_jobs":-1,"processing_jobs":0}}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "invalid count")
			},
		},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()
			c, err := New(Params{})
			require.NoError(t, err)
			_, err = c.CheckStatus(context.Background(), ts.URL)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_CheckStatusTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	c, err := New(Params{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	st := time.Now()
	_, err = c.CheckStatus(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(st), 500*time.Millisecond)

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.Timeout())
}

func TestClient_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL
	ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)
	_, err = c.CheckStatus(context.Background(), endpoint)
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "status", nerr.Op)
	assert.False(t, nerr.Timeout())
}

func TestClient_SubmitJob(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcription", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "voice.mp3", hdr.Filename)
		assert.Equal(t, "audio-bytes", string(data))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"job_id":"abc123","status":"queued"}`))
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)
	id, err := c.SubmitJob(context.Background(), ts.URL, strings.NewReader("audio-bytes"), "voice.mp3")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

// blockingAudio returns the first chunk, then waits for release before EOF
type blockingAudio struct {
	chunk   []byte
	sent    bool
	release chan struct{}
}

func (b *blockingAudio) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, b.chunk), nil
	}
	select {
	case <-b.release:
		return 0, io.EOF
	case <-time.After(2 * time.Second):
		return 0, errors.New("audio not released")
	}
}

func TestClient_SubmitJobStreams(t *testing.T) {
	audio := &blockingAudio{chunk: []byte(strings.Repeat("a", 1024)), release: make(chan struct{})}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(audio.release) // request arrived while audio is still being read
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Len(t, data, 1024)
		_, _ = w.Write([]byte(`{"job_id":"abc123"}`))
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)
	id, err := c.SubmitJob(context.Background(), ts.URL, audio, "voice.wav")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestClient_SubmitJobAudioReadError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"job_id":"abc123"}`))
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)
	readErr := errors.New("disk gone")
	_, err = c.SubmitJob(context.Background(), ts.URL, io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(readErr)), "a.wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
	assert.ErrorContains(t, err, "failed to read audio a.wav")
}

func TestClient_SubmitJobFailures(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"status":"queued"}`))
			return
		}
		http.Error(w, strings.Repeat("x", 1000), http.StatusRequestEntityTooLarge)
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)

	_, err = c.SubmitJob(context.Background(), ts.URL, strings.NewReader("a"), "a.wav")
	assert.ErrorContains(t, err, "no job id in response")

	_, err = c.SubmitJob(context.Background(), ts.URL, strings.NewReader("a"), "a.wav")
	require.Error(t, err)
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, herr.Code)
	assert.Len(t, herr.Body, maxErrorBody+3)
}

func TestClient_PollJob(t *testing.T) {
	responses := map[string]string{
		"/transcription/q1": `{"status":"queued"}`,
		"/transcription/p1": `{"status":"processing"}`,
		"/transcription/c1": `{"status":"completed","text":"hello world"}`,
		"/transcription/c2": `{"status":"completed","result":"inline result"}`,
		"/transcription/f1": `{"status":"failed","error":"bad audio"}`,
		"/transcription/u1": `{"status":"exploded"}`,
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, ok := responses[r.URL.Path]
		if !ok {
			http.Error(w, `{"detail":"Job not found"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(resp))
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)

	tbl := []struct {
		id   string
		want JobReport
		err  bool
	}{
		{id: "q1", want: JobReport{State: enums.JobStateQueued}},
		{id: "p1", want: JobReport{State: enums.JobStateProcessing}},
		{id: "c1", want: JobReport{State: enums.JobStateCompleted, Transcript: "hello world"}},
		{id: "c2", want: JobReport{State: enums.JobStateCompleted, Transcript: "inline result"}},
		{id: "f1", want: JobReport{State: enums.JobStateFailed, Error: "bad audio"}},
		{id: "u1", err: true},
	}

	for _, tt := range tbl {
		t.Run(tt.id, func(t *testing.T) {
			rep, err := c.PollJob(context.Background(), ts.URL, tt.id)
			if tt.err {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rep)
		})
	}

	_, err = c.PollJob(context.Background(), ts.URL, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_DownloadResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcription/abc123/result":
			_, _ = w.Write([]byte("hello world"))
		case "/transcription/broken/result":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c, err := New(Params{})
	require.NoError(t, err)

	data, err := c.DownloadResult(context.Background(), ts.URL, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, err = c.DownloadResult(context.Background(), ts.URL, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.DownloadResult(context.Background(), ts.URL, "broken")
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.EqualError(t, err, "download returned status 502")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(Params{QueuedPath: "queue.count"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tbl := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"aé", 2, "a..."},
		{"éé", 3, "é..."},
		{"日本語", 4, "日..."},
		{"日本語", 2, "..."},
	}
	for i, tt := range tbl {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			res := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, res)
			assert.True(t, utf8.ValidString(res))
		})
	}
}
