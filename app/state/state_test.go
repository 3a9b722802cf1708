package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leontine/leontine/app/enums"
)

func TestNew(t *testing.T) {
	st, wr := New()
	require.NotNil(t, wr.Endpoint)
	require.NotNil(t, wr.Health)
	require.NotNil(t, wr.Job)

	snap := st.Snapshot()
	assert.Equal(t, enums.ServiceStatusUnconfigured, snap.Health.Status)
	assert.Empty(t, snap.Endpoint.URL)
	assert.False(t, snap.Endpoint.Validated)
	assert.Nil(t, snap.Job)
}

func TestEndpointWriter_Set(t *testing.T) {
	st, wr := New()
	wr.Endpoint.Set("https://api.example.test", true)
	assert.Equal(t, Endpoint{URL: "https://api.example.test", Validated: true}, st.Endpoint())

	wr.Endpoint.Warn("can't persist")
	assert.Equal(t, "can't persist", st.Endpoint().Warning)

	wr.Endpoint.Set("", true)
	assert.False(t, st.Endpoint().Validated, "empty url is never validated")
	assert.Empty(t, st.Endpoint().Warning, "set clears warning")
}

func TestHealthWriter_Resolve(t *testing.T) {
	st, wr := New()
	wr.Endpoint.Set("https://api.example.test", true)
	wr.Health.Checking()
	assert.Equal(t, enums.ServiceStatusChecking, st.Health().Status)

	ts := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	ok := wr.Health.Resolve("https://api.example.test",
		CheckResult{Online: true, Queue: QueueDepth{Queued: 2, Processing: 1}, At: ts})
	require.True(t, ok)
	h := st.Health()
	assert.Equal(t, enums.ServiceStatusOnline, h.Status)
	require.NotNil(t, h.Queue)
	assert.Equal(t, QueueDepth{Queued: 2, Processing: 1}, *h.Queue)
	assert.Equal(t, ts, h.LastCheckedAt)

	t.Run("stale response discarded", func(t *testing.T) {
		wr.Endpoint.Set("https://other.example.test", true)
		wr.Health.Checking()
		ok := wr.Health.Resolve("https://api.example.test", CheckResult{Online: false, Err: "timeout", At: ts.Add(time.Minute)})
		assert.False(t, ok)
		h := st.Health()
		assert.Equal(t, enums.ServiceStatusChecking, h.Status)
		require.NotNil(t, h.Queue, "stale result doesn't clear queue")
		assert.Equal(t, ts, h.LastCheckedAt)
	})

	t.Run("failure clears queue and keeps monotonic time", func(t *testing.T) {
		ok := wr.Health.Resolve("https://other.example.test", CheckResult{Online: false, Err: "timeout", At: ts.Add(-time.Hour)})
		assert.True(t, ok)
		h := st.Health()
		assert.Equal(t, enums.ServiceStatusError, h.Status)
		assert.Nil(t, h.Queue)
		assert.Equal(t, "timeout", h.Error)
		assert.Equal(t, ts, h.LastCheckedAt, "last checked never goes back")
	})

	t.Run("unconfigured", func(t *testing.T) {
		wr.Health.Unconfigured()
		h := st.Health()
		assert.Equal(t, enums.ServiceStatusUnconfigured, h.Status)
		assert.Nil(t, h.Queue)
		assert.Empty(t, h.Error)
	})
}

func TestHealth_CopyIsolated(t *testing.T) {
	st, wr := New()
	wr.Endpoint.Set("https://api.example.test", true)
	wr.Health.Resolve("https://api.example.test", CheckResult{Online: true, Queue: QueueDepth{Queued: 5}, At: time.Now()})

	h := st.Health()
	h.Queue.Queued = 100
	assert.Equal(t, uint(5), st.Health().Queue.Queued)
}

func TestJobWriter(t *testing.T) {
	st, wr := New()
	_, ok := st.ActiveJob()
	assert.False(t, ok)

	wr.Job.Put(Job{ID: "abc123", State: enums.JobStateSubmitted, Active: true})
	j, ok := st.ActiveJob()
	require.True(t, ok)
	assert.Equal(t, "abc123", j.ID)

	assert.True(t, wr.Job.Update("abc123", func(j *Job) { j.State = enums.JobStateProcessing }))
	assert.False(t, wr.Job.Update("other", func(j *Job) { j.State = enums.JobStateFailed }))
	j, _ = st.ActiveJob()
	assert.Equal(t, enums.JobStateProcessing, j.State)

	j.State = enums.JobStateFailed // copy, not a reference
	j2, _ := st.ActiveJob()
	assert.Equal(t, enums.JobStateProcessing, j2.State)

	wr.Job.Clear()
	_, ok = st.ActiveJob()
	assert.False(t, ok)
	assert.False(t, wr.Job.Update("abc123", func(*Job) {}))
}

func TestState_Subscribe(t *testing.T) {
	st, wr := New()
	ch := st.Subscribe(10)

	wr.Endpoint.Set("https://api.example.test", true)
	wr.Health.Checking()
	wr.Job.Put(Job{ID: "1"})

	assert.Equal(t, enums.ZoneEndpoint, <-ch)
	assert.Equal(t, enums.ZoneHealth, <-ch)
	assert.Equal(t, enums.ZoneJob, <-ch)

	small := st.Subscribe(1)
	wr.Health.Checking()
	wr.Health.Checking() // dropped, must not block
	assert.Equal(t, enums.ZoneHealth, <-small)
	assert.Len(t, small, 0)
}

func TestState_Unsubscribe(t *testing.T) {
	st, wr := New()
	ch := st.Subscribe(10)
	other := st.Subscribe(10)
	st.Unsubscribe(ch)

	wr.Health.Checking()
	_, ok := <-ch
	assert.False(t, ok, "channel closed")
	assert.Equal(t, enums.ZoneHealth, <-other)

	st.Unsubscribe(ch) // unknown channel ignored
}
