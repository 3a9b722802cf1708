package resumer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leontine/leontine/app/persistence"
	"github.com/leontine/leontine/app/persistence/mocks"
)

func TestResumer_OnStart(t *testing.T) {
	store := persistence.NewMemoryStore()
	r := New(store, true)

	err := r.OnStart("abc123")
	require.NoError(t, err)

	val, found, err := store.Get(persistence.KeyActiveJobID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc123", val)
}

func TestResumer_OnFinish(t *testing.T) {
	store := persistence.NewMemoryStore()
	r := New(store, true)

	require.NoError(t, r.OnStart("abc123"))
	require.NoError(t, r.OnFinish())

	_, found, err := store.Get(persistence.KeyActiveJobID)
	require.NoError(t, err)
	assert.False(t, found)
	_, ok := r.Pending()
	assert.False(t, ok)
}

func TestResumer_Pending(t *testing.T) {
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	r := New(store, true)
	_, ok := r.Pending()
	assert.False(t, ok)

	require.NoError(t, r.OnStart("abc123"))
	id, ok := New(store, true).Pending() // new instance, as after restart
	assert.True(t, ok)
	assert.Equal(t, "abc123", id)

	require.NoError(t, store.Set(persistence.KeyActiveJobID, "  "))
	_, ok = r.Pending()
	assert.False(t, ok, "blank id ignored")

	r.enabled = false
	require.NoError(t, store.Set(persistence.KeyActiveJobID, "abc123"))
	_, ok = r.Pending()
	assert.False(t, ok)
}

func TestResumer_Errors(t *testing.T) {
	kv := &mocks.KVMock{
		GetFunc:    func(string) (string, bool, error) { return "", false, errors.New("read failed") },
		SetFunc:    func(string, string) error { return errors.New("write failed") },
		DeleteFunc: func(string) error { return errors.New("delete failed") },
	}
	r := New(kv, true)

	err := r.OnStart("abc123")
	assert.EqualError(t, err, "can't persist job id abc123: write failed")
	err = r.OnFinish()
	assert.EqualError(t, err, "can't clear job id: delete failed")
	_, ok := r.Pending()
	assert.False(t, ok)

	disabled := New(kv, false)
	assert.NoError(t, disabled.OnStart("abc123"))
	assert.NoError(t, disabled.OnFinish())
	assert.Len(t, kv.SetCalls(), 1, "disabled resumer doesn't touch the store")
	assert.Equal(t, "enabled:false, key:job.activeId", disabled.String())
}
