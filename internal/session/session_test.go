package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m := NewManager(ttl, zerolog.Nop())
	t.Cleanup(m.Close)
	return m
}

func TestManager_NewAndGet(t *testing.T) {
	m := newTestManager(t, time.Hour)

	s := m.New()
	require.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, m.Len())
}

func TestManager_GetUnknownID(t *testing.T) {
	m := newTestManager(t, time.Hour)

	_, ok := m.Get("nope")
	assert.False(t, ok)
}

func TestManager_Authenticate(t *testing.T) {
	m := newTestManager(t, time.Hour)

	s := m.New()
	m.Authenticate(s.ID, "alice")

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.True(t, got.Authenticated())
	assert.Equal(t, "alice", got.UserID)
}

func TestManager_ExpiredSessionDestroyedOnGet(t *testing.T) {
	m := newTestManager(t, time.Hour)
	now := time.Now()
	m.now = func() time.Time { return now }

	var expired []string
	m.OnExpire(func(id string) { expired = append(expired, id) })

	s := m.New()
	now = now.Add(time.Hour + time.Second)

	_, ok := m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{s.ID}, expired)
	assert.Equal(t, 0, m.Len())
}

func TestManager_DestroyFiresHookOnce(t *testing.T) {
	m := newTestManager(t, time.Hour)

	var expired []string
	m.OnExpire(func(id string) { expired = append(expired, id) })

	s := m.New()
	m.Destroy(s.ID)
	m.Destroy(s.ID)

	assert.Equal(t, []string{s.ID}, expired)
	_, ok := m.Get(s.ID)
	assert.False(t, ok)
}

func TestManager_SweepRemovesOnlyExpired(t *testing.T) {
	m := newTestManager(t, time.Hour)
	now := time.Now()
	m.now = func() time.Time { return now }

	var expired []string
	m.OnExpire(func(id string) { expired = append(expired, id) })

	old := m.New()
	now = now.Add(30 * time.Minute)
	fresh := m.New()
	now = now.Add(45 * time.Minute)

	m.sweep()

	assert.Equal(t, []string{old.ID}, expired)
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(fresh.ID)
	assert.True(t, ok)
}
