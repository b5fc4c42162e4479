package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(time.Minute)

	s := m.Create()
	require.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated())

	got := m.Get(s.ID)
	require.NotNil(t, got)
	assert.Same(t, s, got)
}

func TestManager_GetUnknown(t *testing.T) {
	m := NewManager(time.Minute)
	assert.Nil(t, m.Get(""))
	assert.Nil(t, m.Get("no-such-id"))
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()
	s.expiresAt = time.Now().Add(-time.Second)

	assert.Nil(t, m.Get(s.ID))
	// An expired session is gone for good, not merely hidden.
	assert.Nil(t, m.Get(s.ID))
}

func TestManager_GetSlidesExpiry(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()
	s.expiresAt = time.Now().Add(time.Second)

	require.NotNil(t, m.Get(s.ID))
	assert.Greater(t, time.Until(s.expiresAt), 50*time.Second)
}

func TestManager_Destroy(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()
	s.Email = "user@example.com"

	m.Destroy(s.ID)
	assert.Nil(t, m.Get(s.ID))
}

func TestManager_Prune(t *testing.T) {
	m := NewManager(time.Minute)
	live := m.Create()
	dead := m.Create()
	dead.expiresAt = time.Now().Add(-time.Second)

	m.Prune()
	assert.NotNil(t, m.Get(live.ID))
	assert.Nil(t, m.Get(dead.ID))
}

func TestSession_Authenticated(t *testing.T) {
	s := &Session{}
	assert.False(t, s.Authenticated())
	s.Email = "user@example.com"
	assert.True(t, s.Authenticated())
}
