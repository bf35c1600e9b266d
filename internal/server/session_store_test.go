package server

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	store := NewSessionStore(ttl, time.Hour, slog.New(slog.DiscardHandler), nil)
	t.Cleanup(store.Stop)
	return store
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t, time.Minute)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestSessionStoreGetUnknown(t *testing.T) {
	store := newTestStore(t, time.Minute)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStoreUniqueIDs(t *testing.T) {
	store := newTestStore(t, time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		sess := store.Create()
		require.False(t, seen[sess.ID])
		seen[sess.ID] = true
	}
}

func TestSessionStoreDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t, time.Minute)

	sess := store.Create()
	assert.True(t, store.Delete(sess.ID))
	assert.False(t, store.Delete(sess.ID))
	assert.Equal(t, 0, store.Len())

	_, err := store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStoreGetRefreshesIdleClock(t *testing.T) {
	store := newTestStore(t, time.Minute)

	sess := store.Create()
	before := sess.LastAccess()
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, sess.LastAccess().After(before))
}

func TestSessionStoreSweepIdle(t *testing.T) {
	store := newTestStore(t, time.Nanosecond)

	store.Create()
	store.Create()
	require.Equal(t, 2, store.Len())

	time.Sleep(5 * time.Millisecond)
	store.sweepIdle()
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreCloseAll(t *testing.T) {
	store := newTestStore(t, time.Minute)

	a := store.Create()
	b := store.Create()

	var cancelled int
	cancel := func() { cancelled++ }
	require.True(t, a.AttachStream(cancel))
	require.True(t, b.AttachStream(cancel))

	store.CloseAll()
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 2, cancelled, "live streams are cancelled on shutdown")
}

func TestSessionAttachStreamReplacesPrevious(t *testing.T) {
	sess := &Session{ID: "s"}

	firstCancelled := false
	require.True(t, sess.AttachStream(func() { firstCancelled = true }))
	require.True(t, sess.AttachStream(func() {}))
	assert.True(t, firstCancelled, "a session owns at most one live stream")
}

func TestSessionCloseCancelsStreamOnce(t *testing.T) {
	sess := &Session{ID: "s"}

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, sess.AttachStream(cancel))

	sess.Close()
	sess.Close()
	assert.Error(t, ctx.Err())

	assert.False(t, sess.AttachStream(func() {}), "closed sessions reject new streams")
}
