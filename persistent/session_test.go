package persistent

import (
	"context"
	"testing"

	"github.com/djportal/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/buntdb"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	bdb, err := buntdb.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bdb.Close() })

	store := &SessionStore{Buntdb: bdb}
	if err := store.CreateIndexes(); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSessionRegisterAndRefresh(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := newTestSessionStore(t)

	session, err := store.RegisterNew(ctx, 9231982, "192.168.0.101", "Chrome/openBased")
	if !assert.NoError(err) {
		return
	}
	assert.Equal(accounts.UserId(9231982), session.UserId)
	assert.Equal("192.168.0.101", session.Ip)
	assert.Equal("Chrome/openBased", session.UserAgent)
	assert.True(session.ExpiresAt.After(session.LastAccessedAt))

	byToken, err := store.ByToken(session.Token)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(session.Id, byToken.Id)

	refreshed, err := store.AcquireAndRefresh(ctx, session.Token, "192.168.0.102", "Safari/macbockOS")
	if !assert.NoError(err) {
		return
	}
	assert.Equal(session.Id, refreshed.Id)
	assert.Equal(session.Token, refreshed.Token)
	assert.Equal("192.168.0.102", refreshed.Ip)
	assert.Equal("Safari/macbockOS", refreshed.UserAgent)
	assert.False(refreshed.LastAccessedAt.Before(session.LastAccessedAt))

	stored, err := store.ByToken(session.Token)
	if assert.NoError(err) {
		assert.Equal("192.168.0.102", stored.Ip)
	}
}

func TestSessionUnknownToken(t *testing.T) {
	assert := assert.New(t)
	store := newTestSessionStore(t)

	_, err := store.ByToken("nope")
	assert.ErrorIs(err, accounts.ErrSessionNotFound)

	_, err = store.AcquireAndRefresh(context.Background(), "nope", "127.0.0.1", "curl")
	assert.ErrorIs(err, accounts.ErrSessionNotFound)

	assert.ErrorIs(store.InvalidateByAuthToken("nope"), accounts.ErrSessionNotFound)
}

func TestSessionInvalidate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := newTestSessionStore(t)

	session, err := store.RegisterNew(ctx, 1, "127.0.0.1", "curl")
	if !assert.NoError(err) {
		return
	}
	if !assert.NoError(store.InvalidateByAuthToken(session.Token)) {
		return
	}
	_, err = store.ByToken(session.Token)
	assert.ErrorIs(err, accounts.ErrSessionNotFound)
}

func Test_GenerateSessionTokenLength(t *testing.T) {
	assert := assert.New(t)

	token, err := generateSessionToken()
	if assert.NoError(err) {
		assert.True(len(token) > 20)
		assert.NotContains(token, ":")
	}
}
