package main

import (
	"context"
	"testing"

	"github.com/djportal/accounts/inmem"
	"github.com/djportal/accounts/persistent"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/buntdb"
)

func TestSeedSession(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	bdb, err := buntdb.Open(":memory:")
	if !assert.NoError(err) {
		return
	}
	defer bdb.Close()
	sessions := &persistent.SessionStore{Buntdb: bdb}
	profiles := inmem.NewProfileStore(inmem.NewChangeStore())
	users := inmem.NewUserStore(profiles)

	user, session, err := seedSession(ctx, users, sessions, "dev", "dev@example.com")
	if !assert.NoError(err) {
		return
	}
	assert.True(user.IsActive)

	acquired, err := sessions.AcquireAndRefresh(ctx, session.Token, "10.0.0.1", "curl")
	if assert.NoError(err) {
		assert.Equal(user.Id, acquired.UserId)
	}
	_, err = profiles.ByUserId(ctx, user.Id)
	assert.NoError(err)

	_, _, err = seedSession(ctx, users, sessions, "", "")
	assert.Error(err)
}
