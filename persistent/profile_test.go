package persistent

import (
	"context"
	"testing"
	"time"

	"github.com/djportal/accounts"
	"github.com/stretchr/testify/assert"
)

func TestProfileUpdate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := openTestDb(t)
	users := &UserStore{DB: db}
	profiles := &ProfileStore{DB: db}
	changes := &ChangeStore{DB: db}

	user := registerTestUser(t, users)
	current, err := profiles.ByUserId(ctx, user.Id)
	if !assert.NoError(err) {
		return
	}

	next := current
	next.FirstName = "Alice"
	next.Cover = ""
	diff := accounts.Diff(current, next, user.Id)
	updated, err := profiles.Update(ctx, next, current.LastUpdated, diff)
	if !assert.NoError(err) {
		return
	}
	assert.True(updated.LastUpdated.After(current.LastUpdated))
	assert.Equal("Alice", updated.FirstName)

	stored, err := profiles.ByUserId(ctx, user.Id)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(updated, stored)
	assert.Equal("", stored.Cover)

	history, err := changes.ByUserId(ctx, user.Id, -1, 10)
	if !assert.NoError(err) {
		return
	}
	if assert.Len(history, 2) {
		assert.Equal(accounts.FieldCover, history[0].Field)
		assert.Nil(history[0].NewValue)
		assert.Equal(accounts.FieldFirstName, history[1].Field)
		assert.Equal(updated.LastUpdated, history[1].CreatedAt)
		assert.Equal(user.Id, history[1].ChangedBy)
	}

	older, err := changes.ByUserId(ctx, user.Id, history[0].Id, 10)
	if assert.NoError(err) {
		assert.Len(older, 1)
	}
}

func TestProfileUpdateStale(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := openTestDb(t)
	profiles := &ProfileStore{DB: db}
	changes := &ChangeStore{DB: db}

	user := registerTestUser(t, &UserStore{DB: db})
	current, err := profiles.ByUserId(ctx, user.Id)
	if !assert.NoError(err) {
		return
	}

	next := current
	next.LastName = "Smith"
	diff := accounts.Diff(current, next, user.Id)
	_, err = profiles.Update(ctx, next, current.LastUpdated.Add(-time.Second), diff)
	assert.ErrorIs(err, accounts.ErrProfileStale)

	stored, err := profiles.ByUserId(ctx, user.Id)
	if assert.NoError(err) {
		assert.Equal(current, stored)
	}
	history, err := changes.ByUserId(ctx, user.Id, -1, 10)
	if assert.NoError(err) {
		assert.Empty(history)
	}
}

func TestProfileNotFound(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	profiles := &ProfileStore{DB: openTestDb(t)}

	_, err := profiles.ByUserId(ctx, -1)
	assert.ErrorIs(err, accounts.ErrProfileNotFound)

	_, err = profiles.Update(ctx, accounts.NewProfile(-1, time.Now()), time.Now(), nil)
	assert.ErrorIs(err, accounts.ErrProfileNotFound)
}
