package mock

import (
	"context"
	"time"

	"github.com/djportal/accounts"
)

type ProfileStore struct {
	ByUserIdFn func(ctx context.Context, userId accounts.UserId) (accounts.Profile, error)

	UpdateFn func(ctx context.Context, profile accounts.Profile, expected time.Time,
		changes []accounts.FieldChange) (accounts.Profile, error)
}

func (s ProfileStore) ByUserId(ctx context.Context, userId accounts.UserId) (accounts.Profile, error) {
	return s.ByUserIdFn(ctx, userId)
}

func (s ProfileStore) Update(ctx context.Context, profile accounts.Profile, expected time.Time,
	changes []accounts.FieldChange) (accounts.Profile, error) {
	return s.UpdateFn(ctx, profile, expected, changes)
}

type ChangeStore struct {
	ByUserIdFn func(ctx context.Context, userId accounts.UserId, beforeId int64, limit int32) ([]accounts.FieldChange, error)
}

func (s ChangeStore) ByUserId(ctx context.Context, userId accounts.UserId, beforeId int64, limit int32) ([]accounts.FieldChange, error) {
	return s.ByUserIdFn(ctx, userId, beforeId, limit)
}
