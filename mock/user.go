package mock

import (
	"context"

	"github.com/djportal/accounts"
)

type UserStore struct {
	ByIdFn func(ctx context.Context, userId accounts.UserId) (accounts.User, error)
}

func (s UserStore) ById(ctx context.Context, userId accounts.UserId) (accounts.User, error) {
	return s.ByIdFn(ctx, userId)
}
