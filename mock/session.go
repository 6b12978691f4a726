package mock

import (
	"context"

	"github.com/djportal/accounts"
)

type SessionStore struct {
	RegisterNewFn func(ctx context.Context, userId accounts.UserId, ip string, userAgent string) (accounts.Session, error)

	ByTokenFn func(token string) (accounts.Session, error)

	AcquireAndRefreshFn func(ctx context.Context, token string, ip string, userAgent string) (accounts.Session, error)

	InvalidateByAuthTokenFn func(authToken string) error
}

func (s SessionStore) RegisterNew(ctx context.Context, userId accounts.UserId, ip string, userAgent string) (accounts.Session, error) {
	return s.RegisterNewFn(ctx, userId, ip, userAgent)
}

func (s SessionStore) ByToken(token string) (accounts.Session, error) {
	return s.ByTokenFn(token)
}

func (s SessionStore) AcquireAndRefresh(ctx context.Context, token string, ip string, userAgent string) (accounts.Session, error) {
	return s.AcquireAndRefreshFn(ctx, token, ip, userAgent)
}

func (s SessionStore) InvalidateByAuthToken(authToken string) error {
	return s.InvalidateByAuthTokenFn(authToken)
}
