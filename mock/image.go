package mock

import (
	"context"

	"github.com/djportal/accounts"
)

type ImageStore struct {
	PutFn    func(ctx context.Context, key string, data []byte, contentType string) error
	DeleteFn func(ctx context.Context, key string) error
	URLFn    func(key string) string
}

func (s ImageStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.PutFn(ctx, key, data, contentType)
}

func (s ImageStore) Delete(ctx context.Context, key string) error {
	return s.DeleteFn(ctx, key)
}

func (s ImageStore) URL(key string) string {
	return s.URLFn(key)
}

type Thumbnailer struct {
	ThumbnailFn func(src []byte, filename string) ([]byte, error)
}

func (t Thumbnailer) Thumbnail(src []byte, filename string) ([]byte, error) {
	return t.ThumbnailFn(src, filename)
}

type EventPublisher struct {
	PublishFn func(ctx context.Context, event accounts.ProfileEvent) error
}

func (p EventPublisher) Publish(ctx context.Context, event accounts.ProfileEvent) error {
	return p.PublishFn(ctx, event)
}
