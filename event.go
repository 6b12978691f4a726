package accounts

import (
	"context"
	"time"
)

type ProfileEventName string

const (
	EventProfileUpdated      ProfileEventName = "profile.updated"
	EventProfileImageUpdated ProfileEventName = "profile.image_updated"
)

// ProfileEvent announces a committed profile change.
type ProfileEvent struct {
	Name        ProfileEventName
	UserId      UserId
	Fields      []Field
	LastUpdated time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, event ProfileEvent) error
}
