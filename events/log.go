package events

import (
	"context"

	"github.com/djportal/accounts"
	"github.com/sirupsen/logrus"
)

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct {
	Log logrus.FieldLogger
}

func (p LogPublisher) Publish(ctx context.Context, event accounts.ProfileEvent) error {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.
		WithField("event", event.Name).
		WithField("user_id", event.UserId).
		WithField("fields", event.Fields).
		Debugln("Profile event.")
	return nil
}
