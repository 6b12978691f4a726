// Package events publishes committed profile changes.
package events

import (
	"time"

	"github.com/djportal/accounts"
	"github.com/goccy/go-json"
)

type message struct {
	Event       string   `json:"event"`
	UserId      int64    `json:"userId"`
	Fields      []string `json:"fields"`
	LastUpdated string   `json:"lastUpdated"`
}

func encode(event accounts.ProfileEvent) ([]byte, error) {
	fields := make([]string, len(event.Fields))
	for i, f := range event.Fields {
		fields[i] = string(f)
	}
	return json.Marshal(message{
		Event:       string(event.Name),
		UserId:      int64(event.UserId),
		Fields:      fields,
		LastUpdated: accounts.FormatTimestamp(event.LastUpdated),
	})
}

func eventTime(event accounts.ProfileEvent) time.Time {
	if event.LastUpdated.IsZero() {
		return time.Now()
	}
	return event.LastUpdated
}
