package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/djportal/accounts"
	"github.com/sirupsen/logrus"
)

// Updater coordinates optimistic-concurrency updates of a user's profile.
// Every write is guarded by the last updated timestamp the client saw.
type Updater struct {
	Profiles    accounts.ProfileStore
	Images      accounts.ImageStore
	Thumbnailer accounts.Thumbnailer
	// Optional. Profile events are not published when nil.
	Events accounts.EventPublisher
	// Optional. Defaults to the standard logrus logger.
	Log logrus.FieldLogger
	// Optional. Generates blob names, defaults to random uuids.
	NewName func() string
}

// FieldsRequest maps field names to proposed values. Besides editable fields
// it must carry the "last_updated" timestamp the client last saw.
type FieldsRequest map[string]interface{}

// UpdateFields applies req to the profile of actor.
func (u *Updater) UpdateFields(ctx context.Context, actor accounts.UserId, req FieldsRequest) (Result, error) {
	result, err := u.updateFields(ctx, actor, req)
	countOutcome(operationFields, outcomeOf(result, err))
	return result, err
}

func (u *Updater) updateFields(ctx context.Context, actor accounts.UserId, req FieldsRequest) (Result, error) {
	clientLastUpdated, ok := req[lastUpdatedField].(string)
	if !ok || len(req) < 2 {
		return Result{}, ErrMissingData
	}
	names := make([]string, 0, len(req)-1)
	for name := range req {
		if name != lastUpdatedField {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	current, err := u.Profiles.ByUserId(ctx, actor)
	if err != nil {
		return Result{}, fmt.Errorf("get profile: %w", err)
	}
	if clientLastUpdated != accounts.FormatTimestamp(current.LastUpdated) {
		return fieldsConflict(current, names), nil
	}

	next := current
	var invalidFields []string
	for _, name := range names {
		f, ok := accounts.ParseField(name)
		if !ok || !f.Editable() {
			invalidFields = append(invalidFields, name)
			continue
		}
		value, ok := stringValue(req[name])
		if !ok {
			invalidFields = append(invalidFields, name)
			continue
		}
		stored, _ := next.Value(f)
		if accounts.SameValue(stored, value) {
			continue
		}
		if !acceptsImageRef(actor, f, value) {
			invalidFields = append(invalidFields, name)
			continue
		}
		if err := next.Set(f, value); err != nil {
			invalidFields = append(invalidFields, name)
		}
	}

	data := make(map[string]interface{}, len(req))
	for name, value := range req {
		data[name] = value
	}

	changes := accounts.Diff(current, next, actor)
	if len(changes) == 0 {
		return Result{
			Message:       MsgUpdated,
			Data:          data,
			InvalidFields: invalidFields,
			LastUpdated:   current.LastUpdated,
		}, nil
	}

	updated, err := u.Profiles.Update(ctx, next, current.LastUpdated, changes)
	if errors.Is(err, accounts.ErrProfileStale) {
		u.log().WithField("user_id", actor).Infoln("Profile changed during update, reporting conflict.")
		fresh, err := u.Profiles.ByUserId(ctx, actor)
		if err != nil {
			return Result{}, fmt.Errorf("get profile after conflict: %w", err)
		}
		return fieldsConflict(fresh, names), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("update profile: %w", err)
	}

	data[lastUpdatedField] = accounts.FormatTimestamp(updated.LastUpdated)
	u.discardReplaced(ctx, actor, current, updated)
	u.publish(ctx, accounts.EventProfileUpdated, updated, changes)
	return Result{
		Changed:       true,
		Message:       MsgUpdated,
		Data:          data,
		InvalidFields: invalidFields,
		LastUpdated:   updated.LastUpdated,
	}, nil
}

// fieldsConflict echoes every requested field with its stored value.
func fieldsConflict(current accounts.Profile, names []string) Result {
	data := make(map[string]interface{}, len(names)+1)
	for _, name := range names {
		value, _ := current.Value(accounts.Field(name))
		data[name] = jsonValue(value)
	}
	data[lastUpdatedField] = accounts.FormatTimestamp(current.LastUpdated)
	return Result{
		Conflict:    true,
		Message:     MsgConflict,
		Data:        data,
		LastUpdated: current.LastUpdated,
	}
}

func (u *Updater) publish(ctx context.Context, name accounts.ProfileEventName, p accounts.Profile, changes []accounts.FieldChange) {
	if u.Events == nil {
		return
	}
	fields := make([]accounts.Field, len(changes))
	for i, change := range changes {
		fields[i] = change.Field
	}
	err := u.Events.Publish(ctx, accounts.ProfileEvent{
		Name:        name,
		UserId:      p.UserId,
		Fields:      fields,
		LastUpdated: p.LastUpdated,
	})
	if err != nil {
		u.log().
			WithError(err).
			WithField("user_id", p.UserId).
			WithField("event", name).
			Warnln("Could not publish profile event.")
	}
}

func (u *Updater) log() logrus.FieldLogger {
	if u.Log == nil {
		return logrus.StandardLogger()
	}
	return u.Log
}

func outcomeOf(result Result, err error) string {
	switch {
	case errors.Is(err, ErrMissingData), errors.Is(err, ErrNoValidAction), errors.Is(err, ErrNoValidFile):
		return outcomeRejected
	case err != nil:
		return outcomeFailed
	case result.Conflict:
		return outcomeConflict
	case !result.Changed:
		return outcomeUnchanged
	default:
		return outcomeApplied
	}
}

// acceptsImageRef limits image fields to null, the shared default cover or a
// blob uploaded by actor.
func acceptsImageRef(actor accounts.UserId, f accounts.Field, value *string) bool {
	switch f {
	case accounts.FieldProfileImage, accounts.FieldCover:
	default:
		return true
	}
	if value == nil || *value == "" {
		return true
	}
	if f == accounts.FieldCover && *value == accounts.DefaultCover {
		return true
	}
	return ownsBlob(actor, *value)
}

// stringValue accepts strings and null. Any other JSON type is rejected.
func stringValue(raw interface{}) (*string, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case string:
		return &v, true
	default:
		return nil, false
	}
}

func jsonValue(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
