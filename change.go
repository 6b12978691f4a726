package accounts

import (
	"context"
	"time"
)

// FieldChange is a single entry of a profile's change history.
type FieldChange struct {
	Id        int64
	CreatedAt time.Time
	UserId    UserId
	ChangedBy UserId
	Field     Field
	OldValue  *string
	NewValue  *string
}

type ChangeStore interface {
	// "beforeId" - get changes before change with given id. If lower than 0 then gets recent changes up to "limit".
	ByUserId(ctx context.Context, userId UserId, beforeId int64, limit int32) ([]FieldChange, error)
}

// Diff lists every field whose value differs between before and after.
func Diff(before, after Profile, changedBy UserId) []FieldChange {
	var changes []FieldChange
	for _, f := range allFields {
		oldValue, _ := before.Value(f)
		newValue, _ := after.Value(f)
		if SameValue(oldValue, newValue) {
			continue
		}
		changes = append(changes, FieldChange{
			UserId:    after.UserId,
			ChangedBy: changedBy,
			Field:     f,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	}
	return changes
}
