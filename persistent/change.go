package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/djportal/accounts"
	"github.com/uptrace/bun"
)

type FieldChange struct {
	bun.BaseModel `bun:"table:profile_change"`

	Id        int64     `bun:",pk,autoincrement"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UserId    int64     `bun:",notnull"`
	ChangedBy int64     `bun:",notnull"`
	Field     string    `bun:",notnull"`
	OldValue  *string
	NewValue  *string
}

func (c FieldChange) ToDomain() accounts.FieldChange {
	return accounts.FieldChange{
		Id:        c.Id,
		CreatedAt: c.CreatedAt.UTC(),
		UserId:    accounts.UserId(c.UserId),
		ChangedBy: accounts.UserId(c.ChangedBy),
		Field:     accounts.Field(c.Field),
		OldValue:  c.OldValue,
		NewValue:  c.NewValue,
	}
}

func changeFromDomain(c accounts.FieldChange) FieldChange {
	return FieldChange{
		UserId:    int64(c.UserId),
		ChangedBy: int64(c.ChangedBy),
		Field:     string(c.Field),
		OldValue:  c.OldValue,
		NewValue:  c.NewValue,
	}
}

type ChangeStore struct {
	DB *bun.DB
}

var _ accounts.ChangeStore = (*ChangeStore)(nil)

func (s *ChangeStore) ByUserId(ctx context.Context, userId accounts.UserId, beforeId int64, limit int32) ([]accounts.FieldChange, error) {
	if limit <= 0 {
		return []accounts.FieldChange{}, nil
	}

	var changes []FieldChange
	q := s.DB.NewSelect().
		Model(&changes).
		Where("user_id=?", userId).
		OrderExpr("id DESC").
		Limit(int(limit))
	if beforeId >= 0 {
		q = q.Where("id<?", beforeId)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	mapped := make([]accounts.FieldChange, len(changes))
	for i, c := range changes {
		mapped[i] = c.ToDomain()
	}
	return mapped, nil
}
