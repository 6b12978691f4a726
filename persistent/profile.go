package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/djportal/accounts"
	"github.com/uptrace/bun"
)

type Profile struct {
	bun.BaseModel `bun:"table:profile"`

	Id           int64     `bun:",pk,autoincrement"`
	UserId       int64     `bun:",unique,notnull"`
	FirstName    string    `bun:"type:varchar(150),notnull"`
	LastName     string    `bun:"type:varchar(150),notnull"`
	ProfileImage string    `bun:",nullzero"`
	Thumbnail    string    `bun:",nullzero"`
	Cover        string    `bun:",nullzero"`
	ThemeMode    string    `bun:",notnull,default:'cyan'"`
	LastUpdated  time.Time `bun:",notnull"`
}

func (p Profile) ToDomain() accounts.Profile {
	return accounts.Profile{
		UserId:       accounts.UserId(p.UserId),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		ProfileImage: p.ProfileImage,
		Thumbnail:    p.Thumbnail,
		Cover:        p.Cover,
		ThemeMode:    accounts.Theme(p.ThemeMode),
		LastUpdated:  p.LastUpdated.UTC(),
	}
}

func profileFromDomain(p accounts.Profile) *Profile {
	return &Profile{
		UserId:       int64(p.UserId),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		ProfileImage: p.ProfileImage,
		Thumbnail:    p.Thumbnail,
		Cover:        p.Cover,
		ThemeMode:    string(p.ThemeMode),
		LastUpdated:  p.LastUpdated.UTC().Truncate(time.Microsecond),
	}
}

type ProfileStore struct {
	DB *bun.DB
}

var _ accounts.ProfileStore = (*ProfileStore)(nil)

func (s *ProfileStore) ByUserId(ctx context.Context, userId accounts.UserId) (accounts.Profile, error) {
	profile := new(Profile)
	err := s.DB.NewSelect().
		Model(profile).
		Where(`user_id=?`, userId).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Profile{}, accounts.ErrProfileNotFound
		}
		return accounts.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return profile.ToDomain(), nil
}

// Update writes profile only while the stored row still carries expected,
// together with its change history.
func (s *ProfileStore) Update(ctx context.Context, profile accounts.Profile, expected time.Time,
	changes []accounts.FieldChange) (accounts.Profile, error) {
	expected = expected.UTC().Truncate(time.Microsecond)
	model := profileFromDomain(profile)
	model.LastUpdated = accounts.NextTimestamp(expected, time.Now())

	err := s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(model).
			Column("first_name", "last_name", "profile_image", "thumbnail", "cover", "theme_mode", "last_updated").
			Where(`user_id=?`, model.UserId).
			Where(`last_updated=?`, expected).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			exists, err := tx.NewSelect().
				Model((*Profile)(nil)).
				Where(`user_id=?`, model.UserId).
				Exists(ctx)
			if err != nil {
				return fmt.Errorf("select profile: %w", err)
			}
			if !exists {
				return accounts.ErrProfileNotFound
			}
			return accounts.ErrProfileStale
		}

		if len(changes) == 0 {
			return nil
		}
		rows := make([]FieldChange, len(changes))
		for i, change := range changes {
			rows[i] = changeFromDomain(change)
			rows[i].CreatedAt = model.LastUpdated
		}
		_, err = tx.NewInsert().
			Model(&rows).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert changes: %w", err)
		}
		return nil
	})
	if err != nil {
		return accounts.Profile{}, err
	}
	return model.ToDomain(), nil
}
