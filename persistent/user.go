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

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	Id         int64             `bun:",pk,autoincrement"`
	CreatedAt  time.Time         `bun:",nullzero,notnull,default:current_timestamp"`
	Username   string            `bun:",notnull,unique"`
	Email      string            `bun:",notnull,unique"`
	RolesNames []accounts.RoleId `bun:",notnull,array"`
	IsActive   bool              `bun:",notnull"`

	// Mapped (in AfterScanRow hook) roles from RolesNames.
	Roles accounts.Roles `bun:"-"`
}

func (u User) ToDomain() accounts.User {
	return accounts.User{
		Id:        accounts.UserId(u.Id),
		CreatedAt: u.CreatedAt,
		Username:  u.Username,
		Email:     accounts.Email(u.Email),
		Roles:     u.Roles,
		IsActive:  u.IsActive,
	}
}

var _ bun.AfterScanRowHook = (*User)(nil)

func (u *User) AfterScanRow(ctx context.Context) error {
	u.Roles = accounts.RolesByIds(u.RolesNames)
	return nil
}

type UserStore struct {
	DB *bun.DB
}

var _ accounts.UserStore = (*UserStore)(nil)

// Register creates an active user with default roles and its profile.
func (s *UserStore) Register(ctx context.Context, username string, email accounts.Email) (accounts.User, error) {
	user := &User{
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		Username:   username,
		Email:      string(email),
		RolesNames: accounts.DefaultRoleIds,
		IsActive:   true,
		Roles:      accounts.RolesByIds(accounts.DefaultRoleIds),
	}

	err := s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(user).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		profile := profileFromDomain(accounts.NewProfile(accounts.UserId(user.Id), user.CreatedAt))
		_, err = tx.NewInsert().
			Model(profile).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return accounts.User{}, err
	}
	return user.ToDomain(), nil
}

func (s *UserStore) ById(ctx context.Context, userId accounts.UserId) (accounts.User, error) {
	user := new(User)
	err := s.DB.NewSelect().
		Model(user).
		Where(`u.id=?`, userId).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.User{}, accounts.ErrUserNotFound
		}
		return accounts.User{}, fmt.Errorf("select user: %w", err)
	}
	return user.ToDomain(), nil
}

// Update stores roles and activity of user.
func (s *UserStore) Update(ctx context.Context, user accounts.User) error {
	res, err := s.DB.NewUpdate().
		Model(&User{
			Id:         int64(user.Id),
			RolesNames: user.Roles.Ids(),
			IsActive:   user.IsActive,
		}).
		Column("roles_names", "is_active").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update query: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return accounts.ErrUserNotFound
	}
	return nil
}
