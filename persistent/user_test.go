package persistent

import (
	"context"
	"testing"

	"github.com/djportal/accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func registerTestUser(t *testing.T, store *UserStore) accounts.User {
	name := uuid.NewString()
	user, err := store.Register(context.Background(), name, accounts.Email(name+"@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func TestUserRoles(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := openTestDb(t)

	email := uuid.NewString() + "@rol.es"
	_, err := db.NewInsert().
		Model(&User{
			Username:   uuid.NewString(),
			Email:      email,
			RolesNames: []accounts.RoleId{accounts.RoleIdAdmin, accounts.RoleId("UNDEFINED role")},
			IsActive:   true,
		}).
		Exec(ctx)
	if !assert.NoError(err) {
		return
	}

	var user User
	err = db.NewSelect().
		Model((*User)(nil)).
		Where("email=?", email).
		Scan(ctx, &user)
	if !assert.NoError(err) {
		return
	}

	roles := user.Roles
	assert.Equal(accounts.Roles{accounts.AllRoles[accounts.RoleIdAdmin]}, roles)
	assert.Equal(accounts.AccessAllowed, roles.Access(accounts.PermissionAdminDashboard))
}

func TestRegisterUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := openTestDb(t)
	store := &UserStore{DB: db}

	user := registerTestUser(t, store)
	assert.True(user.IsActive)
	assert.Equal(accounts.DefaultRoleIds, user.Roles.Ids())

	userSel, err := store.ById(ctx, user.Id)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(user.Username, userSel.Username)
	assert.Equal(user.Email, userSel.Email)
	assert.Equal(user.Roles, userSel.Roles)

	profile, err := (&ProfileStore{DB: db}).ByUserId(ctx, user.Id)
	if assert.NoError(err) {
		assert.Equal(accounts.DefaultCover, profile.Cover)
		assert.Equal(accounts.ThemeDefault, profile.ThemeMode)
	}
}

func TestUserUpdate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := &UserStore{DB: openTestDb(t)}

	user := registerTestUser(t, store)
	user.IsActive = false
	user.Roles = accounts.RolesByIds([]accounts.RoleId{accounts.RoleIdMember, accounts.RoleIdReadOnly})
	if !assert.NoError(store.Update(ctx, user)) {
		return
	}

	updated, err := store.ById(ctx, user.Id)
	if assert.NoError(err) {
		assert.False(updated.IsActive)
		assert.Equal(accounts.AccessForbidden, updated.Roles.Access(accounts.PermissionProfileEdit))
	}

	assert.ErrorIs(store.Update(ctx, accounts.User{Id: -1}), accounts.ErrUserNotFound)
	_, err = store.ById(ctx, -1)
	assert.ErrorIs(err, accounts.ErrUserNotFound)
}
